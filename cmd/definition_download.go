package cmd

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/huanfeng/mia-cli/internal/i18n"
	"github.com/huanfeng/mia-cli/pkg/apk"
	"github.com/huanfeng/mia-cli/pkg/client"
	"github.com/huanfeng/mia-cli/pkg/definition"
	"github.com/huanfeng/mia-cli/pkg/lock"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/spf13/cobra"
)

var downloadVerify bool

var dlAppsCmd = &cobra.Command{
	Use:   "dl-apps <definition>",
	Short: "Download the apps of the lock file",
	Long: `Download every package of apps_lock.yaml into the definition, in the
directory named by the entry's path or user-apps. Run lock first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, settings, err := loadDefinition(cmd, args[0])
		if err != nil {
			return err
		}
		return downloadApps(s, settings, downloadVerify)
	},
}

var dlOSCmd = &cobra.Command{
	Use:   "dl-os <definition>",
	Short: "Show how to get the OS image of the definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, settings, err := loadDefinition(cmd, args[0])
		if err != nil {
			return err
		}
		return downloadOS(s, settings)
	},
}

var extractUpdateCmd = &cobra.Command{
	Use:   "extract-update <definition>",
	Short: "Copy the update-binary out of the OS image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, settings, err := loadDefinition(cmd, args[0])
		if err != nil {
			return err
		}
		return extractUpdate(s, settings)
	},
}

// downloadApps fetches the packages of the lock file
func downloadApps(s *session, settings *models.Settings, verify bool) error {
	fmt.Fprintf(s.out, "%s\n - %s\n\n", i18n.T("definition.download.lockFile"), s.ws.LockFile())
	lockFile, err := lock.ReadFile(s.ws.LockFile())
	if err != nil {
		return err
	}

	runner := client.NewDownloadRunner(s.fetcher(), s.out)
	runner.DefaultDir = s.config.Download.DefaultDir
	if verify {
		runner.Verify = packageVerifier(s, settings.General.CPU)
	}

	stats, err := runner.Run(s.ctx, lockFile, s.ws.DefinitionPath())
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "\n%s\n", stats.Summary())
	return nil
}

// packageVerifier checks downloaded packages against their lock entries
func packageVerifier(s *session, cpu string) client.Verifier {
	log := clog.FromContext(s.ctx)
	return func(path string, app models.ResolvedApp) error {
		code, ok := app.Code()
		if !apk.IsAPKFile(path) || !ok {
			log.Debug("skipping verification", "package", app.PackageName)
			return nil
		}

		info, err := apk.Verify(path, code)
		if err != nil {
			return err
		}
		if !info.SupportsABI(cpu) {
			log.Warn("package has no native code for the device cpu", "package", info.PackageID, "cpu", cpu, "abis", info.ABIs)
			fmt.Fprintf(s.out, "   - %s\n", i18n.T("definition.download.abiWarning", map[string]interface{}{"Package": info.PackageID, "CPU": cpu}))
		}
		fmt.Fprintf(s.out, "   - %s\n", i18n.T("definition.download.verified", map[string]interface{}{"Package": info.PackageID, "Code": info.VersionCode}))
		return nil
	}
}

// downloadOS explains where to get the OS image, then offers to extract
// the update-binary from it
func downloadOS(s *session, settings *models.Settings) error {
	image, err := definition.ImageFor(settings)
	if err != nil {
		return err
	}
	if err := s.ws.EnsureResources(); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%s\n - %s\n%s\n - %s\n - %s\n\n",
		i18n.T("definition.os.instructions"), image.FileName,
		i18n.T("definition.os.resources"), s.ws.ResourcesDir(),
		image.PageURL)

	if err := s.prompter.Pause(i18n.T("definition.os.pause")); err != nil {
		return err
	}

	ok, err := s.prompter.Confirm(i18n.T("definition.os.extractNow"), true)
	if err != nil || !ok {
		return err
	}
	return extractUpdate(s, settings)
}

func extractUpdate(s *session, settings *models.Settings) error {
	image, err := definition.ImageFor(settings)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n - %s\n", i18n.T("definition.extract.from"), image.Path(s.ws))

	dest, err := definition.ExtractUpdateBinary(s.ws, settings)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n - %s\n", i18n.T("definition.extract.saved"), dest)
	return nil
}

func init() {
	commands.register(definitionCmd, dlAppsCmd, "cmd.definition.dlApps")
	commands.register(definitionCmd, dlOSCmd, "cmd.definition.dlOS")
	commands.register(definitionCmd, extractUpdateCmd, "cmd.definition.extractUpdate")

	dlAppsCmd.Flags().BoolVar(&downloadVerify, "verify", false, "Check the version code of every downloaded APK")
}
