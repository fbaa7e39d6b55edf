package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huanfeng/mia-cli/pkg/definition"
	"github.com/huanfeng/mia-cli/pkg/lock"
	"github.com/huanfeng/mia-cli/pkg/system"
	"github.com/spf13/cobra"
)

var (
	doctorMinFree string
	doctorOffline bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [definition]",
	Short: "Check the workspace and a definition for problems",
	Long: `The doctor command checks that the workspace can be written and has room
for OS images and packages. Given a definition it also checks its settings,
its lock file, the OS image in the resources folder and whether its
repositories answer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		minFree, err := humanize.ParseBytes(doctorMinFree)
		if err != nil {
			return fmt.Errorf("invalid --min-free value %q: %w", doctorMinFree, err)
		}

		report := &checkReport{out: s.out}
		fmt.Fprintln(s.out, "Mia workspace doctor")
		fmt.Fprintln(s.out, strings.Repeat("=", 50))

		fmt.Fprintln(s.out, "\nWorkspace:")
		checkWorkspace(s, report, minFree)

		if len(args) > 0 {
			if err := definition.ValidateName(args[0]); err != nil {
				return err
			}
			s.bind(args[0])
			fmt.Fprintf(s.out, "\nDefinition %s:\n", args[0])
			checkDefinition(s, report)
		}

		fmt.Fprintln(s.out, "\n"+strings.Repeat("=", 50))
		if len(report.issues) == 0 {
			fmt.Fprintln(s.out, "All checks passed.")
			return nil
		}

		fmt.Fprintf(s.out, "Found %d issue(s):\n", len(report.issues))
		for i, issue := range report.issues {
			fmt.Fprintf(s.out, "%d. %s\n", i+1, issue)
		}
		return fmt.Errorf("diagnostics found %d issue(s)", len(report.issues))
	},
}

// checkReport prints check results and collects the failures
type checkReport struct {
	out    io.Writer
	issues []string
}

func (r *checkReport) pass(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "   ✅ %s\n", fmt.Sprintf(format, args...))
}

func (r *checkReport) warn(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "   ⚠️  %s\n", fmt.Sprintf(format, args...))
}

func (r *checkReport) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.out, "   ❌ %s\n", msg)
	r.issues = append(r.issues, msg)
}

func checkWorkspace(s *session, r *checkReport, minFree uint64) {
	if err := system.CheckWritable(s.ws.Root); err != nil {
		r.fail("workspace %s: %v", s.ws.Root, err)
		return
	}
	r.pass("workspace %s is writable", s.ws.Root)

	for _, dir := range []string{s.ws.DefinitionsDir(), s.ws.ResourcesDir()} {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			r.warn("%s does not exist yet", dir)
			continue
		}
		if err := system.CheckWritable(dir); err != nil {
			r.fail("%s: %v", dir, err)
			continue
		}
		r.pass("%s is writable", dir)
	}

	usage, err := system.CheckDiskSpace(s.ws.Root, minFree)
	switch {
	case errors.Is(err, system.ErrLowDiskSpace):
		r.fail("disk space: %v", err)
	case err != nil:
		r.warn("disk space unknown: %v", err)
	default:
		r.pass("disk space: %s", usage)
	}
}

func checkDefinition(s *session, r *checkReport) {
	settings, err := definition.Load(s.ws)
	if err != nil {
		r.fail("settings: %v", err)
		return
	}
	r.pass("settings %s", s.ws.SettingsFile())

	if settings.Defaults.RepositoryID == "" {
		r.fail("settings: %v", lock.ErrMissingDefaultRepository)
	} else if _, ok := settings.RepositoryMap()[settings.Defaults.RepositoryID]; !ok {
		r.fail("settings: default repository %q is not declared", settings.Defaults.RepositoryID)
	} else {
		r.pass("default repository %s", settings.Defaults.RepositoryID)
	}

	if lockFile, err := lock.ReadFile(s.ws.LockFile()); err != nil {
		r.warn("lock file: %v", err)
	} else {
		r.pass("lock file with %d app(s)", lockFile.Count())
	}

	if image, err := definition.ImageFor(settings); err != nil {
		r.warn("OS image: %v", err)
	} else if _, err := os.Stat(image.Path(s.ws)); err != nil {
		r.warn("OS image %s is not in the resources folder", image.FileName)
	} else {
		r.pass("OS image %s", image.FileName)
	}

	if doctorOffline {
		return
	}
	for _, status := range system.ProbeRepositories(s.ctx, s.fetcher(), settings.Repositories, 15*time.Second) {
		if status.Reachable() {
			r.pass("repository %s answered in %v", status.ID, status.Latency.Round(time.Millisecond))
		} else {
			r.fail("repository %s (%s): %v", status.ID, status.URL, status.Err)
		}
	}
}

func init() {
	commands.register(rootCmd, doctorCmd, "cmd.doctor")

	doctorCmd.Flags().StringVar(&doctorMinFree, "min-free", "1GB", "Minimum free space required in the workspace")
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "Skip the repository checks")
}
