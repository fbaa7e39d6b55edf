package cmd

import (
	"fmt"

	"github.com/huanfeng/mia-cli/internal/i18n"
	"github.com/huanfeng/mia-cli/pkg/definition"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/spf13/cobra"
)

var (
	createTemplate string
	createCPU      string
	createForce    bool

	configureCodename       string
	configureReleaseType    string
	configureReleaseVersion string
)

var definitionCmd = &cobra.Command{
	Use:     "definition",
	Aliases: []string{"def"},
	Short:   "Create and maintain device definitions",
	Long: `A definition is a directory under definitions/ holding a settings.yaml
that declares the device, the OS release and the applications to install.`,
}

var createCmd = &cobra.Command{
	Use:   "create [definition]",
	Short: "Create a definition from a template",
	Long: `Create a new definition from a template. Without a name you are asked
for one. The name must start with a lowercase letter followed by lowercase
letters, digits or dashes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			name, err = s.prompter.Ask(i18n.T("definition.create.askName"), "", definition.ValidateName)
			if err != nil {
				return err
			}
		}
		if err := definition.ValidateName(name); err != nil {
			return err
		}
		s.bind(name)

		opts := definition.Options{
			Template: createTemplate,
			CPU:      createCPU,
			Force:    createForce,
		}
		if opts.Template == "" {
			opts.Template = s.config.DefaultTemplate
		}
		if opts.CPU == "" {
			opts.CPU = s.config.DefaultCPU
		}

		fmt.Fprintf(s.out, "%s\n - %s\n\n", i18n.T("definition.create.destination"), s.ws.DefinitionPath())
		if opts.Force && s.ws.DefinitionExists() {
			fmt.Fprintln(s.out, i18n.T("definition.create.removing"))
		}

		location, err := definition.Scaffold(s.ws, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s\n - %s\n\n", i18n.T("definition.create.template"), location)

		ok, err := s.prompter.Confirm(i18n.T("definition.create.configureNow"), true)
		if err != nil || !ok {
			return err
		}
		fmt.Fprintln(s.out)
		return configureDefinition(s)
	},
}

var configureCmd = &cobra.Command{
	Use:   "configure <definition>",
	Short: "Set the device and OS release of a definition",
	Long: `Record the device codename, release type and release version in the
definition settings (the previous file is kept as settings.orig.yaml), then
lock the applications and offer to download the OS image and the apps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := definition.ValidateName(args[0]); err != nil {
			return err
		}
		s.bind(args[0])
		return configureDefinition(s)
	},
}

// configureDefinition asks for the device information missing from the
// flags, then runs the rest of the setup chain
func configureDefinition(s *session) error {
	current, err := definition.Load(s.ws)
	if err != nil {
		return err
	}
	info := definition.DeviceInfoFrom(current.General)

	questions := []struct {
		flag     string
		question string
		value    *string
	}{
		{configureCodename, i18n.T("definition.configure.codename"), &info.Codename},
		{configureReleaseType, i18n.T("definition.configure.releaseType"), &info.ReleaseType},
		{configureReleaseVersion, i18n.T("definition.configure.releaseVersion"), &info.ReleaseVersion},
	}
	for _, q := range questions {
		if q.flag != "" {
			*q.value = q.flag
		} else {
			answer, err := s.prompter.Ask(q.question, *q.value, nil)
			if err != nil {
				return err
			}
			*q.value = answer
		}
		fmt.Fprintf(s.out, "%s: %s\n", q.question, *q.value)
	}
	fmt.Fprintln(s.out)

	if err := definition.Configure(s.ws, info); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n - %s\n\n", i18n.T("definition.configure.saved"), s.ws.SettingsFile())

	settings, err := definition.Load(s.ws)
	if err != nil {
		return err
	}
	if err := lockApps(s, settings, false); err != nil {
		return err
	}

	if ok, err := s.prompter.Confirm(i18n.T("definition.configure.downloadOS"), true); err != nil {
		return err
	} else if ok {
		if err := downloadOS(s, settings); err != nil {
			return err
		}
	}

	if ok, err := s.prompter.Confirm(i18n.T("definition.configure.downloadApps"), true); err != nil {
		return err
	} else if ok {
		return downloadApps(s, settings, false)
	}
	return nil
}

// loadDefinition binds the session and reads the definition settings
func loadDefinition(cmd *cobra.Command, name string) (*session, *models.Settings, error) {
	s, err := newSession(cmd)
	if err != nil {
		return nil, nil, err
	}
	s.bind(name)

	settings, err := definition.Load(s.ws)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(s.out, "%s\n - %s\n\n", i18n.T("definition.settingsFile"), s.ws.SettingsFile())
	return s, settings, nil
}

func init() {
	commands.register(rootCmd, definitionCmd, "cmd.definition")
	commands.register(definitionCmd, createCmd, "cmd.definition.create")
	commands.register(definitionCmd, configureCmd, "cmd.definition.configure")

	createCmd.Flags().StringVarP(&createTemplate, "template", "t", "", "Template to use (default: mia-default)")
	createCmd.Flags().StringVar(&createCPU, "cpu", "", "Device CPU architecture (default: armeabi)")
	createCmd.Flags().BoolVarP(&createForce, "force", "f", false, "Replace an existing definition")

	for _, c := range []*cobra.Command{createCmd, configureCmd} {
		c.Flags().StringVar(&configureCodename, "codename", "", "Device codename, e.g. mako")
		c.Flags().StringVar(&configureReleaseType, "release-type", "", "OS release type, e.g. snapshot")
		c.Flags().StringVar(&configureReleaseVersion, "release-version", "", "OS release version, e.g. M12")
	}
}
