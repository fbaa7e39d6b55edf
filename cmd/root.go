package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/huanfeng/mia-cli/internal/config"
	mierrors "github.com/huanfeng/mia-cli/internal/errors"
	"github.com/huanfeng/mia-cli/internal/i18n"
	"github.com/huanfeng/mia-cli/internal/prompt"
	"github.com/huanfeng/mia-cli/internal/version"
	"github.com/huanfeng/mia-cli/internal/workspace"
	"github.com/huanfeng/mia-cli/pkg/client"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	workspaceDir string
	verbose      bool
	langFlag     string
	assumeYes    bool
)

var rootCmd = &cobra.Command{
	Use:           "mia",
	Short:         "Mia CLI - build device definitions and download what they need",
	Long:          `Mia creates device definitions, locks the applications they declare against package repositories and downloads the OS image tools and application packages.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with status 1 on failure
func Execute() {
	if err := i18n.Init(scanLang(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	applyCommandLocalization()

	if err := rootCmd.Execute(); err != nil {
		miaErr := mierrors.Classify(err)
		if verbose {
			fmt.Fprint(os.Stderr, miaErr.FormatDetailed())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", miaErr)
			for _, suggestion := range miaErr.Suggestions {
				fmt.Fprintf(os.Stderr, "  - %s\n", suggestion)
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: mia.yaml in the workspace or ~/.config/mia)")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace directory holding definitions and resources")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "Interface language (en, zh)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every question")
}

// scanLang finds --lang before cobra parses flags, so help text is translated
func scanLang(args []string) string {
	for i, arg := range args {
		if value, ok := strings.CutPrefix(arg, "--lang="); ok {
			return value
		}
		if arg == "--lang" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("MIA_LANG")
}

// session carries what a command needs: configuration, the workspace and
// the terminal
type session struct {
	ctx      context.Context
	config   *models.Config
	ws       *workspace.Workspace
	prompter *prompt.Prompter
	out      io.Writer
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(configFile, workspaceDir)
	if err != nil {
		return nil, err
	}

	if cfg.Lang != "" && langFlag == "" && os.Getenv("MIA_LANG") == "" {
		if err := i18n.Init(cfg.Lang); err != nil {
			return nil, err
		}
	}

	logConfig := &utils.LoggerConfig{
		Level:  utils.ParseLogLevel(cfg.Log.Level),
		Format: utils.ParseLogFormat(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	}
	if verbose {
		logConfig.Level = utils.LogLevelDebug
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = utils.WithLogger(ctx, logConfig)
	clog.FromContext(ctx).Debug("configuration loaded", "workspace", cfg.Workspace, "templates", cfg.TemplatesDir)

	return &session{
		ctx:      ctx,
		config:   cfg,
		ws:       workspace.New(cfg.Workspace, cfg.TemplatesDir),
		prompter: prompt.New(cmd.InOrStdin(), cmd.OutOrStdout(), assumeYes),
		out:      cmd.OutOrStdout(),
	}, nil
}

// bind points the session at a definition
func (s *session) bind(name string) {
	s.ws = s.ws.WithDefinition(name)
}

func (s *session) fetcher() client.Fetcher {
	return client.NewHTTPFetcher(s.config.HTTP.Timeout, s.config.HTTP.UserAgent)
}
