package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huanfeng/mia-cli/internal/i18n"
	"github.com/huanfeng/mia-cli/pkg/lock"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/repo"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var (
	lockForceLatest bool
	lockRefresh     bool
)

var lockCmd = &cobra.Command{
	Use:   "lock <definition>",
	Short: "Resolve the definition apps into an apps lock file",
	Long: `Look up every app of the definition settings in its repository (and that
repository's fallback) and write the chosen packages to apps_lock.yaml,
then offer to download them.
Repository indexes are cached in the resources folder; use --refresh to
fetch them again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, settings, err := loadDefinition(cmd, args[0])
		if err != nil {
			return err
		}
		if err := lockApps(s, settings, lockForceLatest); err != nil {
			return err
		}

		ok, err := s.prompter.Confirm(i18n.T("definition.configure.downloadApps"), true)
		if err != nil || !ok {
			return err
		}
		return downloadApps(s, settings, false)
	},
}

// lockApps resolves the definition apps and saves the lock file
func lockApps(s *session, settings *models.Settings, forceLatest bool) error {
	if err := s.ws.EnsureResources(); err != nil {
		return err
	}

	store := repo.NewStore(s.ws.ResourcesDir(), s.fetcher(), s.out)
	if lockRefresh {
		for _, repository := range settings.Repositories {
			if err := store.Refresh(repository.ID); err != nil {
				return err
			}
		}
	}

	resolver := lock.NewResolver(store, s.out)
	outcome, err := resolver.Resolve(s.ctx, settings.Apps, settings.RepositoryMap(), settings.Defaults.RepositoryID, forceLatest)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out)

	renderLockTable(s.out, outcome.Apps)

	if err := outcome.Gate(s.prompter); err != nil {
		return err
	}

	if err := lock.Save(s.ws.LockFile(), outcome.Apps); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n - %s\n\n", i18n.T("definition.lock.saved", map[string]interface{}{"count": len(outcome.Apps)}), s.ws.LockFile())
	return nil
}

// renderLockTable prints the resolved apps
func renderLockTable(w io.Writer, apps []models.ResolvedApp) {
	if len(apps) == 0 {
		fmt.Fprintln(w, i18n.T("definition.lock.empty"))
		return
	}

	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader([]string{
			i18n.T("definition.lock.column.name"),
			i18n.T("definition.lock.column.repository"),
			i18n.T("definition.lock.column.package"),
			i18n.T("definition.lock.column.code"),
		}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleLight),
		}),
	)

	for _, app := range apps {
		repository := app.RepositoryID
		if repository == "" {
			repository = "-"
		}
		code := "-"
		if c, ok := app.Code(); ok {
			code = strconv.Itoa(c)
		}
		_ = table.Append([]string{app.Name, repository, app.PackageName, code})
	}
	_ = table.Render()
	fmt.Fprintln(w)
}

func init() {
	commands.register(definitionCmd, lockCmd, "cmd.definition.lock")

	lockCmd.Flags().BoolVar(&lockForceLatest, "force-latest", false, "Ignore pinned version codes and take the latest packages")
	lockCmd.Flags().BoolVar(&lockRefresh, "refresh", false, "Fetch the repository indexes again")
}
