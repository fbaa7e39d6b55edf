package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/huanfeng/mia-cli/pkg/repo"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the cached repository indexes",
	Long: `Repository indexes are downloaded once into the resources folder of the
workspace and reused by every lock. Use these commands to see and remove them.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cached repository indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		entries, err := repo.NewStore(s.ws.ResourcesDir(), nil, nil).Cached()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(s.out, "No cached repository indexes.")
			return nil
		}

		table := tablewriter.NewTable(s.out,
			tablewriter.WithHeader([]string{"Repository", "Size", "Updated", "Path"}),
		)
		for _, entry := range entries {
			_ = table.Append([]string{
				entry.RepositoryID,
				humanize.Bytes(uint64(entry.Size)),
				humanize.Time(entry.ModTime),
				entry.Path,
			})
		}
		return table.Render()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [repository...]",
	Short: "Remove cached repository indexes",
	Long: `Remove the cached indexes of the given repositories, or all of them. The
next lock downloads them again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			ok, err := s.prompter.Confirm("Remove every cached repository index?", false)
			if err != nil || !ok {
				return err
			}
		}

		removed, err := repo.NewStore(s.ws.ResourcesDir(), nil, nil).Clear(args...)
		for _, id := range removed {
			fmt.Fprintf(s.out, " - removed the %s index\n", id)
		}
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Fprintln(s.out, "Nothing to remove.")
		}
		return nil
	},
}

func init() {
	commands.register(rootCmd, cacheCmd, "cmd.cache")
	commands.register(cacheCmd, cacheListCmd, "cmd.cache.list")
	commands.register(cacheCmd, cacheClearCmd, "cmd.cache.clear")
}
