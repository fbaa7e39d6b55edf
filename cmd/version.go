package cmd

import (
	"fmt"

	"github.com/huanfeng/mia-cli/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display detailed version information about Mia CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

func init() {
	commands.register(rootCmd, versionCmd, "cmd.version")
}
