package cmd

import "github.com/huanfeng/mia-cli/internal/i18n"

// applyCommandLocalization updates command and flag descriptions after i18n is initialized.
func applyCommandLocalization() {
	rootCmd.Short = i18n.T("cmd.root.short")
	rootCmd.Long = i18n.T("cmd.root.long")
	helpCmd.Short = i18n.T("cmd.help.short")

	for name, id := range map[string]string{
		"config":    "flags.config",
		"workspace": "flags.workspace",
		"verbose":   "flags.verbose",
		"lang":      "flags.lang",
		"yes":       "flags.yes",
	} {
		if flag := rootCmd.PersistentFlags().Lookup(name); flag != nil {
			flag.Usage = i18n.T(id)
		}
	}

	commands.localize()
}
