package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/huanfeng/mia-cli/internal/i18n"
	"github.com/spf13/cobra"
)

// entry is a command known to help, keyed by its full path below mia
type entry struct {
	name    string
	command *cobra.Command
	shortID string
	longID  string
}

type registry struct {
	entries map[string]*entry
}

// commands is filled by the init functions of the command files
var commands = &registry{entries: make(map[string]*entry)}

// register adds cmd under parent and records it for help lookups. The
// message IDs are "<id>.short" and "<id>.long".
func (r *registry) register(parent, cmd *cobra.Command, id string) {
	parent.AddCommand(cmd)

	name := cmd.Name()
	if parent != rootCmd {
		name = parent.Name() + " " + name
	}
	r.entries[name] = &entry{
		name:    name,
		command: cmd,
		shortID: id + ".short",
		longID:  id + ".long",
	}
}

// lookup finds a command by the words following "mia"
func (r *registry) lookup(words []string) (*entry, bool) {
	e, ok := r.entries[strings.Join(words, " ")]
	return e, ok
}

func (r *registry) names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// localize translates the descriptions of every registered command
func (r *registry) localize() {
	for _, e := range r.entries {
		if msg := i18n.T(e.shortID); msg != e.shortID {
			e.command.Short = msg
		}
		if msg := i18n.T(e.longID); msg != e.longID {
			e.command.Long = msg
		}
	}
}

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show help for a command",
	Long:  `Show the usage of a command, for example: mia help definition lock`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return rootCmd.Help()
		}

		e, ok := commands.lookup(args)
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("help.unknown", map[string]interface{}{"Command": strings.Join(args, " ")}))
			for _, name := range commands.names() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return fmt.Errorf("unknown command %q", strings.Join(args, " "))
		}
		e.command.SetOut(cmd.OutOrStdout())
		defer e.command.SetOut(nil)
		return e.command.Help()
	},
}

func init() {
	rootCmd.SetHelpCommand(helpCmd)
}
