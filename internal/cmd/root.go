// Package cmd wires fyaml's cobra subcommands (pack, validate, explain,
// diff, scaffold) the way the teacher's internal/cmd wires conductor's:
// one NewXCommand() per subcommand returning a *cobra.Command, a thin
// RunE that delegates to a plain, testable function taking an io.Writer,
// and a NewRootCommand() that AddCommands them all.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags, mirroring the teacher's
// cmd.Version convention.
var Version = "dev"

// NewRootCommand builds the root fyaml command and wires every
// subcommand onto it.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fyaml",
		Short: "Pack a directory tree of YAML fragments into one canonical document",
		Long: `fyaml packs a directory tree of YAML fragments into a single canonical
YAML or JSON document. A directory becomes a mapping; a directory whose
contributing children are all non-negative integers becomes a sequence; a
file's stem becomes a key and its parsed YAML becomes the value.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(NewPackCommand())
	root.AddCommand(NewValidateCommand())
	root.AddCommand(NewExplainCommand())
	root.AddCommand(NewDiffCommand())
	root.AddCommand(NewScaffoldCommand())

	return root
}
