package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewScaffoldCommand creates the `scaffold` subcommand. The scaffold
// generator is explicitly out of scope for this core per spec.md §1
// ("Deliberately out of scope ... the scaffold generator"), so it is
// represented only as a documented-but-unimplemented stub, the same way
// the teacher's own CLI sometimes carries a command through a transition
// before its implementation lands.
func NewScaffoldCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scaffold <directory>",
		Short: "Generate a starter fragment tree (not yet implemented)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("scaffold: not yet implemented")
		},
		SilenceUsage: true,
	}
}
