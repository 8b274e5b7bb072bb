package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ndintenfass/fyaml/internal/diff"
	"github.com/ndintenfass/fyaml/internal/pipeline"
)

// NewDiffCommand creates the `diff` subcommand (spec §4.6): runs the
// pipeline twice (separate diagnostic sinks) and performs a structural,
// semantic comparison of the two assembled documents.
func NewDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <directory-a> <directory-b>",
		Short: "Semantically compare the packed documents of two directories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return runDiff(cmd, args[0], args[1], format, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	addPipelineFlags(cmd)
	cmd.Flags().String("format", "path", "path|json")
	return cmd
}

func runDiff(cmd *cobra.Command, dirA, dirB, format string, out io.Writer) error {
	_, optsA, err := loadOptions(cmd, dirA)
	if err != nil {
		return err
	}
	_, optsB, err := loadOptions(cmd, dirB)
	if err != nil {
		return err
	}

	resultA, err := pipeline.Run(optsA)
	if err != nil {
		return err
	}
	resultB, err := pipeline.Run(optsB)
	if err != nil {
		return err
	}

	if resultA.Sink.HasErrors() {
		return exitError{code: resultA.ExitCode(), msg: fmt.Sprintf("%s: fyaml tree invalid", dirA)}
	}
	if resultB.Sink.HasErrors() {
		return exitError{code: resultB.ExitCode(), msg: fmt.Sprintf("%s: fyaml tree invalid", dirB)}
	}

	diffs := diff.Compare(resultA.Assembled, resultB.Assembled)

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diff.ToJSON(diffs)); err != nil {
			return err
		}
	} else {
		for _, d := range diffs {
			fmt.Fprintln(out, d.String())
		}
	}

	if len(diffs) > 0 {
		return exitError{code: 6, msg: "inputs differ semantically"}
	}
	return nil
}
