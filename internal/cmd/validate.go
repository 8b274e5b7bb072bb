package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ndintenfass/fyaml/internal/logger"
	"github.com/ndintenfass/fyaml/internal/pipeline"
)

// NewValidateCommand creates the `validate` subcommand: runs scan + parse +
// assemble without emission and reports the same diagnostic set `pack`
// would produce — spec invariant 5, "validate(I) succeeds iff pack(I)
// would succeed".
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <directory>",
		Short: "Validate a directory of YAML fragments without emitting output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return runValidate(cmd, args[0], asJSON, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	addPipelineFlags(cmd)
	cmd.Flags().Bool("json", false, "emit the diagnostic list as JSON")
	return cmd
}

func runValidate(cmd *cobra.Command, rootDir string, asJSON bool, out io.Writer) error {
	cfg, opts, err := loadOptions(cmd, rootDir)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(opts)
	if err != nil {
		return err
	}

	diags := result.Sink.Sorted()
	if asJSON {
		if err := writeDiagnosticsJSON(out, diags); err != nil {
			return err
		}
	} else {
		console := logger.NewConsoleLogger(out, "info")
		narrator, closer, err := buildNarrator(cmd, cfg, console)
		if err != nil {
			return err
		}
		defer closer.Close()
		dlog := logger.NewDiagnosticLogger(narrator)
		for _, d := range diags {
			dlog.Log(d)
		}
		if len(diags) == 0 {
			fmt.Fprintln(out, "valid")
		}
	}

	if result.Sink.HasErrors() {
		return exitError{code: result.ExitCode(), msg: "fyaml tree invalid"}
	}
	return nil
}
