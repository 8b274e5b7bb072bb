package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndintenfass/fyaml/internal/assemble"
	"github.com/ndintenfass/fyaml/internal/emit"
	"github.com/ndintenfass/fyaml/internal/logger"
	"github.com/ndintenfass/fyaml/internal/pipeline"
)

// NewPackCommand creates the `pack` subcommand: scan, parse, assemble, and
// emit a directory of YAML fragments to stdout or -o PATH.
func NewPackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <directory>",
		Short: "Pack a directory of YAML fragments into one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			return runPack(cmd, args[0], out, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	addPipelineFlags(cmd)
	cmd.Flags().String("format", "yaml", "yaml|json")
	cmd.Flags().Bool("no-header", false, "omit the '# packed by fyaml vX.Y.Z' header comment")
	cmd.Flags().StringP("output", "o", "", "write the packed document to PATH instead of stdout")
	return cmd
}

func runPack(cmd *cobra.Command, rootDir, outputPath string, stdout io.Writer) error {
	cfg, opts, err := loadOptions(cmd, rootDir)
	if err != nil {
		return err
	}

	console := logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	narrator, closer, err := buildNarrator(cmd, cfg, console)
	if err != nil {
		return err
	}
	defer closer.Close()
	narrator.Info("scanning %s", rootDir)

	result, err := pipeline.Run(opts)
	if err != nil {
		return err
	}
	narrator.Info("parsed %d fragments", len(result.Fragments))

	dlog := logger.NewDiagnosticLogger(narrator)
	for _, d := range result.Sink.Sorted() {
		dlog.Log(d)
	}

	if result.Sink.HasErrors() {
		return exitError{code: result.ExitCode(), msg: "fyaml tree invalid"}
	}

	emitOpts := emit.Options{Version: Version, NoHeader: cfg.NoHeader}
	if cfg.Format == "json" {
		emitOpts.Format = emit.FormatJSON
	}
	if cfg.Preserve {
		emitOpts.Preserve = true
		emitOpts.FragmentNodes = assemble.CollectFragmentNodes(result.Root, result.Fragments)
	}

	if outputPath != "" {
		if err := emit.WriteFile(outputPath, result.Assembled, emitOpts); err != nil {
			return exitError{code: 5, msg: err.Error()}
		}
		narrator.Info("wrote %s", outputPath)
		return nil
	}
	return emit.Emit(stdout, result.Assembled, emitOpts)
}

// exitError carries a command-specific exit code up to main, following the
// teacher's pattern of returning a single summarizing error from a
// validate-style command rather than calling os.Exit directly from deep
// inside the pipeline.
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }

// ExitCode lets cmd/fyaml's main translate a returned error into a
// process exit code without type-asserting on an unexported field.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(exitError); ok {
		return ee.code
	}
	return 1
}
