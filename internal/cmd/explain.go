package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/ndintenfass/fyaml/internal/explain"
	"github.com/ndintenfass/fyaml/internal/pipeline"
	"github.com/ndintenfass/fyaml/internal/scan"
	"github.com/ndintenfass/fyaml/internal/value"
)

// NewExplainCommand creates the `explain` subcommand (spec §4.5): an
// annotated trace of every scan/assemble decision and every ignored entry.
func NewExplainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <directory>",
		Short: "Print an annotated trace of scan and assemble decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return runExplain(cmd, args[0], asJSON, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	addPipelineFlags(cmd)
	cmd.Flags().Bool("json", false, "emit the trace as a structured JSON envelope")
	return cmd
}

func runExplain(cmd *cobra.Command, rootDir string, asJSON bool, out io.Writer) error {
	_, opts, err := loadOptions(cmd, rootDir)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(opts)
	if err != nil {
		return err
	}

	shapes := map[string]string{}
	for n, res := range result.Fragments {
		shapes[n.Path] = res.Value.Kind.String()
	}
	shapeOf := func(path string) string {
		if s, ok := shapes[path]; ok {
			return s
		}
		return value.KindNull.String()
	}

	modeOf := func(dir *scan.Node) (explain.Mode, string) {
		return modeDecision(dir)
	}

	trace := explain.Build(result.RunID, result.Root, shapeOf, modeOf, result.Sink)

	if asJSON {
		env := explain.BuildEnvelope(trace)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}
	explain.RenderText(out, trace)
	return nil
}

// modeDecision re-derives the same allNumeric/allNonNumeric/mixed decision
// internal/assemble.foldDir makes, purely for explain's narration — it
// does not affect the assembled Value, only the trace's reason text.
func modeDecision(dir *scan.Node) (explain.Mode, string) {
	if len(dir.Children) == 0 {
		return explain.ModeMap, "empty directory folds to an empty mapping"
	}
	allNumeric, allNonNumeric := true, true
	for _, c := range dir.Children {
		if c.IsNumeric {
			allNonNumeric = false
		} else {
			allNumeric = false
		}
	}
	switch {
	case allNumeric:
		return explain.ModeSeq, "every child key is numeric"
	case allNonNumeric:
		return explain.ModeMap, "every child key is non-numeric"
	default:
		return explain.ModeMap, "mixed numeric/non-numeric keys (assemble reports E050)"
	}
}
