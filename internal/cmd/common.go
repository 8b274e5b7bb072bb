package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ndintenfass/fyaml/internal/assemble"
	"github.com/ndintenfass/fyaml/internal/config"
	"github.com/ndintenfass/fyaml/internal/diagnostic"
	"github.com/ndintenfass/fyaml/internal/explain"
	"github.com/ndintenfass/fyaml/internal/logger"
	"github.com/ndintenfass/fyaml/internal/pipeline"
)

// toDiagnosticJSON converts diagnostics to the --json schema spec §6
// specifies, for `validate --json` (a bare array). `explain --json` builds
// its own copies inside explain.BuildEnvelope.
func toDiagnosticJSON(diags []diagnostic.Diagnostic) []explain.DiagnosticJSON {
	out := make([]explain.DiagnosticJSON, len(diags))
	for i, d := range diags {
		dj := explain.DiagnosticJSON{
			Code: d.Code, Severity: d.Severity.String(), Message: d.Summary,
			Paths: d.Paths, DerivedKeyPath: d.DerivedKeyPath, Context: d.Context,
		}
		if d.Location != nil {
			dj.Location = &explain.LocationJSON{File: d.Location.File, Line: d.Location.Line, Column: d.Location.Column}
		}
		out[i] = dj
	}
	return out
}

// writeDiagnosticsJSON writes a bare JSON array of diagnostics, the
// `validate --json` shape from spec §6.
func writeDiagnosticsJSON(w io.Writer, diags []diagnostic.Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toDiagnosticJSON(diags))
}

// addPipelineFlags adds the flag set common to pack/validate/explain/diff,
// declared once and reused the way the teacher's NewValidateCommand and
// NewRunCommand each build their own cobra.Command.Flags() but share the
// same underlying config fields.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("root-mode", "", "map-root|seq-root|file-root (default map-root)")
	cmd.Flags().String("root-file", "", "root file path, required for --root-mode=file-root")
	cmd.Flags().String("merge-under", "", "key under which the directory mapping is merged into the root file (file-root only)")
	cmd.Flags().Bool("include-hidden", false, "include dotfiles/dot-directories")
	cmd.Flags().String("seq-gaps", "", "error|warn|allow (default warn)")
	cmd.Flags().String("multi-doc", "", "error|first|all (default error)")
	cmd.Flags().Bool("allow-dotted-keys", false, "silence the dotted-key warning")
	cmd.Flags().Bool("allow-reserved-keys", false, "accept reserved-word keys, force-quoted on emit")
	cmd.Flags().Bool("preserve", false, "preserve per-fragment key order, comments, and scalar styles")
	cmd.Flags().Bool("strict", false, "promote warnings to errors")
	cmd.Flags().Int64("max-yaml-bytes", 0, "reject any fragment larger than N bytes (0 = unlimited)")
	cmd.Flags().Bool("normalize-yaml11-bools", false, "canonicalize unquoted yes/no/on/off scalars to true/false")
	cmd.Flags().String("config", ".fyaml.yml", "path to the optional preferences file")
	cmd.Flags().Bool("log-file", false, "also write a timestamped run log under the configured log_dir")
}

// buildNarrator wires a console logger and, when --log-file is set, a
// second logger writing to a timestamped file under cfg.LogDir into one
// Narrator, mirroring the teacher's run.go "consoleLog+fileLog, fanned out
// through a multiLogger" wiring. The returned closer must be closed by the
// caller once the command is done narrating (a no-op when no file logger
// was created).
func buildNarrator(cmd *cobra.Command, cfg *config.Config, console *logger.ConsoleLogger) (logger.Narrator, io.Closer, error) {
	useFile, _ := cmd.Flags().GetBool("log-file")
	if !useFile {
		return console, nopCloser{}, nil
	}
	fileLog, err := logger.NewFileLogger(cfg.LogDir)
	if err != nil {
		return nil, nil, fmt.Errorf("create file logger: %w", err)
	}
	fileConsole := logger.NewConsoleLogger(fileLog, cfg.LogLevel)
	return logger.NewMultiLogger(console, fileConsole), fileLog, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// loadOptions merges .fyaml.yml (or the path named by --config) with the
// flags actually set on cmd, flags taking precedence, then resolves a
// pipeline.Options for rootDir — the same flags-over-file-over-defaults
// order the teacher's config.LoadConfigFromRootWithBuildTime plus
// per-command flag parsing establishes.
func loadOptions(cmd *cobra.Command, rootDir string) (*config.Config, pipeline.Options, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(filepath.Join(rootDir, configPath))
	if err != nil {
		return nil, pipeline.Options{}, fmt.Errorf("load config: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("root-mode") {
		cfg.RootMode, _ = f.GetString("root-mode")
	}
	if f.Changed("root-file") {
		cfg.RootFile, _ = f.GetString("root-file")
	}
	if f.Changed("merge-under") {
		cfg.MergeUnder, _ = f.GetString("merge-under")
	}
	if f.Changed("include-hidden") {
		cfg.IncludeHidden, _ = f.GetBool("include-hidden")
	}
	if f.Changed("seq-gaps") {
		cfg.SeqGaps, _ = f.GetString("seq-gaps")
	}
	if f.Changed("multi-doc") {
		cfg.MultiDoc, _ = f.GetString("multi-doc")
	}
	if f.Changed("allow-dotted-keys") {
		cfg.AllowDottedKeys, _ = f.GetBool("allow-dotted-keys")
	}
	if f.Changed("allow-reserved-keys") {
		cfg.AllowReservedKeys, _ = f.GetBool("allow-reserved-keys")
	}
	if f.Changed("preserve") {
		cfg.Preserve, _ = f.GetBool("preserve")
	}
	if f.Changed("strict") {
		cfg.Strict, _ = f.GetBool("strict")
	}
	if f.Changed("max-yaml-bytes") {
		cfg.MaxYAMLBytes, _ = f.GetInt64("max-yaml-bytes")
	}
	if f.Changed("normalize-yaml11-bools") {
		cfg.NormalizeYAML11Bools, _ = f.GetBool("normalize-yaml11-bools")
	}
	if f.Changed("format") {
		cfg.Format, _ = f.GetString("format")
	}
	if f.Changed("no-header") {
		cfg.NoHeader, _ = f.GetBool("no-header")
	}

	opts := pipeline.Options{RootDir: rootDir, Cfg: cfg}
	switch cfg.RootMode {
	case "seq-root":
		opts.RootMode = assemble.SeqRoot
	case "file-root":
		opts.RootMode = assemble.FileRoot
		if cfg.RootFile == "" {
			return nil, pipeline.Options{}, fmt.Errorf("--root-mode=file-root requires --root-file")
		}
		opts.RootFile = filepath.Join(rootDir, cfg.RootFile)
		opts.MergeUnder = cfg.MergeUnder
		opts.HasMergeKey = f.Changed("merge-under") || cfg.MergeUnder != ""
	default:
		opts.RootMode = assemble.MapRoot
	}

	return cfg, opts, nil
}
