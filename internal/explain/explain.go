// Package explain implements the explain driver (spec §4.5): it walks the
// ScanTree and the assembled Value together and renders a structured trace
// of every decision the scanner and assembler made, plus every ignored
// entry. Text-mode rendering uses the same color/width-aware terminal
// idiom the teacher's internal/logger and internal/display use for
// aligned, colorized console output (go-runewidth for column alignment,
// golang.org/x/term for wrap width).
package explain

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/ndintenfass/fyaml/internal/diagnostic"
	"github.com/ndintenfass/fyaml/internal/scan"
)

// Mode names the fold decision the assembler made for one directory.
type Mode string

const (
	ModeMap Mode = "map"
	ModeSeq Mode = "seq"
)

// FileTrace records one contributing file's derived key path and the
// top-level shape of its parsed value.
type FileTrace struct {
	KeyPath []string
	Path    string
	Shape   string // "null", "bool", "int", "float", "string", "sequence", "mapping"
}

// DirTrace records one directory's fold decision.
type DirTrace struct {
	KeyPath []string
	Path    string
	Mode    Mode
	Reason  string
}

// IgnoredTrace mirrors one scan.IgnoredEntry for the trace output.
type IgnoredTrace struct {
	Path   string
	RuleID string
}

// Trace is the full structured explain output: every contributing file,
// every directory's mode decision, and every ignored entry — spec
// invariant 6 (ignored-entry completeness) requires every filesystem entry
// to show up in exactly one of these three lists or the assembled Value.
type Trace struct {
	RunID       string
	Files       []FileTrace
	Dirs        []DirTrace
	Ignored     []IgnoredTrace
	Diagnostics []diagnostic.Diagnostic
}

// Build walks root and its shapes/parse-results into a Trace. shapeOf
// returns the top-level Kind.String() for the file at path (the caller
// supplies this instead of importing internal/fragment directly, keeping
// this package's dependency surface to the scan tree and diagnostics it
// actually needs).
func Build(runID string, root *scan.Node, shapeOf func(path string) string, modeOf func(dir *scan.Node) (Mode, string), sink *diagnostic.Sink) Trace {
	t := Trace{RunID: runID, Diagnostics: sink.Sorted()}
	walk(root, nil, shapeOf, modeOf, &t)
	return t
}

func walk(n *scan.Node, keyPath []string, shapeOf func(string) string, modeOf func(*scan.Node) (Mode, string), t *Trace) {
	if n.Kind == scan.KindFile {
		t.Files = append(t.Files, FileTrace{
			KeyPath: append(append([]string{}, keyPath...), n.DerivedKey),
			Path:    n.Path,
			Shape:   shapeOf(n.Path),
		})
		return
	}

	for _, ig := range n.Ignored {
		t.Ignored = append(t.Ignored, IgnoredTrace{Path: ig.Path, RuleID: ig.RuleID})
	}

	mode, reason := modeOf(n)
	dirPath := append([]string{}, keyPath...)
	if n.DerivedKey != "" {
		dirPath = append(dirPath, n.DerivedKey)
	}
	t.Dirs = append(t.Dirs, DirTrace{KeyPath: dirPath, Path: n.Path, Mode: mode, Reason: reason})

	for _, c := range n.Children {
		walk(c, dirPath, shapeOf, modeOf, t)
	}
}

// RenderText writes a human-readable, colorized, width-aware rendering of
// t to w: a nested key tree for directories and files, an ignored-entry
// table, and the diagnostic list, matching the teacher's column-alignment
// approach (go-runewidth sizing padded cells, x/term supplying the
// terminal width that caps label padding and truncates long ignored
// paths). Diagnostic summaries are printed on one line each, unwrapped.
func RenderText(w io.Writer, t Trace) {
	width := 100
	if fw, ok := w.(interface{ Fd() uintptr }); ok {
		if tw, _, err := term.GetSize(int(fw.Fd())); err == nil && tw > 0 {
			width = tw
		}
	}

	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s run=%s\n", bold("explain"), t.RunID)

	fmt.Fprintln(w, bold("directories:"))
	for _, d := range t.Dirs {
		label := strings.Join(d.KeyPath, ".")
		if label == "" {
			label = "(root)"
		}
		pad := runewidth.StringWidth(label)
		if pad > width-20 {
			pad = width - 20
		}
		fmt.Fprintf(w, "  %-*s %s  %s\n", max(20, pad), label, string(d.Mode), dim(d.Reason))
	}

	fmt.Fprintln(w, bold("files:"))
	for _, f := range t.Files {
		fmt.Fprintf(w, "  %-40s %s\n", strings.Join(f.KeyPath, "."), f.Shape)
	}

	if len(t.Ignored) > 0 {
		fmt.Fprintln(w, bold("ignored:"))
		for _, ig := range t.Ignored {
			fmt.Fprintf(w, "  %-60s %s\n", truncate(ig.Path, width-10), ig.RuleID)
		}
	}

	if len(t.Diagnostics) > 0 {
		fmt.Fprintln(w, bold("diagnostics:"))
		for _, d := range t.Diagnostics {
			fmt.Fprintf(w, "  %s %s: %s\n", d.Severity, d.Code, d.Summary)
		}
	}
}

func truncate(s string, n int) string {
	if n <= 1 || runewidth.StringWidth(s) <= n {
		return s
	}
	return runewidth.Truncate(s, n-1, "…")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ModeDecisionJSON, IgnoredJSON and KeyTreeEntryJSON back `explain --json`'s structured
// envelope; kept as plain data builders here so internal/cmd only needs to
// marshal them, matching the JSON schema in spec §6.
type ModeDecisionJSON struct {
	Path   string `json:"path"`
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

type IgnoredJSON struct {
	Path   string `json:"path"`
	RuleID string `json:"rule_id"`
}

type KeyTreeEntryJSON struct {
	KeyPath []string `json:"key_path"`
	Shape   string   `json:"shape"`
}

// Envelope is the top-level `explain --json` document: a diagnostic list
// plus the structured key_tree/ignored/mode_decisions spec §6 names.
type Envelope struct {
	RunID          string                `json:"run_id"`
	Diagnostics    []DiagnosticJSON      `json:"diagnostics"`
	KeyTree        []KeyTreeEntryJSON    `json:"key_tree"`
	Ignored        []IgnoredJSON         `json:"ignored"`
	ModeDecisions  []ModeDecisionJSON    `json:"mode_decisions"`
}

// DiagnosticJSON mirrors the `--json` schema spec §6 specifies.
type DiagnosticJSON struct {
	Code           string            `json:"code"`
	Severity       string            `json:"severity"`
	Message        string            `json:"message"`
	Paths          []string          `json:"paths,omitempty"`
	DerivedKeyPath []string          `json:"derived_key_path,omitempty"`
	Location       *LocationJSON     `json:"location,omitempty"`
	Context        map[string]string `json:"context,omitempty"`
}

type LocationJSON struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"col"`
}

// BuildEnvelope converts a Trace into the JSON-ready Envelope.
func BuildEnvelope(t Trace) Envelope {
	env := Envelope{RunID: t.RunID}
	for _, d := range t.Diagnostics {
		dj := DiagnosticJSON{
			Code: d.Code, Severity: d.Severity.String(), Message: d.Summary,
			Paths: d.Paths, DerivedKeyPath: d.DerivedKeyPath, Context: d.Context,
		}
		if d.Location != nil {
			dj.Location = &LocationJSON{File: d.Location.File, Line: d.Location.Line, Column: d.Location.Column}
		}
		env.Diagnostics = append(env.Diagnostics, dj)
	}
	for _, f := range t.Files {
		env.KeyTree = append(env.KeyTree, KeyTreeEntryJSON{KeyPath: f.KeyPath, Shape: f.Shape})
	}
	for _, ig := range t.Ignored {
		env.Ignored = append(env.Ignored, IgnoredJSON{Path: ig.Path, RuleID: ig.RuleID})
	}
	for _, d := range t.Dirs {
		env.ModeDecisions = append(env.ModeDecisions, ModeDecisionJSON{
			Path: strings.Join(d.KeyPath, "."), Mode: string(d.Mode), Reason: d.Reason,
		})
	}
	sort.SliceStable(env.KeyTree, func(i, j int) bool {
		return strings.Join(env.KeyTree[i].KeyPath, ".") < strings.Join(env.KeyTree[j].KeyPath, ".")
	})
	return env
}
