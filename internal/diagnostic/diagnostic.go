// Package diagnostic defines the Diagnostic record threaded through every
// stage of the scan/parse/assemble/emit pipeline, and the Sink that
// collects them the way the teacher's dependency-graph validation collects
// every problem it finds instead of aborting on the first one.
package diagnostic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Severity classifies how serious a Diagnostic is. Warn is promoted to
// Error when the pipeline runs with --strict.
type Severity int

const (
	Info Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Location pinpoints a diagnostic inside a specific source file, when one
// is known (parse errors always have one; scan/assemble diagnostics often
// do not, since they concern a whole directory or a pair of paths).
type Location struct {
	File   string
	Line   int
	Column int
}

// Diagnostic is the single record type every pipeline stage emits. It is
// intentionally flat: no stage needs to know about any other stage's
// internal types, so Paths and Context carry whatever extra detail a
// particular code needs as plain strings.
type Diagnostic struct {
	Code           string
	Severity       Severity
	Summary        string
	Cause          string
	Action         string
	Paths          []string
	Location       *Location
	DerivedKeyPath []string
	Context        map[string]string
}

// Error satisfies the error interface so a Diagnostic can be returned or
// wrapped directly by callers that only care about a single failure.
func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Code)
	b.WriteString(": ")
	b.WriteString(d.Summary)
	if len(d.Paths) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(d.Paths, ", "))
		b.WriteString(")")
	}
	if d.Location != nil {
		fmt.Fprintf(&b, " at %s:%d:%d", d.Location.File, d.Location.Line, d.Location.Column)
	}
	return b.String()
}

// category and exitCode implement the taxonomy table: code prefix ->
// category -> exit code. Codes outside any listed range fall back to the
// internal/unexpected exit code.
type category struct {
	name string
	exit int
}

var ranges = []struct {
	lo, hi int
	cat    category
}{
	{1, 9, category{"collision", 2}},
	{10, 19, category{"key_validity", 2}},
	{20, 29, category{"yaml_parse", 3}},
	{30, 39, category{"multi_document", 3}},
	{40, 49, category{"sequence_structure", 2}},
	{50, 59, category{"assemble", 2}},
	{100, 119, category{"io", 2}},
}

// categoryFor extracts the numeric suffix from a code like "E040" and
// returns its category name and exit code. Codes shorter than two
// characters, codes whose text after the first character is not a number,
// and numbers outside every listed range are treated as
// internal/unexpected (exit 1).
func categoryFor(code string) category {
	if len(code) < 2 {
		return category{"internal", 1}
	}
	n, err := strconv.Atoi(code[1:])
	if err != nil {
		return category{"internal", 1}
	}
	for _, r := range ranges {
		if n >= r.lo && n <= r.hi {
			return r.cat
		}
	}
	return category{"internal", 1}
}

// ExitCode returns the exit code this diagnostic's code belongs to,
// per the taxonomy table. Output-write failures are not coded in the
// taxonomy range (internal/cmd's pack turns an emit.WriteFile error into
// exit 5 directly) and are not handled here.
func (d Diagnostic) ExitCode() int {
	return categoryFor(d.Code).exit
}

// Category returns the human-readable taxonomy bucket ("collision",
// "yaml_parse", etc.) for this diagnostic's code.
func (d Diagnostic) Category() string {
	return categoryFor(d.Code).name
}

// Sink collects diagnostics from every pipeline stage without ever
// aborting early, mirroring the "accumulate every problem, decide at the
// end" idiom the teacher uses for wave/dependency validation. It is safe
// for concurrent use because the scanner may walk sibling directories
// concurrently in future revisions; today's pipeline is sequential but the
// mutex costs nothing material.
type Sink struct {
	mu     sync.Mutex
	items  []Diagnostic
	strict bool
}

// NewSink builds an empty Sink. When strict is true, Warn-severity
// diagnostics are promoted to Error as they're added, per spec --strict.
func NewSink(strict bool) *Sink {
	return &Sink{strict: strict}
}

// Add records a diagnostic, promoting Warn to Error if the sink is strict.
func (s *Sink) Add(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strict && d.Severity == Warn {
		d.Severity = Error
	}
	s.items = append(s.items, d)
}

// Addf is a convenience for building a Diagnostic inline.
func (s *Sink) Addf(code string, sev Severity, summary string, paths ...string) {
	s.Add(Diagnostic{Code: code, Severity: sev, Summary: summary, Paths: paths})
}

// All returns a snapshot of every diagnostic recorded so far, in the order
// added.
func (s *Sink) All() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// HasErrors reports whether any Error-severity diagnostic has been
// recorded.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// ExitCode computes the process exit code for everything recorded so far,
// per spec §7's precedence rule: "3 > 5 > 2 > 1" among the codes actually
// present. 5 (output write error) is never produced by diagnostics in the
// sink itself — internal/cmd's pack returns it directly — so in practice this
// resolves among 3, 2, and 1, defaulting to 0 when there are no errors.
func (s *Sink) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := map[int]bool{}
	for _, d := range s.items {
		if d.Severity == Error {
			present[d.ExitCode()] = true
		}
	}
	for _, candidate := range []int{3, 5, 2, 1} {
		if present[candidate] {
			return candidate
		}
	}
	return 0
}

// Sorted returns every recorded diagnostic ordered first by severity
// (Error, then Warn, then Info) and then by code, the presentation order
// explain and validate output expects.
func (s *Sink) Sorted() []Diagnostic {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Len reports how many diagnostics have been recorded.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
