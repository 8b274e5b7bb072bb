package logger

import (
	"strings"

	"github.com/ndintenfass/fyaml/internal/diagnostic"
)

// DiagnosticDisplay is the narrow interface DiagnosticLogger needs from a
// diagnostic.Diagnostic, kept separate from the concrete type the way the
// teacher's ErrorPatternDisplay/GuardResultDisplay interfaces decouple
// internal/logger from internal/executor's concrete result types.
type DiagnosticDisplay interface {
	GetCode() string
	GetSeverity() diagnostic.Severity
	GetSummary() string
	GetPaths() []string
}

// diagnosticAdapter lets a diagnostic.Diagnostic value satisfy
// DiagnosticDisplay without internal/diagnostic importing internal/logger.
type diagnosticAdapter struct{ d diagnostic.Diagnostic }

func (a diagnosticAdapter) GetCode() string                 { return a.d.Code }
func (a diagnosticAdapter) GetSeverity() diagnostic.Severity { return a.d.Severity }
func (a diagnosticAdapter) GetSummary() string               { return a.d.Summary }
func (a diagnosticAdapter) GetPaths() []string               { return a.d.Paths }

// Narrator is the narrow logging surface DiagnosticLogger needs: plain
// level-tagged narration. *ConsoleLogger and *MultiLogger both satisfy it,
// so a DiagnosticLogger can render through either a single console or a
// fan-out of several sinks without caring which.
type Narrator interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// DiagnosticLogger renders Diagnostic records through the same
// colorized, level-aware narration a plain progress call would use, so
// `--strict`-promoted warnings and plain errors share one rendering path.
type DiagnosticLogger struct {
	console Narrator
}

// NewDiagnosticLogger wraps an existing Narrator (typically a
// *ConsoleLogger, or a *MultiLogger when console+file narration is wired
// together).
func NewDiagnosticLogger(console Narrator) *DiagnosticLogger {
	return &DiagnosticLogger{console: console}
}

// Log renders one diagnostic at the severity-appropriate level.
func (l *DiagnosticLogger) Log(d diagnostic.Diagnostic) {
	l.LogDisplay(diagnosticAdapter{d})
}

// LogDisplay renders anything satisfying DiagnosticDisplay, the indirection
// point a future diagnostic-like type (e.g. a diff difference) can reuse.
func (l *DiagnosticLogger) LogDisplay(d DiagnosticDisplay) {
	msg := formatDiagnosticLine(d)
	switch d.GetSeverity() {
	case diagnostic.Error:
		l.console.Error("%s", msg)
	case diagnostic.Warn:
		l.console.Warn("%s", msg)
	default:
		l.console.Info("%s", msg)
	}
}

func formatDiagnosticLine(d DiagnosticDisplay) string {
	var b strings.Builder
	b.WriteString(d.GetCode())
	b.WriteString(": ")
	b.WriteString(d.GetSummary())
	if paths := d.GetPaths(); len(paths) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(paths, ", "))
		b.WriteString(")")
	}
	return b.String()
}
