// Package logger provides the ambient logging used by the CLI commands
// while they drive the scan/parse/assemble/emit pipeline.
//
// Three loggers share one level-filtered, colorized rendering core,
// grounded on the teacher's internal/logger.ConsoleLogger:
//   - ConsoleLogger narrates progress ("Scanning...", "Parsed N fragments...")
//     to stdout/stderr.
//   - FileLogger mirrors a single invocation's trace to a timestamped file
//     under .fyaml/logs/, purely as a debug aid (see DiagnosticLogger for
//     the pipeline's actual diagnostic output, and spec §5/§6 for why this
//     does not count as persisted state).
//   - DiagnosticLogger adapts a diagnostic.Diagnostic onto the same
//     colorized, level-aware machinery a plain log call would use.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering, ordered least to most severe.
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

func levelFromString(s string) int {
	switch strings.ToLower(s) {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// ConsoleLogger writes timestamped, level-filtered, optionally colorized
// progress narration to an io.Writer. It is safe for concurrent use.
type ConsoleLogger struct {
	writer   io.Writer
	minLevel int
	mu       sync.Mutex
	color    bool
}

// NewConsoleLogger builds a ConsoleLogger writing to w, filtered at
// logLevel (trace/debug/info/warn/error, case-insensitive; invalid or
// empty defaults to "info"). Color is enabled automatically when w is a
// TTY file (os.Stdout/os.Stderr with a terminal attached), detected with
// go-isatty exactly as the teacher does.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:   w,
		minLevel: levelFromString(logLevel),
		color:    isTTY(w),
	}
}

func isTTY(w io.Writer) bool {
	type fdWriter interface {
		Fd() uintptr
	}
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *ConsoleLogger) log(level int, tag string, colorFn func(format string, a ...interface{}) string, format string, args ...interface{}) {
	if level < c.minLevel {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	if c.color && colorFn != nil {
		fmt.Fprintf(c.writer, "[%s] %s\n", ts, colorFn("%s", msg))
		return
	}
	fmt.Fprintf(c.writer, "[%s] %s: %s\n", ts, tag, msg)
}

// Trace logs a trace-level message (e.g. per-file scan decisions).
func (c *ConsoleLogger) Trace(format string, args ...interface{}) {
	c.log(levelTrace, "TRACE", color.New(color.FgHiBlack).SprintfFunc(), format, args...)
}

// Debug logs a debug-level message.
func (c *ConsoleLogger) Debug(format string, args ...interface{}) {
	c.log(levelDebug, "DEBUG", color.New(color.FgCyan).SprintfFunc(), format, args...)
}

// Info logs stage-progress narration ("Scanning fragments...", "Parsed 12
// fragments, 0 errors").
func (c *ConsoleLogger) Info(format string, args ...interface{}) {
	c.log(levelInfo, "INFO", color.New(color.FgBlue).SprintfFunc(), format, args...)
}

// Warn logs a warning.
func (c *ConsoleLogger) Warn(format string, args ...interface{}) {
	c.log(levelWarn, "WARN", color.New(color.FgYellow).SprintfFunc(), format, args...)
}

// Error logs an error.
func (c *ConsoleLogger) Error(format string, args ...interface{}) {
	c.log(levelError, "ERROR", color.New(color.FgRed).SprintfFunc(), format, args...)
}
