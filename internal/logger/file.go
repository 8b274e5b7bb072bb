package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileLogger mirrors one invocation's trace to a timestamped file under
// rootDir (normally .fyaml/logs/), maintaining a latest.log symlink the
// same way the teacher's file logger points at the most recent run —
// purely an ambient debug aid; the pipeline itself reads nothing back
// from it on a later invocation.
type FileLogger struct {
	file *os.File
}

// NewFileLogger creates (or truncates) a timestamped log file under
// rootDir and repoints rootDir/latest.log at it. rootDir is created if
// missing.
func NewFileLogger(rootDir string) (*FileLogger, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405"))
	path := filepath.Join(rootDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	latest := filepath.Join(rootDir, "latest.log")
	_ = os.Remove(latest)
	_ = os.Symlink(name, latest) // best-effort; unsupported on some filesystems

	return &FileLogger{file: f}, nil
}

// Write implements io.Writer so FileLogger can back a ConsoleLogger
// directly when --log-file is passed.
func (f *FileLogger) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

// Close closes the underlying file.
func (f *FileLogger) Close() error {
	return f.file.Close()
}
