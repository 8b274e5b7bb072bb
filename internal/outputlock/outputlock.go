// Package outputlock guards the single output path a `pack -o` run writes
// to, so two invocations racing against the same path serialize instead of
// interleaving. The temp-file-then-rename write strategy and the advisory
// lock it runs under are grounded on the teacher's internal/filelock
// package; this one adds a contention timeout and an optional monitor hook
// so a caller can log how long a write waited, instead of the teacher's
// unconditional blocking Lock.
package outputlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrTimeout is returned by AcquireWithTimeout when the lock is still held
// by another process once the deadline passes.
var ErrTimeout = errors.New("outputlock: timed out waiting for lock")

// Metrics summarizes a single Acquire/AcquireWithTimeout call, useful for a
// caller that wants to surface lock contention through internal/logger
// rather than silently blocking.
type Metrics struct {
	Attempts int
	Waited   time.Duration
	TimedOut bool
}

// MonitorFunc receives the Metrics for every Acquire/AcquireWithTimeout call
// made through a Lock, keyed by the path the lock guards.
type MonitorFunc func(path string, m Metrics)

const pollInterval = 10 * time.Millisecond

// Lock is an advisory, cross-process lock keyed by a path on disk (the lock
// file itself, conventionally the guarded path plus ".lock").
type Lock struct {
	path    string
	flock   *flock.Flock
	last    Metrics
	monitor MonitorFunc
}

// New builds a Lock for path. The lock is not acquired until Acquire,
// TryAcquire, or AcquireWithTimeout is called.
func New(path string) *Lock {
	return &Lock{path: path, flock: flock.New(path)}
}

// SetMonitor installs a callback invoked after every Acquire or
// AcquireWithTimeout with that call's Metrics. Pass nil to remove it.
func (l *Lock) SetMonitor(fn MonitorFunc) {
	l.monitor = fn
}

// LastMetrics returns the Metrics recorded by the most recent Acquire or
// AcquireWithTimeout call.
func (l *Lock) LastMetrics() Metrics {
	return l.last
}

// Acquire blocks until the lock is held.
func (l *Lock) Acquire() error {
	start := time.Now()
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("outputlock: acquire %s: %w", l.path, err)
	}
	l.record(Metrics{Attempts: 1, Waited: time.Since(start)})
	return nil
}

// TryAcquire attempts to take the lock without blocking. ok is false if
// another holder already has it.
func (l *Lock) TryAcquire() (ok bool, err error) {
	ok, err = l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("outputlock: try-acquire %s: %w", l.path, err)
	}
	return ok, nil
}

// AcquireWithTimeout polls for the lock until it is acquired or deadline
// elapses, returning ErrTimeout in the latter case. Unlike a blocking
// Acquire, this lets `fyaml pack -o` fail fast (and report a write
// failure, exit 5) instead of hanging indefinitely behind a stuck writer.
func (l *Lock) AcquireWithTimeout(deadline time.Duration) error {
	start := time.Now()
	attempts := 0
	for {
		attempts++
		ok, err := l.TryAcquire()
		if err != nil {
			return err
		}
		if ok {
			l.record(Metrics{Attempts: attempts, Waited: time.Since(start)})
			return nil
		}
		if time.Since(start) >= deadline {
			l.record(Metrics{Attempts: attempts, Waited: time.Since(start), TimedOut: true})
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

// Release gives up the lock.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("outputlock: release %s: %w", l.path, err)
	}
	return nil
}

func (l *Lock) record(m Metrics) {
	l.last = m
	if l.monitor != nil {
		l.monitor(l.path, m)
	}
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by an fsync and rename, so a reader never observes a partial
// write even if the process is killed mid-write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("outputlock: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".fyaml-out-*")
	if err != nil {
		return fmt.Errorf("outputlock: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("outputlock: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("outputlock: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("outputlock: close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("outputlock: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("outputlock: rename into %s: %w", path, err)
	}
	committed = true
	return nil
}

// DefaultAcquireTimeout bounds how long WriteLocked waits behind another
// writer before giving up, so `pack -o` reports a write failure instead of
// hanging indefinitely behind a stuck or crashed holder. A var, not a const,
// so tests can shrink it rather than waiting out the real default.
var DefaultAcquireTimeout = 30 * time.Second

// WriteLocked acquires the advisory lock for path (path + ".lock") with
// DefaultAcquireTimeout, performs an atomic write, and releases the lock, so
// concurrent `fyaml pack -o PATH` runs against the same output serialize
// rather than interleaving partial writes. A still-contended lock past the
// timeout surfaces as ErrTimeout rather than blocking the caller forever.
func WriteLocked(path string, data []byte) error {
	lock := New(path + ".lock")
	if err := lock.AcquireWithTimeout(DefaultAcquireTimeout); err != nil {
		return err
	}
	defer lock.Release()
	return writeAtomic(path, data)
}
