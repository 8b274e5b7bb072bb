package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPackCommandSimpleMap(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "database.yml"), "host: localhost\nport: 5432\n")
	writeFixture(t, filepath.Join(dir, "server.yml"), "workers: 4\n")

	cmd := NewPackCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--no-header"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"database:", "host: localhost", "port: 5432", "server:", "workers: 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPackCommandLogFileWritesRunLog(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "database.yml"), "host: localhost\n")

	configPath := filepath.Join(dir, ".fyaml.yml")
	logDir := filepath.Join(dir, "run-logs")
	writeFixture(t, configPath, "log_dir: "+logDir+"\n")

	cmd := NewPackCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{dir, "--no-header", "--log-file"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("expected log_dir to exist: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one run log file to be written")
	}
}

func TestPackCommandCollisionFails(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "auth.yml"), "x: 1\n")
	writeFixture(t, filepath.Join(dir, "auth", "provider.yml"), "y: 2\n")

	cmd := NewPackCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected pack to fail on a file/directory collision")
	}
	if ExitCode(err) != 2 {
		t.Errorf("expected exit code 2, got %d", ExitCode(err))
	}
}
