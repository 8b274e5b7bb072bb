package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndintenfass/fyaml/internal/assemble"
	"github.com/ndintenfass/fyaml/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// TestPipelineSimpleMap exercises spec §8 scenario S1.
func TestPipelineSimpleMap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "database.yml"), "host: localhost\nport: 5432\n")
	writeFile(t, filepath.Join(dir, "server.yml"), "workers: 4\n")

	cfg := config.DefaultConfig()
	result, err := Run(Options{RootDir: dir, Cfg: cfg, RootMode: assemble.MapRoot})
	require.NoError(t, err)
	assert.False(t, result.Sink.HasErrors())

	db, ok := result.Assembled.Get("database")
	require.True(t, ok)
	host, _ := db.Get("host")
	assert.Equal(t, "localhost", host.String)

	srv, ok := result.Assembled.Get("server")
	require.True(t, ok)
	workers, _ := srv.Get("workers")
	assert.Equal(t, int64(4), workers.Int)
}

// TestPipelineSequenceDirectoryOrdersByIndex exercises spec §8 scenario S2.
func TestPipelineSequenceDirectoryOrdersByIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "steps", "0.yml"), "a: 1\n")
	writeFile(t, filepath.Join(dir, "steps", "2.yml"), "a: 3\n")
	writeFile(t, filepath.Join(dir, "steps", "1.yml"), "a: 2\n")

	cfg := config.DefaultConfig()
	cfg.SeqGaps = "allow"
	result, err := Run(Options{RootDir: dir, Cfg: cfg, RootMode: assemble.MapRoot})
	require.NoError(t, err)
	assert.False(t, result.Sink.HasErrors())

	steps, ok := result.Assembled.Get("steps")
	require.True(t, ok)
	require.Equal(t, 3, len(steps.Seq))
	a0, _ := steps.Seq[0].Get("a")
	a1, _ := steps.Seq[1].Get("a")
	a2, _ := steps.Seq[2].Get("a")
	assert.Equal(t, int64(1), a0.Int)
	assert.Equal(t, int64(2), a1.Int)
	assert.Equal(t, int64(3), a2.Int)
}

// TestPipelineFileDirCollision exercises spec §8 scenario S3.
func TestPipelineFileDirCollision(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "auth.yml"), "x: 1\n")
	writeFile(t, filepath.Join(dir, "auth", "provider.yml"), "y: 2\n")

	cfg := config.DefaultConfig()
	result, err := Run(Options{RootDir: dir, Cfg: cfg, RootMode: assemble.MapRoot})
	require.NoError(t, err)
	assert.True(t, result.Sink.HasErrors())
	assert.Equal(t, 2, result.ExitCode())

	var found bool
	for _, d := range result.Sink.All() {
		if d.Code == "E001" {
			found = true
			assert.Len(t, d.Paths, 2)
		}
	}
	assert.True(t, found, "expected E001 collision diagnostic")
}

// TestPipelineReservedKey exercises spec §8 scenario S4.
func TestPipelineReservedKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "true.yml"), "x: 1\n")

	cfg := config.DefaultConfig()
	result, err := Run(Options{RootDir: dir, Cfg: cfg, RootMode: assemble.MapRoot})
	require.NoError(t, err)
	assert.True(t, result.Sink.HasErrors())

	cfg.AllowReservedKeys = true
	result, err = Run(Options{RootDir: dir, Cfg: cfg, RootMode: assemble.MapRoot})
	require.NoError(t, err)
	assert.False(t, result.Sink.HasErrors())
	v, ok := result.Assembled.Get("true")
	require.True(t, ok)
	assert.True(t, v.MustQuote)
}

// TestPipelineMixedSeqMap exercises spec §8 scenario S5.
func TestPipelineMixedSeqMap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "0.yml"), "a: 1\n")
	writeFile(t, filepath.Join(dir, "name.yml"), "b: 2\n")

	cfg := config.DefaultConfig()
	result, err := Run(Options{RootDir: dir, Cfg: cfg, RootMode: assemble.MapRoot})
	require.NoError(t, err)
	assert.True(t, result.Sink.HasErrors())

	var found bool
	for _, d := range result.Sink.All() {
		if d.Code == "E050" {
			found = true
		}
	}
	assert.True(t, found)
}

// TestPipelineFileRootMerge exercises spec §8 scenario S6.
func TestPipelineFileRootMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yml"), "overrides:\n  a: 1\n")
	writeFile(t, filepath.Join(dir, "b.yml"), "2\n")

	cfg := config.DefaultConfig()
	cfg.RootMode = "file-root"
	result, err := Run(Options{
		RootDir: dir, Cfg: cfg,
		RootMode: assemble.FileRoot, RootFile: filepath.Join(dir, "base.yml"),
		MergeUnder: "overrides", HasMergeKey: true,
	})
	require.NoError(t, err)
	assert.False(t, result.Sink.HasErrors())

	overrides, ok := result.Assembled.Get("overrides")
	require.True(t, ok)
	a, _ := overrides.Get("a")
	assert.Equal(t, int64(1), a.Int)
	b, _ := overrides.Get("b")
	assert.Equal(t, int64(2), b.Int)
}

// TestPipelineFileRootMergeConflict asserts S6's follow-up: adding a
// colliding key under merge_under produces E052.
func TestPipelineFileRootMergeConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yml"), "overrides:\n  a: 1\n")
	writeFile(t, filepath.Join(dir, "a.yml"), "9\n")

	cfg := config.DefaultConfig()
	result, err := Run(Options{
		RootDir: dir, Cfg: cfg,
		RootMode: assemble.FileRoot, RootFile: filepath.Join(dir, "base.yml"),
		MergeUnder: "overrides", HasMergeKey: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Sink.HasErrors())

	var found bool
	for _, d := range result.Sink.All() {
		if d.Code == "E052" {
			found = true
		}
	}
	assert.True(t, found)
}
