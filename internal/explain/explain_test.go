package explain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndintenfass/fyaml/internal/diagnostic"
	"github.com/ndintenfass/fyaml/internal/scan"
)

func TestBuildCollectsFilesDirsAndIgnored(t *testing.T) {
	fileNode := &scan.Node{Kind: scan.KindFile, Path: "/root/database.yml", DerivedKey: "database"}
	root := &scan.Node{
		Kind:     scan.KindDir,
		Path:     "/root",
		Children: []*scan.Node{fileNode},
		Ignored:  []scan.IgnoredEntry{{Path: "/root/notes.txt", Reason: scan.NonYamlExtension, RuleID: "non_yaml_extension"}},
	}

	shapeOf := func(path string) string { return "mapping" }
	modeOf := func(n *scan.Node) (Mode, string) { return ModeMap, "every child key is non-numeric" }

	sink := diagnostic.NewSink(false)
	sink.Add(diagnostic.Diagnostic{Code: "W020", Severity: diagnostic.Warn, Summary: "dotted key"})

	trace := Build("run-1", root, shapeOf, modeOf, sink)

	require.Len(t, trace.Files, 1)
	assert.Equal(t, []string{"database"}, trace.Files[0].KeyPath)
	assert.Equal(t, "mapping", trace.Files[0].Shape)

	require.Len(t, trace.Dirs, 1)
	assert.Equal(t, ModeMap, trace.Dirs[0].Mode)

	require.Len(t, trace.Ignored, 1)
	assert.Equal(t, "non_yaml_extension", trace.Ignored[0].RuleID)

	require.Len(t, trace.Diagnostics, 1)
	assert.Equal(t, "W020", trace.Diagnostics[0].Code)
}

func TestRenderTextDoesNotPanicAndIncludesKeys(t *testing.T) {
	fileNode := &scan.Node{Kind: scan.KindFile, Path: "/root/database.yml", DerivedKey: "database"}
	root := &scan.Node{Kind: scan.KindDir, Path: "/root", Children: []*scan.Node{fileNode}}

	trace := Build("run-1", root,
		func(string) string { return "mapping" },
		func(*scan.Node) (Mode, string) { return ModeMap, "every child key is non-numeric" },
		diagnostic.NewSink(false))

	var buf bytes.Buffer
	RenderText(&buf, trace)
	assert.Contains(t, buf.String(), "database")
}

func TestBuildEnvelopeSortsKeyTree(t *testing.T) {
	trace := Trace{
		RunID: "run-1",
		Files: []FileTrace{
			{KeyPath: []string{"z"}, Shape: "string"},
			{KeyPath: []string{"a"}, Shape: "int"},
		},
	}
	env := BuildEnvelope(trace)
	require.Len(t, env.KeyTree, 2)
	assert.Equal(t, []string{"a"}, env.KeyTree[0].KeyPath)
	assert.Equal(t, []string{"z"}, env.KeyTree[1].KeyPath)
}
