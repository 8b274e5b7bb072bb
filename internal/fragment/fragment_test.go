package fragment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndintenfass/fyaml/internal/diagnostic"
	"github.com/ndintenfass/fyaml/internal/value"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fragment.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseSimpleMapping(t *testing.T) {
	path := writeTemp(t, "host: localhost\nport: 5432\n")
	sink := diagnostic.NewSink(false)
	res, ok := ParseFile(path, Config{}, sink)
	require.True(t, ok)
	assert.Equal(t, 0, sink.Len())

	host, found := res.Value.Get("host")
	require.True(t, found)
	assert.Equal(t, "localhost", host.String)

	port, found := res.Value.Get("port")
	require.True(t, found)
	assert.Equal(t, int64(5432), port.Int)
}

func TestParseEmptyFileYieldsNull(t *testing.T) {
	path := writeTemp(t, "")
	sink := diagnostic.NewSink(false)
	res, ok := ParseFile(path, Config{}, sink)
	require.True(t, ok)
	assert.True(t, res.Value.IsNull())
	assert.Equal(t, 0, sink.Len())
}

func TestParseMultiDocumentErrorByDefault(t *testing.T) {
	path := writeTemp(t, "a: 1\n---\nb: 2\n")
	sink := diagnostic.NewSink(false)
	_, ok := ParseFile(path, Config{}, sink)
	assert.False(t, ok)
	require.Equal(t, 1, sink.Len())
	assert.Equal(t, "E030", sink.All()[0].Code)
}

func TestParseMultiDocumentFirst(t *testing.T) {
	path := writeTemp(t, "a: 1\n---\nb: 2\n")
	sink := diagnostic.NewSink(false)
	res, ok := ParseFile(path, Config{MultiDoc: MultiDocFirst}, sink)
	require.True(t, ok)
	require.Equal(t, 1, sink.Len())
	assert.Equal(t, "W031", sink.All()[0].Code)
	a, found := res.Value.Get("a")
	require.True(t, found)
	assert.Equal(t, int64(1), a.Int)
}

func TestParseMultiDocumentAll(t *testing.T) {
	path := writeTemp(t, "a: 1\n---\nb: 2\n")
	sink := diagnostic.NewSink(false)
	res, ok := ParseFile(path, Config{MultiDoc: MultiDocAll}, sink)
	require.True(t, ok)
	assert.Equal(t, 0, sink.Len())
	require.Equal(t, value.KindSeq, res.Value.Kind)
	require.Len(t, res.Value.Seq, 2)
}

func TestParseTooLarge(t *testing.T) {
	path := writeTemp(t, "a: 123456789\n")
	sink := diagnostic.NewSink(false)
	_, ok := ParseFile(path, Config{MaxYAMLBytes: 2}, sink)
	assert.False(t, ok)
	require.Equal(t, 1, sink.Len())
	assert.Equal(t, "E110", sink.All()[0].Code)
}

func TestParseSyntaxError(t *testing.T) {
	path := writeTemp(t, "a: [1, 2\n")
	sink := diagnostic.NewSink(false)
	_, ok := ParseFile(path, Config{}, sink)
	assert.False(t, ok)
	require.Equal(t, 1, sink.Len())
	assert.Equal(t, "E020", sink.All()[0].Code)
}

func TestNormalizeYAML11Bools(t *testing.T) {
	path := writeTemp(t, "flag: yes\nquoted: \"yes\"\n")
	sink := diagnostic.NewSink(false)
	res, ok := ParseFile(path, Config{NormalizeYAML11Bools: true}, sink)
	require.True(t, ok)

	flag, _ := res.Value.Get("flag")
	assert.Equal(t, value.KindBool, flag.Kind)
	assert.True(t, flag.Bool)

	quoted, _ := res.Value.Get("quoted")
	assert.Equal(t, value.KindString, quoted.Kind)
	assert.Equal(t, "yes", quoted.String)
}

func TestAnchorsEmitWarningInCanonicalMode(t *testing.T) {
	path := writeTemp(t, "base: &b\n  x: 1\nderived:\n  <<: *b\n  y: 2\n")
	sink := diagnostic.NewSink(false)
	_, ok := ParseFile(path, Config{}, sink)
	require.True(t, ok)

	found := false
	for _, d := range sink.All() {
		if d.Code == "W040" {
			found = true
		}
	}
	assert.True(t, found, "expected W040 anchors_lost warning")
}

func TestPreserveRetainsNode(t *testing.T) {
	path := writeTemp(t, "b: 2\na: 1\n")
	sink := diagnostic.NewSink(false)
	res, ok := ParseFile(path, Config{Preserve: true}, sink)
	require.True(t, ok)
	require.NotNil(t, res.Node)
}
