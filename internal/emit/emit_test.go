package emit

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ndintenfass/fyaml/internal/value"
)

func mapValue(pairs ...value.Pair) value.Value {
	return value.NewMap(pairs)
}

func TestEmitYAMLSortsMapKeys(t *testing.T) {
	v := mapValue(
		value.Pair{Key: "zeta", Value: value.NewInt(1)},
		value.Pair{Key: "alpha", Value: value.NewInt(2)},
		value.Pair{Key: "mid", Value: value.NewInt(3)},
	)

	out, err := EmitBytes(v, Options{NoHeader: true})
	require.NoError(t, err)

	alphaIdx := strings.Index(string(out), "alpha:")
	midIdx := strings.Index(string(out), "mid:")
	zetaIdx := strings.Index(string(out), "zeta:")
	require.True(t, alphaIdx >= 0 && midIdx >= 0 && zetaIdx >= 0)
	assert.True(t, alphaIdx < midIdx && midIdx < zetaIdx, "expected keys sorted alpha < mid < zeta, got:\n%s", out)
}

func TestEmitYAMLPreservesSequenceOrder(t *testing.T) {
	v := value.NewSeq([]value.Value{value.NewString("c"), value.NewString("a"), value.NewString("b")})

	out, err := EmitBytes(v, Options{NoHeader: true})
	require.NoError(t, err)

	cIdx := strings.Index(string(out), "- c")
	aIdx := strings.Index(string(out), "- a")
	bIdx := strings.Index(string(out), "- b")
	require.True(t, cIdx >= 0 && aIdx >= 0 && bIdx >= 0)
	assert.True(t, cIdx < aIdx && aIdx < bIdx, "expected sequence order c, a, b preserved, got:\n%s", out)
}

func TestEmitYAMLHeaderCommentDefault(t *testing.T) {
	v := mapValue(value.Pair{Key: "k", Value: value.NewString("v")})

	out, err := EmitBytes(v, Options{Version: "1.2.3"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# packed by fyaml v1.2.3\n"))
}

func TestEmitYAMLNoHeaderSuppressesComment(t *testing.T) {
	v := mapValue(value.Pair{Key: "k", Value: value.NewString("v")})

	out, err := EmitBytes(v, Options{NoHeader: true})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(out), "#"))
}

func TestEmitYAMLMustQuoteForcesDoubleQuotedKey(t *testing.T) {
	v := mapValue(value.Pair{Key: "true", Value: value.Value{Kind: value.KindString, String: "x", MustQuote: true}})

	out, err := EmitBytes(v, Options{NoHeader: true})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"true":`)
}

func TestEmitJSONProducesSortedIndentedObject(t *testing.T) {
	v := mapValue(
		value.Pair{Key: "b", Value: value.NewInt(2)},
		value.Pair{Key: "a", Value: value.NewInt(1)},
	)

	out, err := EmitBytes(v, Options{Format: FormatJSON})
	require.NoError(t, err)

	s := string(out)
	aIdx := strings.Index(s, `"a"`)
	bIdx := strings.Index(s, `"b"`)
	require.True(t, aIdx >= 0 && bIdx >= 0)
	assert.True(t, aIdx < bIdx)
	assert.True(t, strings.HasSuffix(s, "}\n"))
}

func TestEmitYAMLPreserveModeReemitsFragmentNodeVerbatim(t *testing.T) {
	v := mapValue(value.Pair{Key: "database", Value: value.NewString("rebuilt")})

	fragmentNode := &yaml.Node{
		Kind: yaml.ScalarNode, Tag: "!!str", Value: "original-order-preserved",
		LineComment: "keep me",
	}

	out, err := EmitBytes(v, Options{
		NoHeader:      true,
		Preserve:      true,
		FragmentNodes: map[string]*yaml.Node{"database": fragmentNode},
	})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "original-order-preserved")
	assert.Contains(t, s, "keep me")
	assert.NotContains(t, s, "rebuilt")
}

func TestWriteFileAtomicallyWritesEmittedOutput(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.yml"

	v := mapValue(value.Pair{Key: "k", Value: value.NewString("v")})
	err := WriteFile(path, v, Options{NoHeader: true})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "k: v")
}
