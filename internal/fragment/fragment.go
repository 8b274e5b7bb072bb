// Package fragment implements the parser stage: it turns the bytes of a
// single YAML file into the internal value.Value tree, enforcing the size
// cap and multi-document policy from spec §4.2. The approach — read once,
// decode into a yaml.Node first, then walk that node tree by hand instead
// of unmarshaling into Go structs — is grounded on
// jksmth-fyaml/internal/filetree/marshal.go's parseYAMLFile, which keeps
// the same manual-walk shape to support anchor/alias and style inspection
// that a plain Unmarshal would discard.
package fragment

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ndintenfass/fyaml/internal/diagnostic"
	"github.com/ndintenfass/fyaml/internal/value"
)

// MultiDocPolicy controls how a fragment file containing more than one
// YAML document is handled.
type MultiDocPolicy int

const (
	MultiDocError MultiDocPolicy = iota
	MultiDocFirst
	MultiDocAll
)

// Config controls parsing behavior, mirroring spec §4.2's input.
type Config struct {
	MultiDoc     MultiDocPolicy
	MaxYAMLBytes int64 // 0 means unlimited

	// NormalizeYAML11Bools opts into canonicalizing unquoted
	// yes/no/on/off/y/n scalars to true/false before the document is
	// converted, matching jksmth-fyaml's normalizeYAML11Booleans. Off by
	// default: spec's Bool variant is YAML-1.2-shaped.
	NormalizeYAML11Bools bool

	// Preserve requests that the returned yaml.Node be retained so the
	// emitter can re-render this fragment's internal mapping order,
	// comments, and scalar styles (spec §4.4 preserve mode).
	Preserve bool
}

// Result is what ParseFile hands back to the caller (normally the
// assembler, via a ScanNode) for one fragment file.
type Result struct {
	Value Value
	// Node is the parsed yaml.Node tree of the (possibly First-selected)
	// document, retained only when Config.Preserve is set.
	Node *yaml.Node
}

// Value is a type alias kept local to avoid a stutter at call sites
// (fragment.Result.Value is a value.Value).
type Value = value.Value

var yamlLineRe = regexp.MustCompile(`yaml: line (\d+): (.*)`)

// ParseFile reads path, decodes it per cfg, and returns the resulting
// Value. Every problem — too-large file, multi-document policy violation,
// YAML syntax error — is pushed to sink as a Diagnostic and ok is false;
// callers must still continue the pipeline for other files (spec §4.2.4).
func ParseFile(path string, cfg Config, sink *diagnostic.Sink) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil {
		sink.Add(diagnostic.Diagnostic{
			Code: "E100", Severity: diagnostic.Error,
			Summary: "file could not be read", Paths: []string{path},
		})
		return Result{Value: value.Null()}, false
	}
	if cfg.MaxYAMLBytes > 0 && info.Size() > cfg.MaxYAMLBytes {
		sink.Add(diagnostic.Diagnostic{
			Code: "E110", Severity: diagnostic.Error,
			Summary: fmt.Sprintf("file exceeds max_yaml_bytes (%d > %d)", info.Size(), cfg.MaxYAMLBytes),
			Paths:   []string{path},
		})
		return Result{Value: value.Null()}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		sink.Add(diagnostic.Diagnostic{
			Code: "E100", Severity: diagnostic.Error,
			Summary: "file could not be read", Paths: []string{path},
		})
		return Result{Value: value.Null()}, false
	}

	docs, err := decodeAll(data)
	if err != nil {
		d := formatParseError(err, path, data)
		sink.Add(d)
		return Result{Value: value.Null()}, false
	}

	if len(docs) == 0 {
		return Result{Value: value.Null()}, true
	}

	if len(docs) > 1 {
		switch cfg.MultiDoc {
		case MultiDocFirst:
			sink.Add(diagnostic.Diagnostic{
				Code: "W031", Severity: diagnostic.Warn,
				Summary: "file has multiple YAML documents; using the first",
				Paths:   []string{path},
			})
			docs = docs[:1]
		case MultiDocAll:
			items := make([]value.Value, 0, len(docs))
			anyAlias := false
			for _, d := range docs {
				if cfg.NormalizeYAML11Bools {
					normalizeYAML11Booleans(d)
				}
				v, sawAlias, err := nodeToValue(d)
				if err != nil {
					sink.Add(diagnostic.Diagnostic{Code: "E020", Severity: diagnostic.Error, Summary: err.Error(), Paths: []string{path}})
					return Result{Value: value.Null()}, false
				}
				anyAlias = anyAlias || sawAlias
				items = append(items, v)
			}
			if anyAlias && !cfg.Preserve {
				sink.Add(diagnostic.Diagnostic{Code: "W040", Severity: diagnostic.Warn, Summary: "anchors/aliases resolved to copies in canonical mode", Paths: []string{path}})
			}
			return Result{Value: value.NewSeq(items)}, true
		default: // MultiDocError
			sink.Add(diagnostic.Diagnostic{
				Code: "E030", Severity: diagnostic.Error,
				Summary: fmt.Sprintf("file contains %d YAML documents, expected exactly one", len(docs)),
				Paths:   []string{path},
			})
			return Result{Value: value.Null()}, false
		}
	}

	doc := docs[0]
	if cfg.NormalizeYAML11Bools {
		normalizeYAML11Booleans(doc)
	}

	v, sawAlias, err := nodeToValue(doc)
	if err != nil {
		sink.Add(diagnostic.Diagnostic{Code: "E020", Severity: diagnostic.Error, Summary: err.Error(), Paths: []string{path}})
		return Result{Value: value.Null()}, false
	}
	if sawAlias && !cfg.Preserve {
		sink.Add(diagnostic.Diagnostic{Code: "W040", Severity: diagnostic.Warn, Summary: "anchors/aliases resolved to copies in canonical mode", Paths: []string{path}})
	}

	res := Result{Value: v}
	if cfg.Preserve {
		res.Node = doc
	}
	return res, true
}

// decodeAll reads every YAML document out of data using a streaming
// Decoder, so that a 0-, 1-, or N-document file can all be told apart
// (yaml.Unmarshal alone only ever sees the first document).
func decodeAll(data []byte) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// A decoded top-level node is a DocumentNode wrapping the real root.
		if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
			docs = append(docs, doc.Content[0])
		} else {
			docs = append(docs, &doc)
		}
	}
	return docs, nil
}

// formatParseError builds the E020 diagnostic with the line number and a
// short snippet when the underlying error carries a "yaml: line N: message"
// shape, the format gopkg.in/yaml.v3 itself produces for syntax errors (the
// message carries no column, so Location.Column stays 0) —
// grounded on jksmth-fyaml/internal/filetree/marshal.go's formatYAMLError,
// adapted here from errors.As-against-typed-errors (not exported by this
// library version) to matching the library's own message convention.
func formatParseError(err error, path string, data []byte) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Code: "E020", Severity: diagnostic.Error,
		Summary: "YAML parse error", Paths: []string{path},
	}

	if te, ok := err.(*yaml.TypeError); ok && len(te.Errors) > 0 {
		d.Summary = te.Errors[0]
		return d
	}

	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		d.Summary = err.Error()
		return d
	}
	line, _ := strconv.Atoi(m[1])
	d.Summary = m[2]
	d.Location = &diagnostic.Location{File: path, Line: line}
	if snippet := lineSnippet(data, line); snippet != "" {
		if d.Context == nil {
			d.Context = map[string]string{}
		}
		d.Context["snippet"] = snippet
	}
	return d
}

func lineSnippet(data []byte, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// nodeToValue walks a yaml.Node tree into a value.Value, reporting whether
// any alias (a *use* of an anchor, not the anchor definition itself) was
// encountered, which canonical mode needs in order to emit W040.
func nodeToValue(n *yaml.Node) (value.Value, bool, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), false, nil
		}
		return nodeToValue(n.Content[0])
	case yaml.AliasNode:
		v, _, err := nodeToValue(n.Alias)
		return v, true, err
	case yaml.ScalarNode:
		v, err := scalarToValue(n)
		return v, false, err
	case yaml.SequenceNode:
		items := make([]value.Value, len(n.Content))
		sawAlias := false
		for i, c := range n.Content {
			v, alias, err := nodeToValue(c)
			if err != nil {
				return value.Value{}, false, err
			}
			sawAlias = sawAlias || alias
			items[i] = v
		}
		return value.NewSeq(items), sawAlias, nil
	case yaml.MappingNode:
		pairs := make([]value.Pair, 0, len(n.Content)/2)
		sawAlias := false
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			keyVal, alias, err := nodeToValue(keyNode)
			if err != nil {
				return value.Value{}, false, err
			}
			sawAlias = sawAlias || alias
			valValue, alias2, err := nodeToValue(valNode)
			if err != nil {
				return value.Value{}, false, err
			}
			sawAlias = sawAlias || alias2
			pairs = append(pairs, value.Pair{Key: scalarKeyString(keyVal), Value: valValue})
		}
		return value.NewMap(pairs), sawAlias, nil
	default:
		return value.Null(), false, nil
	}
}

func scalarKeyString(v value.Value) string {
	switch v.Kind {
	case value.KindString:
		return v.String
	case value.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case value.KindBool:
		return strconv.FormatBool(v.Bool)
	case value.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return ""
	}
}

func scalarToValue(n *yaml.Node) (value.Value, error) {
	var iface interface{}
	if err := n.Decode(&iface); err != nil {
		return value.Value{}, err
	}
	return fromInterface(iface), nil
}

func fromInterface(iface interface{}) value.Value {
	switch v := iface.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.NewBool(v)
	case int:
		return value.NewInt(int64(v))
	case int64:
		return value.NewInt(v)
	case uint64:
		return value.NewInt(int64(v))
	case float64:
		return value.NewFloat(v)
	case string:
		return value.NewString(v)
	default:
		return value.NewString(fmt.Sprintf("%v", v))
	}
}

var yaml11Bools = map[string]string{
	"y": "true", "Y": "true", "yes": "true", "Yes": "true", "YES": "true",
	"on": "true", "On": "true", "ON": "true",
	"n": "false", "N": "false", "no": "false", "No": "false", "NO": "false",
	"off": "false", "Off": "false", "OFF": "false",
}

// normalizeYAML11Booleans recursively rewrites unquoted YAML-1.1-style
// boolean scalars into canonical !!bool nodes, matching
// jksmth-fyaml/internal/filetree/marshal.go's normalizeYAML11Booleans:
// quoted scalars (Style != 0) and already-typed booleans are left alone.
func normalizeYAML11Booleans(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Style == 0 && n.Tag != "!!bool" {
		if repl, ok := yaml11Bools[n.Value]; ok {
			n.Value = repl
			n.Tag = "!!bool"
		}
	}
	for _, c := range n.Content {
		normalizeYAML11Booleans(c)
	}
}
