// Package emit implements the emitter stage: it serializes an assembled
// value.Value to canonical YAML, JSON, or a preserve-aware variant of
// YAML, per spec §4.4. The atomic, lock-guarded write to an output path is
// grounded on jksmth-fyaml/cmd/pack.go's writeOutput (temp file in the
// target directory, fsync, chmod, rename), run under internal/outputlock's
// advisory lock so two concurrent `pack -o` runs against the same path
// serialize instead of interleaving.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ndintenfass/fyaml/internal/outputlock"
	"github.com/ndintenfass/fyaml/internal/value"
)

// Format selects the output serialization.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// Options controls emission, mirroring spec §4.4.
type Options struct {
	Format   Format
	NoHeader bool
	Version  string // stamped into the header comment: "1.2.3" gives "# packed by fyaml v1.2.3"

	// Preserve enables preserve mode: filesystem-induced keys at directory
	// boundaries are still sorted, but any subtree present in FragmentNodes
	// is re-emitted verbatim (original order, comments, scalar styles)
	// instead of being rebuilt from the canonicalized Value, per the
	// open-question resolution that preserve mode sorts at directory
	// boundaries and preserves order only within a single fragment file.
	Preserve      bool
	FragmentNodes map[string]*yaml.Node
}

const defaultVersion = "dev"

// Emit serializes v per opts and writes the result to w.
func Emit(w io.Writer, v value.Value, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return emitJSON(w, v)
	default:
		return emitYAML(w, v, opts)
	}
}

// EmitBytes is a convenience wrapper returning the serialized bytes rather
// than writing to an io.Writer, used by WriteFile for `pack -o`.
func EmitBytes(v value.Value, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Emit(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func emitYAML(w io.Writer, v value.Value, opts Options) error {
	if !opts.NoHeader {
		version := opts.Version
		if version == "" {
			version = defaultVersion
		}
		if _, err := fmt.Fprintf(w, "# packed by fyaml v%s\n", version); err != nil {
			return err
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()

	node := toYAMLNodeAt(v, "", opts)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("emit yaml: %w", err)
	}
	return enc.Close()
}

func emitJSON(w io.Writer, v value.Value) error {
	generic := toJSONValue(v)
	data, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return fmt.Errorf("emit json: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// toYAMLNodeAt converts a value.Value into a *yaml.Node tree in canonical
// order (map keys sorted by UTF-8 byte order; sequence order preserved),
// force-quoting any key flagged MustQuote. path identifies v's location in
// the assembled document (dot-joined derived keys, "[i]" for sequence
// indices); in preserve mode, a path found in opts.FragmentNodes is
// re-emitted verbatim instead of being rebuilt from v.
func toYAMLNodeAt(v value.Value, path string, opts Options) *yaml.Node {
	if opts.Preserve && opts.FragmentNodes != nil {
		if node, ok := opts.FragmentNodes[path]; ok {
			return node
		}
	}
	switch v.Kind {
	case value.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.KindBool:
		val := "false"
		if v.Bool {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val}
	case value.KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", v.Int)}
	case value.KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: fmt.Sprintf("%v", v.Float)}
	case value.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.String}
	case value.KindSeq:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range v.Seq {
			n.Content = append(n.Content, toYAMLNodeAt(item, fmt.Sprintf("%s[%d]", path, i), opts))
		}
		return n
	case value.KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range v.Sorted() {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}
			if p.Value.MustQuote {
				keyNode.Style = yaml.DoubleQuotedStyle
			}
			childPath := p.Key
			if path != "" {
				childPath = path + "." + p.Key
			}
			n.Content = append(n.Content, keyNode, toYAMLNodeAt(p.Value, childPath, opts))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// toJSONValue converts a value.Value into plain Go data that
// encoding/json can marshal with sorted object keys. json.Marshal already
// sorts map[string]interface{} keys lexicographically, so this just needs
// to produce such a map rather than re-implement sorting.
func toJSONValue(v value.Value) interface{} {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool
	case value.KindInt:
		return v.Int
	case value.KindFloat:
		return v.Float
	case value.KindString:
		return v.String
	case value.KindSeq:
		out := make([]interface{}, len(v.Seq))
		for i, item := range v.Seq {
			out[i] = toJSONValue(item)
		}
		return out
	case value.KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for _, p := range v.Map {
			out[p.Key] = toJSONValue(p.Value)
		}
		return out
	default:
		return nil
	}
}

// WriteFile performs the atomic, lock-guarded output write spec §6 and §7
// (exit code 5 on failure) require: it serializes v per opts and writes it
// to path using outputlock.WriteLocked, so that two concurrent
// `fyaml pack -o PATH` invocations against the same path serialize rather
// than interleaving their writes.
func WriteFile(path string, v value.Value, opts Options) error {
	data, err := EmitBytes(v, opts)
	if err != nil {
		return err
	}
	if err := outputlock.WriteLocked(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
