// Package diff implements the diff driver (spec §4.6): given two already
// assembled value.Value documents, it descends in lockstep by sorted map
// keys / sequence index and reports the first differing location per
// branch as a path expression with a one-line reason. The "report the
// first difference per branch, keep comparing siblings" shape is grounded
// on the teacher's internal/executor dependency-graph validation, which
// likewise keeps walking after finding one problem so a single run surfaces
// everything.
package diff

import (
	"fmt"

	"github.com/ndintenfass/fyaml/internal/value"
)

// Reason enumerates the one-line difference reasons spec §4.6 names.
type Reason string

const (
	ReasonMissingOnRight Reason = "missing on right"
	ReasonMissingOnLeft  Reason = "missing on left"
	ReasonTypeMismatch   Reason = "type mismatch"
	ReasonScalarDiffers  Reason = "scalar differs"
	ReasonLengthDiffers  Reason = "sequence length differs"
)

// Difference is one reported location: a path expression like ".a.b[3].c"
// plus a one-line reason.
type Difference struct {
	Path   string
	Reason Reason
	Detail string
}

// String renders a Difference as the text-mode one-liner spec §4.6
// specifies: "<path> <reason>[: <detail>]".
func (d Difference) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s %s", d.Path, d.Reason)
	}
	return fmt.Sprintf("%s %s: %s", d.Path, d.Reason, d.Detail)
}

// JSON is the `--format=json` rendering of a Difference, per spec §4.6.
type JSON struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// ToJSON converts a Difference slice into its JSON-ready form.
func ToJSON(diffs []Difference) []JSON {
	out := make([]JSON, len(diffs))
	for i, d := range diffs {
		out[i] = JSON{Path: d.Path, Reason: string(d.Reason), Detail: d.Detail}
	}
	return out
}

// Compare walks a and b in lockstep and returns every Difference found,
// in the order encountered. An empty result means the two documents are
// semantically equal per value.Equal's rules (map key order irrelevant,
// sequence order significant, NaN equals NaN).
func Compare(a, b value.Value) []Difference {
	var diffs []Difference
	compare("", a, b, &diffs)
	return diffs
}

func compare(path string, a, b value.Value, out *[]Difference) {
	if value.Equal(a, b) {
		return
	}
	if a.Kind != b.Kind {
		if isScalarKind(a.Kind) && isScalarKind(b.Kind) {
			*out = append(*out, Difference{
				Path: rooted(path), Reason: ReasonScalarDiffers,
				Detail: fmt.Sprintf("%s vs %s", scalarString(a), scalarString(b)),
			})
			return
		}
		*out = append(*out, Difference{
			Path: rooted(path), Reason: ReasonTypeMismatch,
			Detail: fmt.Sprintf("%s vs %s", a.Kind, b.Kind),
		})
		return
	}

	switch a.Kind {
	case value.KindSeq:
		compareSeq(path, a, b, out)
	case value.KindMap:
		compareMap(path, a, b, out)
	default:
		*out = append(*out, Difference{
			Path: rooted(path), Reason: ReasonScalarDiffers,
			Detail: fmt.Sprintf("%s vs %s", scalarString(a), scalarString(b)),
		})
	}
}

func compareSeq(path string, a, b value.Value, out *[]Difference) {
	n := len(a.Seq)
	if len(b.Seq) < n {
		n = len(b.Seq)
	}
	for i := 0; i < n; i++ {
		compare(fmt.Sprintf("%s[%d]", path, i), a.Seq[i], b.Seq[i], out)
	}
	if len(a.Seq) != len(b.Seq) {
		*out = append(*out, Difference{
			Path: rooted(path), Reason: ReasonLengthDiffers,
			Detail: fmt.Sprintf("%d vs %d", len(a.Seq), len(b.Seq)),
		})
	}
}

func compareMap(path string, a, b value.Value, out *[]Difference) {
	as, bs := a.Sorted(), b.Sorted()
	bi := map[string]value.Value{}
	for _, p := range bs {
		bi[p.Key] = p.Value
	}
	seen := map[string]bool{}
	for _, p := range as {
		seen[p.Key] = true
		childPath := path + "." + p.Key
		bv, ok := bi[p.Key]
		if !ok {
			*out = append(*out, Difference{Path: rooted(childPath), Reason: ReasonMissingOnRight})
			continue
		}
		compare(childPath, p.Value, bv, out)
	}
	for _, p := range bs {
		if seen[p.Key] {
			continue
		}
		*out = append(*out, Difference{Path: rooted(path + "." + p.Key), Reason: ReasonMissingOnLeft})
	}
}

func rooted(path string) string {
	if path == "" {
		return "."
	}
	return "." + trimLeadingDot(path)
}

func trimLeadingDot(s string) string {
	if len(s) > 0 && s[0] == '.' {
		return s[1:]
	}
	return s
}

func isScalarKind(k value.Kind) bool {
	return k != value.KindSeq && k != value.KindMap
}

func scalarString(v value.Value) string {
	switch v.Kind {
	case value.KindNull:
		return "null"
	case value.KindString:
		return fmt.Sprintf("%q", v.String)
	case value.KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case value.KindFloat:
		return fmt.Sprintf("%v", v.Float)
	default:
		return v.Kind.String()
	}
}
