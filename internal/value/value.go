// Package value defines the in-memory document model that the scanner,
// parser, and assembler build and fold: a small tagged union plus an
// order-preserving map, kept intentionally free of any filesystem or YAML
// library concern so it can be unit tested in isolation.
package value

import "math"

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "mapping"
	default:
		return "unknown"
	}
}

// Pair is a single insertion-ordered entry of a Map.
type Pair struct {
	Key   string
	Value Value
}

// Value is the tagged variant described in the data model: exactly one of
// the typed fields is meaningful, selected by Kind. MustQuote flags a
// reserved-word key (spec E010/must_quote_on_emit) that the emitter must
// force-quote even though it is carried here as an ordinary string.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	String  string
	Seq     []Value
	Map     []Pair // insertion order; canonicalization sorts at emit time, not here.

	// MustQuote marks a Map key (carried on the Value stored under it) whose
	// source key matched a reserved YAML word and was only accepted because
	// allow_reserved_keys was set.
	MustQuote bool
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewInt wraps an int64.
func NewInt(i int64) Value { return Value{Kind: KindInt, Int: i} }

// NewFloat wraps a float64.
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// NewString wraps a string.
func NewString(s string) Value { return Value{Kind: KindString, String: s} }

// NewSeq wraps a slice of Values, taking ownership of the slice.
func NewSeq(items []Value) Value { return Value{Kind: KindSeq, Seq: items} }

// NewMap builds a Map value from ordered pairs.
func NewMap(pairs []Pair) Value { return Value{Kind: KindMap, Map: pairs} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Get looks up a key in a Map value; ok is false if v is not a Map or the
// key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindMap {
		return Value{}, false
	}
	for _, p := range v.Map {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Sorted returns a copy of the Map's pairs sorted by UTF-8 byte order of the
// key, the canonical emission order required by spec invariant 2. No-op for
// non-Map values (returns nil).
func (v Value) Sorted() []Pair {
	if v.Kind != KindMap {
		return nil
	}
	out := make([]Pair, len(v.Map))
	copy(out, v.Map)
	// Insertion sort is fine here: directories rarely have more than a few
	// hundred keys, and stability only matters for equal keys, which the
	// scanner's collision detection already forbids.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Key < out[j-1].Key; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Equal performs the semantic comparison the diff driver and invariant 4
// (one-way equivalence) rely on: map key order is irrelevant, sequence order
// is significant, and floats use total-order comparison (NaN equals NaN),
// per spec §3.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		// Int and Float that represent the same numeric value are still
		// considered different kinds by design: "5" parsed as an int must
		// not compare equal to 5.0 parsed as a float (scalar differs: 5 vs
		// "5" style mismatches are exactly what diff should report).
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return floatTotalOrderEqual(a.Float, b.Float)
	case KindString:
		return a.String == b.String
	case KindSeq:
		if len(a.Seq) != len(b.Seq) {
			return false
		}
		for i := range a.Seq {
			if !Equal(a.Seq[i], b.Seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		as, bs := a.Sorted(), b.Sorted()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i].Key != bs[i].Key {
				return false
			}
			if !Equal(as[i].Value, bs[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// floatTotalOrderEqual implements the spec's "NaN treated as equal to NaN"
// rule, which plain == does not give us.
func floatTotalOrderEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
