// Package assemble implements the assembler stage: it folds a scanned,
// parsed tree bottom-up into a single value.Value under a requested root
// mode, deciding at each directory whether it yields a mapping or a
// sequence. The "keep folding and report every problem" approach mirrors
// the teacher's internal/executor/graph.go, which collects every
// dependency-graph problem into a slice instead of aborting on the first
// one; the directory-folding and file-root/merge-under mechanics are
// grounded on jksmth-fyaml/internal/filetree/marshal.go's
// marshalParent/mergeTree.
package assemble

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ndintenfass/fyaml/internal/diagnostic"
	"github.com/ndintenfass/fyaml/internal/fragment"
	"github.com/ndintenfass/fyaml/internal/scan"
	"github.com/ndintenfass/fyaml/internal/value"
)

// SeqGapPolicy controls how a sequence directory with non-contiguous
// indices is reported.
type SeqGapPolicy int

const (
	SeqGapError SeqGapPolicy = iota
	SeqGapWarn
	SeqGapAllow
)

// RootMode selects how the top-level document is constructed.
type RootMode int

const (
	MapRoot RootMode = iota
	SeqRoot
	FileRoot
)

// Config controls the fold, mirroring spec §4.3's input.
type Config struct {
	RootMode    RootMode
	RootFile    *fragment.Result // parsed root file's Value, for FileRoot
	MergeUnder  string           // empty means "absent"
	HasMergeKey bool             // distinguishes an explicitly empty MergeUnder from "absent"
	SeqGaps     SeqGapPolicy
}

// Assemble folds root (the scanner's output) into a single Value per cfg,
// pushing every diagnostic it encounters onto sink.
func Assemble(root *scan.Node, parsed map[*scan.Node]fragment.Result, cfg Config, sink *diagnostic.Sink) value.Value {
	a := &assembler{parsed: parsed, seqGaps: cfg.SeqGaps, sink: sink}
	dirValue := a.foldDir(root)

	switch cfg.RootMode {
	case SeqRoot:
		if dirValue.Kind != value.KindSeq {
			sink.Add(diagnostic.Diagnostic{
				Code: "E051", Severity: diagnostic.Error,
				Summary: "root directory is not a sequence under --root-mode=seq-root",
			})
		}
		return dirValue
	case FileRoot:
		return a.foldFileRoot(dirValue, cfg, sink)
	default: // MapRoot
		return dirValue
	}
}

type assembler struct {
	parsed  map[*scan.Node]fragment.Result
	seqGaps SeqGapPolicy
	sink    *diagnostic.Sink
}

// foldedChild is one already-folded contributing entry of a directory,
// carrying just enough to decide sequence-vs-mapping mode and to build the
// resulting Value.
type foldedChild struct {
	key       string
	isNumeric bool
	mustQuote bool
	value     value.Value
}

// foldDir folds one directory node into a Value, recursing into
// subdirectories first (bottom-up) as spec §4.3 requires.
func (a *assembler) foldDir(dir *scan.Node) value.Value {
	children := make([]foldedChild, 0, len(dir.Children))

	for _, c := range dir.Children {
		if c.Kind == scan.KindDir {
			children = append(children, foldedChild{
				key:       c.DerivedKey,
				isNumeric: c.IsNumeric,
				mustQuote: c.MustQuote,
				value:     a.foldDir(c),
			})
			continue
		}
		res, ok := a.parsed[c]
		if !ok {
			continue // file failed to parse; already diagnosed by the parser stage.
		}
		children = append(children, foldedChild{
			key:       c.DerivedKey,
			isNumeric: c.IsNumeric,
			mustQuote: c.MustQuote,
			value:     res.Value,
		})
	}

	if len(children) == 0 {
		return value.NewMap(nil)
	}

	allNumeric, allNonNumeric := true, true
	for _, c := range children {
		if c.isNumeric {
			allNonNumeric = false
		} else {
			allNumeric = false
		}
	}

	switch {
	case allNumeric:
		sort.Slice(children, func(i, j int) bool {
			return numericKey(children[i].key) < numericKey(children[j].key)
		})
		a.checkSeqGaps(dir.Path, children)
		items := make([]value.Value, len(children))
		for i, c := range children {
			items[i] = c.value
		}
		return value.NewSeq(items)

	case allNonNumeric:
		pairs := make([]value.Pair, len(children))
		for i, c := range children {
			v := c.value
			v.MustQuote = c.mustQuote
			pairs[i] = value.Pair{Key: c.key, Value: v}
		}
		return value.NewMap(pairs)

	default:
		var numeric, nonNumeric []string
		for _, c := range children {
			if c.isNumeric {
				numeric = append(numeric, c.key)
			} else {
				nonNumeric = append(nonNumeric, c.key)
			}
		}
		sink := a.sink
		sink.Add(diagnostic.Diagnostic{
			Code: "E050", Severity: diagnostic.Error,
			Summary:        "directory mixes numeric and non-numeric keys",
			Paths:          []string{dir.Path},
			DerivedKeyPath: append(append([]string{}, numeric...), nonNumeric...),
		})
		return value.Null()
	}
}

func (a *assembler) checkSeqGaps(dirPath string, children []foldedChild) {
	for i, c := range children {
		if numericKey(c.key) != int64(i) {
			switch a.seqGaps {
			case SeqGapError:
				a.sink.Add(diagnostic.Diagnostic{Code: "E040", Severity: diagnostic.Error, Summary: "sequence directory has non-contiguous indices", Paths: []string{dirPath}})
			case SeqGapWarn:
				a.sink.Add(diagnostic.Diagnostic{Code: "W041", Severity: diagnostic.Warn, Summary: "sequence directory has non-contiguous indices", Paths: []string{dirPath}})
			}
			return
		}
	}
}

func numericKey(key string) int64 {
	var n int64
	for _, r := range key {
		n = n*10 + int64(r-'0')
	}
	return n
}

// foldFileRoot implements the FileRoot mode: the root file is parsed
// separately (the scanner already excluded it from the directory's own
// key contribution), and dirValue — the rest of the directory folded as
// MapRoot — is combined with it per spec §4.3's merge_under rules.
func (a *assembler) foldFileRoot(dirValue value.Value, cfg Config, sink *diagnostic.Sink) value.Value {
	if cfg.RootFile == nil {
		sink.Add(diagnostic.Diagnostic{Code: "E053", Severity: diagnostic.Error, Summary: "root_file was not provided for file-root mode"})
		return value.Null()
	}
	rootValue := cfg.RootFile.Value

	if !cfg.HasMergeKey {
		if hasContent(dirValue) {
			sink.Add(diagnostic.Diagnostic{
				Code: "W060", Severity: diagnostic.Warn,
				Summary: "directory content ignored: file-root has no --merge-under key",
			})
		}
		return rootValue
	}

	if rootValue.Kind != value.KindMap {
		sink.Add(diagnostic.Diagnostic{Code: "E053", Severity: diagnostic.Error, Summary: "root file does not parse to a mapping"})
		return value.Null()
	}

	target, found := rootValue.Get(cfg.MergeUnder)
	if !found {
		pairs := append(append([]value.Pair{}, rootValue.Map...), value.Pair{Key: cfg.MergeUnder, Value: dirValue})
		return value.NewMap(pairs)
	}

	if target.Kind != value.KindMap {
		if hasContent(dirValue) {
			sink.Add(diagnostic.Diagnostic{Code: "E053", Severity: diagnostic.Error, Summary: "merge_under key does not refer to a mapping", DerivedKeyPath: []string{cfg.MergeUnder}})
			return value.Null()
		}
		return rootValue
	}

	merged := make([]value.Pair, len(target.Map))
	copy(merged, target.Map)
	if dirValue.Kind == value.KindMap {
		for _, dp := range dirValue.Map {
			if _, ok := target.Get(dp.Key); ok {
				sink.Add(diagnostic.Diagnostic{
					Code: "E052", Severity: diagnostic.Error,
					Summary:        "merge conflict: directory key collides with root file key",
					DerivedKeyPath: []string{cfg.MergeUnder, dp.Key},
				})
				continue
			}
			merged = append(merged, dp)
		}
	}

	out := make([]value.Pair, 0, len(rootValue.Map))
	replaced := false
	for _, p := range rootValue.Map {
		if p.Key == cfg.MergeUnder {
			out = append(out, value.Pair{Key: cfg.MergeUnder, Value: value.NewMap(merged)})
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, value.Pair{Key: cfg.MergeUnder, Value: value.NewMap(merged)})
	}
	return value.NewMap(out)
}

// CollectFragmentNodes walks root and returns, for every file leaf whose
// fragment.Result retained a yaml.Node (i.e. it was parsed with
// fragment.Config.Preserve), a map from that leaf's path in the assembled
// document to its original node. The emitter uses this in preserve mode to
// re-render each fragment's internal order, comments, and scalar styles
// unchanged, per spec §4.4.
//
// Path keys use dot-joined derived keys for mapping-mode directories. For
// a directory that folds to a Sequence, the key uses "[i]" where i is the
// child's rank in ascending numeric-key order, which is its index in the
// emitted sequence (gaps are not filled, so "2" in a 0,2 directory is [1]).
func CollectFragmentNodes(root *scan.Node, parsed map[*scan.Node]fragment.Result) map[string]*yaml.Node {
	out := map[string]*yaml.Node{}
	collectFragmentNodes(root, "", parsed, out)
	return out
}

func collectFragmentNodes(n *scan.Node, path string, parsed map[*scan.Node]fragment.Result, out map[string]*yaml.Node) {
	if n.Kind == scan.KindFile {
		if res, ok := parsed[n]; ok && res.Node != nil {
			out[path] = res.Node
		}
		return
	}

	allNumeric := len(n.Children) > 0
	for _, c := range n.Children {
		if !c.IsNumeric {
			allNumeric = false
			break
		}
	}

	children := n.Children
	if allNumeric {
		children = append([]*scan.Node(nil), n.Children...)
		sort.SliceStable(children, func(i, j int) bool {
			return numericKey(children[i].DerivedKey) < numericKey(children[j].DerivedKey)
		})
	}

	for i, c := range children {
		var p string
		switch {
		case allNumeric:
			p = fmt.Sprintf("%s[%d]", path, i)
		case path == "":
			p = c.DerivedKey
		default:
			p = path + "." + c.DerivedKey
		}
		collectFragmentNodes(c, p, parsed, out)
	}
}

func hasContent(v value.Value) bool {
	switch v.Kind {
	case value.KindMap:
		return len(v.Map) > 0
	case value.KindSeq:
		return len(v.Seq) > 0
	case value.KindNull:
		return false
	default:
		return true
	}
}
