// Package scan implements the scanner stage: it walks a directory tree,
// classifies each entry, derives and validates a key for every contributing
// entry, and detects collisions — all before a single byte of YAML is
// parsed. The walk itself is grounded on the teacher's
// internal/fileutil.ScanDirectory (filepath.WalkDir, sorted output, hidden-
// entry skip) and on jksmth-fyaml/internal/filetree's
// collectNodes/buildTree two-pass approach (collect everything, then
// reassemble into a tree), adapted here to emit collisions into a
// diagnostic.Sink instead of failing fast.
package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/ndintenfass/fyaml/internal/diagnostic"
)

// Kind distinguishes a file leaf from a directory in the scanned tree.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// IgnoreReason explains why a filesystem entry did not become a
// contributing ScanNode.
type IgnoreReason int

const (
	NonYamlExtension IgnoreReason = iota
	Hidden
	EditorJunk
	UnreadableSkipped
)

func (r IgnoreReason) String() string {
	switch r {
	case NonYamlExtension:
		return "non_yaml_extension"
	case Hidden:
		return "hidden"
	case EditorJunk:
		return "editor_junk"
	case UnreadableSkipped:
		return "unreadable_skipped"
	default:
		return "unknown"
	}
}

// IgnoredEntry records a filesystem entry that the scanner chose not to
// contribute to the tree, together with the rule that excluded it so
// `explain` can report it.
type IgnoredEntry struct {
	Path   string
	Reason IgnoreReason
	RuleID string
}

// Node is a tagged variant mirroring spec's ScanNode: a FileNode or a
// DirNode, selected by Kind. Only Kind's matching fields are meaningful.
type Node struct {
	Kind Kind

	Path       string
	DerivedKey string // empty for the root DirNode
	IsNumeric  bool
	MustQuote  bool // reserved-word key accepted under AllowReservedKeys

	// File-only.
	Ext string

	// Transparent names the "@NAME" grouping-directory convention
	// (jksmth-fyaml, see SUPPLEMENTED FEATURES). Scan never sets it: an
	// "@NAME" directory's Children are folded into its parent during the
	// scan, so the grouping directory itself never appears in the tree.
	Transparent bool

	// Dir-only.
	Children []*Node
	Ignored  []IgnoredEntry
}

var reservedKeys = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true,
	"null": true, "on": true, "off": true,
}

var numericKeyPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// Config controls the scanner's ignore filters and key-validation policy.
type Config struct {
	IncludeHidden     bool
	EditorJunkGlobs   []string
	MaxYAMLBytes      int64 // 0 means unlimited; enforced by the parser, recorded here for symmetry
	AllowReservedKeys bool
	AllowDottedKeys   bool

	// ExcludePath, when non-empty, names one absolute path (the file-root
	// mode's root_file) to silently exclude from the top-level directory's
	// key contribution, per spec 4.3's FileRoot handling.
	ExcludePath string
}

// DefaultConfig returns the scanner defaults named in spec §4.1.
func DefaultConfig() Config {
	return Config{
		IncludeHidden:   false,
		EditorJunkGlobs: []string{"*~", ".DS_Store", "Thumbs.db"},
	}
}

// Scan walks rootDir and returns the root DirNode of the contributing
// ScanTree, pushing every diagnostic it encounters onto sink. The returned
// Node is never nil even when the tree is empty (an empty root folds to an
// empty mapping downstream).
func Scan(rootDir string, cfg Config, sink *diagnostic.Sink) (*Node, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	w := &walker{cfg: cfg, sink: sink, visited: map[string]bool{}}
	root := w.scanDir(absRoot, "")
	root.DerivedKey = ""
	return root, nil
}

type walker struct {
	cfg     Config
	sink    *diagnostic.Sink
	visited map[string]bool
}

// scanDir scans one directory and returns its Node, recursing into
// subdirectories first so that a directory's contributing status can be
// determined from its already-folded children.
func (w *walker) scanDir(dirPath, derivedKey string) *Node {
	node := &Node{Kind: KindDir, Path: dirPath, DerivedKey: derivedKey}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		w.sink.Add(diagnostic.Diagnostic{
			Code:     "E100",
			Severity: diagnostic.Error,
			Summary:  "directory could not be read",
			Cause:    "io_read",
			Paths:    []string{dirPath},
		})
		return node
	}

	type candidate struct {
		node        *Node
		transparent bool
	}
	var candidates []candidate

	for _, entry := range entries {
		name := entry.Name()
		fullPath := filepath.Join(dirPath, name)

		if w.cfg.ExcludePath != "" && fullPath == w.cfg.ExcludePath {
			continue
		}
		if !w.cfg.IncludeHidden && isHidden(name) {
			node.Ignored = append(node.Ignored, IgnoredEntry{Path: fullPath, Reason: Hidden, RuleID: "hidden"})
			continue
		}
		if matchesAny(name, w.cfg.EditorJunkGlobs) {
			node.Ignored = append(node.Ignored, IgnoredEntry{Path: fullPath, Reason: EditorJunk, RuleID: "editor_junk"})
			continue
		}

		info, typ, ok := w.resolve(fullPath, entry)
		if !ok {
			node.Ignored = append(node.Ignored, IgnoredEntry{Path: fullPath, Reason: UnreadableSkipped, RuleID: "symlink_or_unreadable"})
			continue
		}

		if typ == KindDir {
			base := name
			transparent := strings.HasPrefix(base, "@")
			key := base
			if transparent {
				key = strings.TrimPrefix(base, "@")
			}
			child := w.scanDir(fullPath, key)
			if !contributes(child) {
				continue // non-contributing subtree: silently omitted, not an error.
			}
			w.assignKey(child, key, fullPath)
			candidates = append(candidates, candidate{node: child, transparent: transparent})
			continue
		}

		// Regular (or symlinked-to-regular) file.
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yml" && ext != ".yaml" {
			node.Ignored = append(node.Ignored, IgnoredEntry{Path: fullPath, Reason: NonYamlExtension, RuleID: "non_yaml_extension"})
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		transparent := strings.HasPrefix(stem, "@")
		key := stem
		if transparent {
			key = strings.TrimPrefix(stem, "@")
		}
		fileNode := &Node{Kind: KindFile, Path: fullPath, Ext: ext}
		w.assignKey(fileNode, key, fullPath)
		_ = info
		candidates = append(candidates, candidate{node: fileNode, transparent: transparent})
	}

	// Fold transparent "@NAME" directories/files into this directory's own
	// child list before collision detection, so an @group's children are
	// checked for collisions against true siblings too.
	var flat []*Node
	for _, c := range candidates {
		if c.transparent && c.node.Kind == KindDir {
			flat = append(flat, c.node.Children...)
			continue
		}
		flat = append(flat, c.node)
	}

	node.Children = w.resolveCollisions(flat)
	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].DerivedKey < node.Children[j].DerivedKey
	})
	return node
}

// resolve classifies a directory entry, following a symlink only when it
// resolves to a regular file; the target is not checked to lie within the
// scan root. It reports ok=false for anything that should be silently
// ignored as unreadable (broken symlinks, symlinks to directories, or a
// symlink whose target an earlier symlink already resolved to).
func (w *walker) resolve(fullPath string, entry os.DirEntry) (os.FileInfo, Kind, bool) {
	if entry.Type()&os.ModeSymlink != 0 {
		real, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			return nil, 0, false
		}
		if w.visited[real] {
			return nil, 0, false
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, 0, false
		}
		if info.IsDir() {
			// Spec: symlinks are followed only to regular files.
			return nil, 0, false
		}
		w.visited[real] = true
		return info, KindFile, true
	}
	info, err := entry.Info()
	if err != nil {
		return nil, 0, false
	}
	if info.IsDir() {
		return info, KindDir, true
	}
	if info.Mode().IsRegular() {
		return info, KindFile, true
	}
	return nil, 0, false
}

// assignKey validates a key already derived for a file or directory node,
// pushing diagnostics for empty, reserved, or dotted keys and setting
// IsNumeric/MustQuote accordingly.
func (w *walker) assignKey(n *Node, key, path string) {
	if key == "" {
		w.sink.Add(diagnostic.Diagnostic{
			Code: "E011", Severity: diagnostic.Error,
			Summary: "derived key is empty", Paths: []string{path},
		})
		n.DerivedKey = ""
		return
	}
	lower := strings.ToLower(key)
	if reservedKeys[lower] {
		if w.cfg.AllowReservedKeys {
			n.MustQuote = true
		} else {
			w.sink.Add(diagnostic.Diagnostic{
				Code: "E010", Severity: diagnostic.Error,
				Summary:        "key collides with a reserved YAML word",
				Cause:          "reserved_key",
				Action:         "rename the file/directory or pass --allow-reserved-keys",
				Paths:          []string{path},
				DerivedKeyPath: []string{key},
			})
			n.DerivedKey = ""
			return
		}
	}
	if strings.Contains(key, ".") && !w.cfg.AllowDottedKeys {
		w.sink.Add(diagnostic.Diagnostic{
			Code: "W020", Severity: diagnostic.Warn,
			Summary:        "key contains a dot",
			Cause:          "dotted_key",
			Action:         "pass --allow-dotted-keys to silence this warning",
			Paths:          []string{path},
			DerivedKeyPath: []string{key},
		})
	}
	n.DerivedKey = key
	n.IsNumeric = numericKeyPattern.MatchString(key)
}

// resolveCollisions groups candidates by derived key (exact, then
// case-folded) and reports every collision it finds, excluding all
// colliding entries from the returned slice per spec 4.1.5.
func (w *walker) resolveCollisions(candidates []*Node) []*Node {
	byExact := map[string][]*Node{}
	for _, n := range candidates {
		if n.DerivedKey == "" {
			continue // already diagnosed as E010/E011, excluded
		}
		byExact[n.DerivedKey] = append(byExact[n.DerivedKey], n)
	}

	excluded := map[*Node]bool{}
	for key, group := range byExact {
		if len(group) < 2 {
			continue
		}
		paths := pathsOf(group)
		hasDir, hasFile := false, false
		for _, n := range group {
			if n.Kind == KindDir {
				hasDir = true
			} else {
				hasFile = true
			}
		}
		code, summary := "E002", "duplicate extension for the same key"
		if hasDir && hasFile {
			code, summary = "E001", "file and directory share the same key"
		}
		w.sink.Add(diagnostic.Diagnostic{
			Code: code, Severity: diagnostic.Error,
			Summary:        summary,
			Paths:          paths,
			DerivedKeyPath: []string{key},
		})
		for _, n := range group {
			excluded[n] = true
		}
	}

	// Case-fold collisions among entries that survived exact-key grouping.
	byFold := map[string][]*Node{}
	for _, n := range candidates {
		if excluded[n] || n.DerivedKey == "" {
			continue
		}
		fold := caseFold(n.DerivedKey)
		byFold[fold] = append(byFold[fold], n)
	}
	for _, group := range byFold {
		if len(group) < 2 {
			continue
		}
		w.sink.Add(diagnostic.Diagnostic{
			Code: "E003", Severity: diagnostic.Error,
			Summary: "keys collide under Unicode case folding",
			Paths:   pathsOf(group),
		})
		for _, n := range group {
			excluded[n] = true
		}
	}

	out := make([]*Node, 0, len(candidates))
	for _, n := range candidates {
		if !excluded[n] && n.DerivedKey != "" {
			out = append(out, n)
		}
	}
	return out
}

// contributes reports whether a directory node has at least one
// contributing descendant, per spec's "contributing entry" definition.
func contributes(n *Node) bool {
	if n.Kind == KindFile {
		return true
	}
	return len(n.Children) > 0
}

func pathsOf(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path
	}
	return out
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func matchesAny(name string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

// caseFold implements Unicode simple case folding for collision detection,
// independent of the host filesystem's own case sensitivity.
func caseFold(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(unicode.ToLower(unicode.ToUpper(r)))
	}
	return b.String()
}
