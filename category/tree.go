package category

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/goliatone/go-component-search/catalog"
)

// Node is one category in the navigation hierarchy.
type Node struct {
	Name     string   `json:"name"`
	Path     []string `json:"path"`
	Children []*Node  `json:"children,omitempty"`
}

// Tree is the navigation hierarchy plus a flat two-level index for views
// that render tabs rather than a recursive tree.
type Tree struct {
	Categories []*Node `json:"categories"`

	// SubCategories maps top label -> second label -> third-level labels.
	SubCategories map[string]map[string][]string `json:"subCategories"`

	// Fallback is set when the tree is the hard-coded placeholder.
	Fallback bool `json:"fallback,omitempty"`
}

// fallbackCategories is served when the store yields no paths.
var fallbackCategories = []string{
	"Capacitors",
	"Connectors",
	"Crystals and Oscillators",
	"Diodes",
	"Inductors",
	"Integrated Circuits",
	"Optoelectronics",
	"Relays",
	"Resistors",
	"Transistors",
}

// BuildTree folds stored paths into a sorted, deduplicated hierarchy.
// Paths are normalized to root-to-leaf first; legacy strings are split on
// their separators.
func BuildTree(paths []catalog.FamilyPath) *Tree {
	tree := &Tree{SubCategories: map[string]map[string][]string{}}
	index := map[string]*Node{}
	seen := map[string]struct{}{}

	for _, p := range paths {
		segs := p.RootToLeaf()
		if len(segs) == 0 {
			continue
		}
		key := catalog.PathOf(segs...).Serialized()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		tree.insert(index, segs)
		tree.index(segs)
	}

	c := newCollator()
	c.sortNodes(tree.Categories)
	for _, seconds := range tree.SubCategories {
		for second, leaves := range seconds {
			seconds[second] = c.sortStrings(dedupe(leaves))
		}
	}
	return tree
}

// FallbackTree returns the placeholder shown when no categories are known.
func FallbackTree() *Tree {
	tree := &Tree{SubCategories: map[string]map[string][]string{}, Fallback: true}
	for _, name := range fallbackCategories {
		tree.Categories = append(tree.Categories, &Node{Name: name, Path: []string{name}})
		tree.SubCategories[name] = map[string][]string{}
	}
	return tree
}

// IsEmpty reports whether the tree has no categories.
func (t *Tree) IsEmpty() bool {
	return t == nil || len(t.Categories) == 0
}

// Find returns the node at the root-to-leaf path, or nil.
func (t *Tree) Find(path ...string) *Node {
	if t == nil || len(path) == 0 {
		return nil
	}
	nodes := t.Categories
	var found *Node
	for _, name := range path {
		found = nil
		for _, n := range nodes {
			if n.Name == name {
				found = n
				break
			}
		}
		if found == nil {
			return nil
		}
		nodes = found.Children
	}
	return found
}

func (t *Tree) insert(index map[string]*Node, segs []string) {
	siblings := &t.Categories
	for depth := range segs {
		key := strings.Join(segs[:depth+1], "\x00")
		node, ok := index[key]
		if !ok {
			node = &Node{Name: segs[depth], Path: append([]string(nil), segs[:depth+1]...)}
			index[key] = node
			*siblings = append(*siblings, node)
		}
		siblings = &node.Children
	}
}

func (t *Tree) index(segs []string) {
	top := segs[0]
	seconds, ok := t.SubCategories[top]
	if !ok {
		seconds = map[string][]string{}
		t.SubCategories[top] = seconds
	}
	if len(segs) < 2 {
		return
	}
	leaves := seconds[segs[1]]
	if len(segs) >= 3 {
		leaves = append(leaves, segs[len(segs)-1])
	}
	if leaves == nil {
		leaves = []string{}
	}
	seconds[segs[1]] = leaves
}

type collator struct {
	c *collate.Collator
}

// newCollator returns a locale-aware comparer. Collators are not safe for
// concurrent use, so each build gets its own.
func newCollator() collator {
	return collator{c: collate.New(language.English, collate.IgnoreCase)}
}

func (c collator) less(a, b string) bool {
	if r := c.c.CompareString(a, b); r != 0 {
		return r < 0
	}
	return a < b
}

func (c collator) sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return c.less(nodes[i].Name, nodes[j].Name) })
	for _, n := range nodes {
		c.sortNodes(n.Children)
	}
}

func (c collator) sortStrings(s []string) []string {
	sort.SliceStable(s, func(i, j int) bool { return c.less(s[i], s[j]) })
	return s
}

func dedupe(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	out := s[:0]
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
