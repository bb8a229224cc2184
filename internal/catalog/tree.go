package catalog

import (
	"sort"
	"strconv"
	"strings"

	"inventory-marketplace/internal/domain"
)

// RootPath is the stored path of a root category.
func RootPath(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ChildPath is the stored path of category id placed under parentPath.
func ChildPath(parentPath string, id int64) string {
	return parentPath + domain.PathSeparator + strconv.FormatInt(id, 10)
}

// SplitPath returns the ancestor ids encoded in path, root first. Segments
// that are not numbers are skipped.
func SplitPath(path string) []int64 {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, domain.PathSeparator)
	ids := make([]int64, 0, len(segments))
	for _, seg := range segments {
		id, err := strconv.ParseInt(seg, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// PathContains reports whether id is one of the full segments of path.
// "1.12" does not contain 2.
func PathContains(path string, id int64) bool {
	for _, ancestor := range SplitPath(path) {
		if ancestor == id {
			return true
		}
	}
	return false
}

// Tree is an in-memory parent/children index over a flat category table.
// Siblings are ordered by name, then id.
type Tree struct {
	byID     map[int64]domain.Category
	children map[int64][]int64 // key 0 holds the roots
}

// NewTree indexes categories. Rows whose parent is missing from the input are
// treated as roots.
func NewTree(categories []domain.Category) *Tree {
	t := &Tree{
		byID:     make(map[int64]domain.Category, len(categories)),
		children: make(map[int64][]int64),
	}
	for _, c := range categories {
		t.byID[c.ID] = c
	}
	for _, c := range categories {
		parent := int64(0)
		if c.ParentID != nil {
			if _, ok := t.byID[*c.ParentID]; ok {
				parent = *c.ParentID
			}
		}
		t.children[parent] = append(t.children[parent], c.ID)
	}
	for parent, ids := range t.children {
		sort.Slice(ids, func(i, j int) bool {
			a, b := t.byID[ids[i]], t.byID[ids[j]]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
		t.children[parent] = ids
	}
	return t
}

// Get returns the category with the given id.
func (t *Tree) Get(id int64) (domain.Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// HasChildren reports whether id has at least one child.
func (t *Tree) HasChildren(id int64) bool {
	return len(t.children[id]) > 0
}

// NamePath returns the names from the root down to id.
func (t *Tree) NamePath(id int64) []string {
	var names []string
	seen := make(map[int64]bool)
	for cur, ok := t.byID[id]; ok && !seen[cur.ID]; {
		seen[cur.ID] = true
		names = append(names, cur.Name)
		if cur.ParentID == nil {
			break
		}
		cur, ok = t.byID[*cur.ParentID]
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// Node decorates a category with its name path and children flag.
func (t *Tree) Node(id int64) (domain.CategoryNode, bool) {
	c, ok := t.byID[id]
	if !ok {
		return domain.CategoryNode{}, false
	}
	return domain.CategoryNode{
		Category:    c,
		NamePath:    t.NamePath(id),
		HasChildren: t.HasChildren(id),
	}, true
}

// Walk visits id and all its descendants depth-first, parents before children.
// Returning false from fn skips the subtree below that node.
func (t *Tree) Walk(id int64, fn func(c domain.Category, depth int) bool) {
	t.walk(id, 0, fn, make(map[int64]bool))
}

func (t *Tree) walk(id int64, depth int, fn func(domain.Category, int) bool, seen map[int64]bool) {
	c, ok := t.byID[id]
	if !ok || seen[id] {
		return
	}
	seen[id] = true
	if !fn(c, depth) {
		return
	}
	for _, child := range t.children[id] {
		t.walk(child, depth+1, fn, seen)
	}
}

// Flatten returns every category in pre-order, starting from the roots.
func (t *Tree) Flatten() []domain.CategoryNode {
	out := make([]domain.CategoryNode, 0, len(t.byID))
	for _, root := range t.children[0] {
		out = append(out, t.Subtree(root)...)
	}
	return out
}

// Subtree returns id and its descendants in pre-order.
func (t *Tree) Subtree(id int64) []domain.CategoryNode {
	var out []domain.CategoryNode
	t.Walk(id, func(c domain.Category, _ int) bool {
		node, _ := t.Node(c.ID)
		out = append(out, node)
		return true
	})
	return out
}
