package graph

import "strings"

// Visit is the state one traversal accumulates: the entities placed in the
// tree and every distinct ancestor sequence that reached each of them. It is
// owned by a single traversal and only grows.
type Visit struct {
	order    []string
	paths    map[string][][]string
	pathKeys map[string]map[string]struct{}
	expanded map[string]bool
}

// NewVisit creates empty traversal state.
func NewVisit() *Visit {
	return &Visit{
		paths:    make(map[string][][]string),
		pathKeys: make(map[string]map[string]struct{}),
		expanded: make(map[string]bool),
	}
}

// record notes that id was reached through ancestors (root first).
func (v *Visit) record(id string, ancestors []string) {
	keys, ok := v.pathKeys[id]
	if !ok {
		v.order = append(v.order, id)
		keys = make(map[string]struct{})
		v.pathKeys[id] = keys
	}

	key := strings.Join(ancestors, "\x00")
	if _, dup := keys[key]; dup {
		return
	}
	keys[key] = struct{}{}

	path := make([]string, len(ancestors))
	copy(path, ancestors)
	v.paths[id] = append(v.paths[id], path)
}

// Nodes returns the entities placed in the tree, in first-visit order.
func (v *Visit) Nodes() []string {
	return v.order
}

// Contains reports whether id was placed in the tree.
func (v *Visit) Contains(id string) bool {
	_, ok := v.pathKeys[id]
	return ok
}

// Paths returns the distinct ancestor sequences that reached id.
func (v *Visit) Paths(id string) [][]string {
	return v.paths[id]
}
