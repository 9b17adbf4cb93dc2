package graph

import (
	"slices"

	"github.com/persistorai/wdtree/internal/models"
)

// Options tunes tree construction.
type Options struct {
	// Forbidden entities are never placed in the tree.
	Forbidden []string

	// ExpandOnce emits an entity that was already expanded elsewhere as a leaf
	// instead of repeating its subtree. The path that reached it is still
	// recorded, but its descendants only carry the paths of the first expansion.
	ExpandOnce bool
}

// frame is one entity on the explicit traversal stack.
type frame struct {
	id      string
	path    []string // ancestors followed by id
	pending []string
	built   []models.TreeNode
}

// Build walks ix depth-first from root and returns the flare tree. ancestors
// is the path already leading to root (usually nil). Traversal state is
// accumulated into v.
//
// A child is skipped when it is already on the current path (which stops
// cycles and self loops) or forbidden. The same child may still appear in
// several branches when it has several parents.
func Build(ix *Index, root string, ancestors []string, v *Visit, opts Options) models.TreeNode {
	forbidden := make(map[string]struct{}, len(opts.Forbidden))
	for _, id := range opts.Forbidden {
		forbidden[id] = struct{}{}
	}

	enter := func(id string, ancestors []string) (models.TreeNode, *frame) {
		v.record(id, ancestors)

		kids := ix.Children(id)
		if slices.Contains(kids, id) {
			// A self loop alone leaves the entity a leaf.
			kids = slices.DeleteFunc(slices.Clone(kids), func(k string) bool { return k == id })
		}
		if len(kids) == 0 || (opts.ExpandOnce && v.expanded[id]) {
			return &models.Leaf{Name: id}, nil
		}
		v.expanded[id] = true

		path := make([]string, len(ancestors), len(ancestors)+1)
		copy(path, ancestors)
		path = append(path, id)

		pending := make([]string, 0, len(kids))
		for _, k := range kids {
			if _, skip := forbidden[k]; skip || slices.Contains(path, k) {
				continue
			}
			pending = append(pending, k)
		}

		return nil, &frame{id: id, path: path, pending: pending}
	}

	node, top := enter(root, ancestors)
	if top == nil {
		return node
	}

	stack := []*frame{top}
	for {
		f := stack[len(stack)-1]

		if len(f.pending) > 0 {
			child := f.pending[0]
			f.pending = f.pending[1:]

			n, next := enter(child, f.path)
			if next != nil {
				stack = append(stack, next)
			} else {
				f.built = append(f.built, n)
			}
			continue
		}

		stack = stack[:len(stack)-1]
		done := f.finish()
		if len(stack) == 0 {
			return done
		}
		parent := stack[len(stack)-1]
		parent.built = append(parent.built, done)
	}
}

// finish groups leaf children under a trailing singleEntries node.
func (f *frame) finish() *models.Internal {
	structured := make([]models.TreeNode, 0, len(f.built)+1)
	singles := make([]models.TreeNode, 0)

	for _, c := range f.built {
		if _, ok := c.(*models.Internal); ok {
			structured = append(structured, c)
		} else {
			singles = append(singles, c)
		}
	}

	structured = append(structured, &models.Internal{Name: models.SingleEntries, Children: singles})
	return &models.Internal{Name: f.id, Children: structured}
}
