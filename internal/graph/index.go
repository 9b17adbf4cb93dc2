// Package graph indexes flat query rows by parent and walks the resulting
// adjacency structure into a flare tree.
package graph

import (
	"sort"

	"github.com/persistorai/wdtree/internal/models"
)

// Index maps a parent entity to the entities that name it under a membership
// relation. It is read-only once built.
type Index struct {
	children map[string][]string
	edges    int
}

// NewIndex builds the adjacency index from rows. Every present value of a
// membership column is a parent of the row's entity; rows without such values
// contribute no edges.
func NewIndex(rows []models.FlatRow, membership []string) *Index {
	sets := make(map[string]map[string]struct{})

	for _, row := range rows {
		child := models.LastSegment(row.Entity)
		if child == "" {
			continue
		}

		for _, col := range membership {
			for _, v := range row.Cells[col] {
				parent := models.LastSegment(v.Text)
				if parent == "" {
					continue
				}
				if sets[parent] == nil {
					sets[parent] = make(map[string]struct{})
				}
				sets[parent][child] = struct{}{}
			}
		}
	}

	ix := &Index{children: make(map[string][]string, len(sets))}
	for parent, set := range sets {
		kids := make([]string, 0, len(set))
		for k := range set {
			kids = append(kids, k)
		}
		sort.Strings(kids)
		ix.children[parent] = kids
		ix.edges += len(kids)
	}

	return ix
}

// Children returns the unique children of id. The slice must not be modified.
func (ix *Index) Children(id string) []string {
	return ix.children[id]
}

// Parents returns the number of entities that have at least one child.
func (ix *Index) Parents() int {
	return len(ix.children)
}

// Edges returns the number of distinct (child, parent) pairs.
func (ix *Index) Edges() int {
	return ix.edges
}
