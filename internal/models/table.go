package models

import "encoding/json"

// Table column names that are not derived from properties or labels.
const (
	ColumnEntity = "entity"
	ColumnPaths  = "paths"
)

// Cell holds the distinct values of one column for one entity.
type Cell []string

// MarshalJSON renders a single value as a bare scalar and several as a list.
func (c Cell) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}

	return json.Marshal([]string(c))
}

// TableRow is one entity of the aggregated table.
type TableRow struct {
	Entity string
	Cells  map[string]Cell
	Paths  [][]string
}

// Table is the row-per-entity result with a stable column order.
type Table struct {
	Columns []string
	Rows    []TableRow
}

// Records converts the table to column-keyed maps ready for serialization.
// Empty cells are omitted.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := map[string]any{ColumnEntity: row.Entity}
		for col, cell := range row.Cells {
			if len(cell) > 0 {
				rec[col] = cell
			}
		}

		paths := row.Paths
		if paths == nil {
			paths = [][]string{}
		}
		rec[ColumnPaths] = paths
		out = append(out, rec)
	}

	return out
}
