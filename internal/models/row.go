package models

// FlatRow is one record of the batched query: an entity and the fact values
// returned alongside it. A column missing from Cells means the fact is absent.
type FlatRow struct {
	Entity string
	Cells  map[string][]Value
}

// NewFlatRow creates an empty row for entity.
func NewFlatRow(entity string) FlatRow {
	return FlatRow{Entity: entity, Cells: make(map[string][]Value)}
}

// Add appends v to column.
func (r FlatRow) Add(column string, v Value) {
	r.Cells[column] = append(r.Cells[column], v)
}

// First returns the first value of column, if any.
func (r FlatRow) First(column string) (Value, bool) {
	vs := r.Cells[column]
	if len(vs) == 0 {
		return Value{}, false
	}

	return vs[0], true
}
