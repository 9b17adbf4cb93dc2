// Package table reshapes row-per-fact query results into one row per entity
// with deduplicated, human-readable values and the paths that reached it.
package table

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/persistorai/wdtree/internal/models"
)

// PrecisionSuffix names the companion column of a time-valued column.
const PrecisionSuffix = "_precision"

// Visited exposes the traversal state the table needs. *graph.Visit satisfies it.
type Visited interface {
	Nodes() []string
	Contains(id string) bool
	Paths(id string) [][]string
}

// Labeler renders ids as labels. *label.Labeler satisfies it.
type Labeler interface {
	Resolve(ctx context.Context, ids []string) error
	ToHumanReadable(token string) string
	HumanPath(path []string) []string
}

// group collects the distinct values of every column for one entity.
type group struct {
	columns map[string]*valueSet
}

type valueSet struct {
	seen   map[models.Value]struct{}
	values []models.Value
}

func (s *valueSet) add(v models.Value) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

// Aggregate groups rows by entity. Rows whose entity was not placed in the
// tree are discarded. Every column keeps all distinct values; time values
// travel with their precision as one unit and are split into the column and
// its precision companion only when rendered.
func Aggregate(ctx context.Context, rows []models.FlatRow, visit Visited, lab Labeler) (*models.Table, error) {
	groups := make(map[string]*group)
	var ids []string

	for _, row := range rows {
		if !visit.Contains(row.Entity) {
			continue
		}

		g, ok := groups[row.Entity]
		if !ok {
			g = &group{columns: make(map[string]*valueSet)}
			groups[row.Entity] = g
		}

		for col, vs := range row.Cells {
			set, ok := g.columns[col]
			if !ok {
				set = &valueSet{seen: make(map[models.Value]struct{})}
				g.columns[col] = set
			}
			for _, v := range vs {
				set.add(v)
				if v.Kind == models.KindIdentifier {
					ids = append(ids, v.Text)
				}
			}
		}
	}

	for _, entity := range visit.Nodes() {
		if _, ok := groups[entity]; !ok {
			continue
		}
		for _, p := range visit.Paths(entity) {
			ids = append(ids, p...)
		}
	}

	if err := lab.Resolve(ctx, ids); err != nil {
		return nil, fmt.Errorf("labelling table values: %w", err)
	}

	t := &models.Table{}
	columns := make(map[string]struct{})

	for _, entity := range visit.Nodes() {
		g, ok := groups[entity]
		if !ok {
			continue
		}

		row := models.TableRow{Entity: entity, Cells: make(map[string]models.Cell)}
		for col, set := range g.columns {
			for name, cell := range render(col, set.values, lab) {
				if len(cell) == 0 {
					continue
				}
				row.Cells[name] = cell
				columns[name] = struct{}{}
			}
		}
		row.Paths = humanPaths(visit.Paths(entity), lab)
		t.Rows = append(t.Rows, row)
	}

	t.Columns = orderColumns(columns)
	return t, nil
}

// render turns one column's values into output cells. Time values yield the
// column itself plus its precision companion, one precision per time in the
// same order, so each (time, precision) pair stays aligned. Other values are
// compared after labelling, so two ids sharing a label appear once.
func render(col string, values []models.Value, lab Labeler) map[string]models.Cell {
	var plain []string
	var times []models.Value
	hasPrecision := false

	for _, v := range values {
		switch v.Kind {
		case models.KindIdentifier:
			plain = append(plain, lab.ToHumanReadable(v.Text))
		case models.KindTime:
			times = append(times, v)
			hasPrecision = hasPrecision || v.Precision > 0
		case models.KindText:
			plain = append(plain, v.Text)
		case models.KindUnhandled:
			plain = append(plain, v.String())
		default:
			panic(fmt.Sprintf("table: unknown value kind %d", v.Kind))
		}
	}

	sort.Strings(plain)
	plain = slices.Compact(plain)

	// Values arrive deduplicated, so every time here is a distinct pair.
	sort.Slice(times, func(i, j int) bool {
		if times[i].Text != times[j].Text {
			return times[i].Text < times[j].Text
		}
		return times[i].Precision < times[j].Precision
	})

	cell := make(models.Cell, 0, len(times)+len(plain))
	for _, v := range times {
		cell = append(cell, v.Text)
	}
	cell = append(cell, plain...)

	out := map[string]models.Cell{col: cell}
	if hasPrecision {
		prec := make(models.Cell, len(times))
		for i, v := range times {
			if v.Precision > 0 {
				prec[i] = strconv.Itoa(v.Precision)
			}
		}
		out[col+PrecisionSuffix] = prec
	}
	return out
}

// humanPaths labels every path and drops duplicates, keeping first-seen order.
func humanPaths(paths [][]string, lab Labeler) [][]string {
	out := make([][]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		hp := lab.HumanPath(p)
		key := strings.Join(hp, "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, hp)
	}
	return out
}

// orderColumns puts the entity column first, the remaining columns in
// case-insensitive order, and the paths column last.
func orderColumns(set map[string]struct{}) []string {
	cols := make([]string, 0, len(set))
	for c := range set {
		if c == models.ColumnEntity || c == models.ColumnPaths {
			continue
		}
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool {
		li, lj := strings.ToLower(cols[i]), strings.ToLower(cols[j])
		if li != lj {
			return li < lj
		}
		return cols[i] < cols[j]
	})

	out := make([]string, 0, len(cols)+2)
	out = append(out, models.ColumnEntity)
	out = append(out, cols...)
	return append(out, models.ColumnPaths)
}
