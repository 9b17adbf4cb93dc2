package query

import (
	"strconv"
	"strings"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/models"
)

const xsdDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"

// Decode converts result bindings to flat rows. Entity resources become
// identifiers with the URI prefix stripped; time columns are paired with their
// precision column. Rows without an entity binding are dropped.
func (q *Query) Decode(res *client.Results) []models.FlatRow {
	companions := make(map[string]bool, len(q.Precision))
	for _, prec := range q.Precision {
		companions[prec] = true
	}

	rows := make([]models.FlatRow, 0, len(res.Bindings()))
	for _, b := range res.Bindings() {
		entity, ok := b[models.ColumnEntity]
		if !ok {
			continue
		}
		row := models.NewFlatRow(models.LastSegment(entity.Value))

		for _, col := range q.Columns {
			if companions[col] {
				continue
			}
			term, ok := b[col]
			if !ok {
				continue
			}

			if prec, timed := q.Precision[col]; timed {
				p, _ := strconv.Atoi(b.Value(prec))
				row.Add(col, models.Time(term.Value, p))
				continue
			}
			row.Add(col, TermValue(term))
		}
		rows = append(rows, row)
	}
	return rows
}

// TermValue types a single RDF term.
func TermValue(t client.Term) models.Value {
	switch t.Type {
	case "uri":
		if strings.HasPrefix(t.Value, models.EntityPrefix) {
			return models.Identifier(models.StripEntityPrefix(t.Value))
		}
		return models.Text(t.Value)
	case "literal", "typed-literal":
		if t.Datatype == xsdDateTime {
			return models.Time(t.Value, 0)
		}
		return models.Text(t.Value)
	default:
		return models.Unhandled(t.Type)
	}
}
