// Package claims converts Wikibase entity documents into flat rows, keeping
// the typing of claim values and the qualifiers attached to each claim.
package claims

import (
	"encoding/json"
	"strings"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/models"
)

// Column prefixes for the term fields of an entity.
const (
	labelKind       = "label"
	descriptionKind = "description"
	aliasKind       = "altLabel"
)

type entityIDValue struct {
	ID string `json:"id"`
}

type timeValue struct {
	Time      string `json:"time"`
	Precision int    `json:"precision"`
}

type monolingualValue struct {
	Text string `json:"text"`
}

// Decode flattens e into one row. columns maps a property id to the column its
// main values go to; claims of other properties are ignored. Qualifiers of a
// kept claim go to "<property>_<qualifier>" columns.
func Decode(e client.Entity, columns map[string]string, languages []string) models.FlatRow {
	row := models.NewFlatRow(e.ID)

	for pid, statements := range e.Claims {
		col, ok := columns[pid]
		if !ok {
			continue
		}

		for _, st := range statements {
			if v, ok := SnakValue(st.Mainsnak); ok {
				row.Add(col, v)
			}

			for qid, snaks := range st.Qualifiers {
				qcol := pid + "_" + qid
				for _, s := range snaks {
					if v, ok := SnakValue(s); ok {
						row.Add(qcol, v)
					}
				}
			}
		}
	}

	for _, lang := range languages {
		if v, ok := e.Labels[lang]; ok {
			row.Add(labelKind+"_"+lang, models.Text(v.Value))
		}
		if v, ok := e.Descriptions[lang]; ok {
			row.Add(descriptionKind+"_"+lang, models.Text(v.Value))
		}
		for _, a := range e.Aliases[lang] {
			row.Add(aliasKind+"_"+lang, models.Text(a.Value))
		}
	}

	return row
}

// SnakValue types the value of a snak. Snaks without a value (somevalue,
// novalue) and undecodable payloads report false.
func SnakValue(s client.Snak) (models.Value, bool) {
	if s.SnakType != "value" || s.DataValue == nil {
		return models.Value{}, false
	}
	raw := s.DataValue.Value

	switch s.DataValue.Type {
	case "wikibase-entityid":
		var v entityIDValue
		if err := json.Unmarshal(raw, &v); err != nil || v.ID == "" {
			return models.Value{}, false
		}
		return models.Identifier(v.ID), true
	case "time":
		var v timeValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return models.Value{}, false
		}
		return models.Time(strings.TrimPrefix(v.Time, "+"), v.Precision), true
	case "string":
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return models.Value{}, false
		}
		return models.Text(v), true
	case "monolingualtext":
		var v monolingualValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return models.Value{}, false
		}
		return models.Text(v.Text), true
	default:
		return models.Unhandled(s.DataValue.Type), true
	}
}
