package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/claims"
	"github.com/persistorai/wdtree/internal/models"
	"github.com/persistorai/wdtree/internal/query"
)

type entityOutput struct {
	Entity string              `json:"entity"`
	Cells  map[string][]string `json:"cells"`
}

func newEntityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entity ID...",
		Short: "Show the configured claims of entities, qualifiers included",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if !models.IsEntityID(id) {
					return fmt.Errorf("%q: %w", id, models.ErrInvalidEntity)
				}
			}

			out, err := fetchEntities(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("entity failed: %w", err)
			}

			if flagFmt == "json" {
				formatJSON(out)
				return nil
			}

			var rows [][]string
			for _, e := range out {
				cols := make([]string, 0, len(e.Cells))
				for col := range e.Cells {
					cols = append(cols, col)
				}
				slices.Sort(cols)
				for _, col := range cols {
					rows = append(rows, []string{e.Entity, col, strings.Join(e.Cells[col], " | ")})
				}
			}
			formatTable([]string{"ENTITY", "COLUMN", "VALUES"}, rows)
			return nil
		},
	}
}

func fetchEntities(ctx context.Context, ids []string) ([]entityOutput, error) {
	catalog, err := apiClient.Properties.Catalog(ctx, cfg.Language)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]string)
	for _, id := range append(append([]string{}, cfg.Membership...), cfg.Properties...) {
		p, ok := catalog[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownProperty, id)
		}
		columns[id] = query.PropertyColumn(id, p.Label)
	}

	langs := append([]string{cfg.Language}, cfg.Languages...)

	var out []entityOutput
	for start := 0; start < len(ids); start += client.MaxEntityBatch {
		batch := ids[start:min(start+client.MaxEntityBatch, len(ids))]

		entities, err := apiClient.Entities.Get(ctx, batch, langs)
		if err != nil {
			return nil, err
		}

		for _, e := range entities {
			row := claims.Decode(e, columns, cfg.Languages)
			cells := make(map[string][]string, len(row.Cells))
			for col, vs := range row.Cells {
				for _, v := range vs {
					cells[col] = append(cells[col], v.String())
				}
			}
			out = append(out, entityOutput{Entity: row.Entity, Cells: cells})
		}
	}

	return out, nil
}
