package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wdtree/internal/models"
)

// maxBulkBatchSize limits the number of rows per INSERT statement to avoid
// exceeding PostgreSQL's parameter limit (65535 params).
const maxBulkBatchSize = 500

// entityColumns is the number of bound parameters per run_entities row.
const entityColumns = 5

// RunStore writes runs and their table rows.
type RunStore struct {
	Base
}

// NewRunStore creates a RunStore with the given shared base.
func NewRunStore(base Base) *RunStore {
	return &RunStore{Base: base}
}

// SaveRun writes res and every table row in one transaction. Saving the same
// run twice replaces it.
func (s *RunStore) SaveRun(ctx context.Context, res *models.Result) error {
	if _, err := uuid.Parse(res.RunID); err != nil {
		return fmt.Errorf("invalid run ID format: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Encode everything before opening the transaction to minimize lock time.
	stats, err := json.Marshal(res.Stats)
	if err != nil {
		return fmt.Errorf("encoding run stats: %w", err)
	}

	tree, err := json.Marshal(res.Tree)
	if err != nil {
		return fmt.Errorf("encoding run tree: %w", err)
	}

	var columns []string
	var rows []models.TableRow
	if res.Table != nil {
		columns = res.Table.Columns
		rows = res.Table.Rows
	}
	if columns == nil {
		columns = []string{}
	}

	cells := make([][]byte, len(rows))
	paths := make([][]byte, len(rows))
	for i, row := range rows {
		if cells[i], err = json.Marshal(row.Cells); err != nil {
			return fmt.Errorf("encoding cells of %s: %w", row.Entity, err)
		}
		p := row.Paths
		if p == nil {
			p = [][]string{}
		}
		if paths[i], err = json.Marshal(p); err != nil {
			return fmt.Errorf("encoding paths of %s: %w", row.Entity, err)
		}
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx, `INSERT INTO runs (id, root, query, started_at, duration_ms, stats, tree, columns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET root = EXCLUDED.root,
			query = EXCLUDED.query,
			started_at = EXCLUDED.started_at,
			duration_ms = EXCLUDED.duration_ms,
			stats = EXCLUDED.stats,
			tree = EXCLUDED.tree,
			columns = EXCLUDED.columns`,
		res.RunID, res.Root, res.Query, res.StartedAt, res.Duration.Milliseconds(), stats, tree, columns)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM run_entities WHERE run_id = $1", res.RunID); err != nil {
		return fmt.Errorf("clearing run entities: %w", err)
	}

	// Process in batches to stay within parameter limits.
	for i := 0; i < len(rows); i += maxBulkBatchSize {
		end := min(i+maxBulkBatchSize, len(rows))

		valueParts := make([]string, 0, end-i)
		args := make([]any, 0, (end-i)*entityColumns)

		for j := i; j < end; j++ {
			base := (j-i)*entityColumns + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4,
			))
			args = append(args, res.RunID, j, rows[j].Entity, cells[j], paths[j])
		}

		sql := `INSERT INTO run_entities (run_id, position, entity, cells, paths)
			VALUES ` + strings.Join(valueParts, ", ")

		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("inserting run entities batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"run_id":   res.RunID,
		"root":     res.Root,
		"entities": len(rows),
	}).Debug("store.run_saved")

	return nil
}
