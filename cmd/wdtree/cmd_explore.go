package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/internal/artifact"
	"github.com/persistorai/wdtree/internal/db"
	"github.com/persistorai/wdtree/internal/dbpool"
	"github.com/persistorai/wdtree/internal/metrics"
	"github.com/persistorai/wdtree/internal/models"
	"github.com/persistorai/wdtree/internal/service"
	"github.com/persistorai/wdtree/internal/store"
)

// runSummary is what explore prints for each root.
type runSummary struct {
	Root   string          `json:"root"`
	RunID  string          `json:"run_id"`
	Dir    string          `json:"dir"`
	Stats  models.RunStats `json:"stats"`
	Millis int64           `json:"duration_ms"`
}

func newExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore [ROOT...]",
		Short: "Explore the descendants of one or more root entities",
		Long: `Fetch every entity reachable from each root through the membership
properties, then write <out>/<root>/tree.json (flare tree), table.json
(one row per entity) and run.json. Roots default to the config's roots.
Nothing is written unless every root succeeds.`,
		Example: `  wdtree explore Q21198
  wdtree explore Q21198 Q395 --forbidden Q5 --parallel 2 --out ./runs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := args
			if len(roots) == 0 {
				roots = cfg.Roots
			}
			if len(roots) == 0 {
				return models.ErrMissingRoot
			}
			for _, r := range roots {
				if !models.IsEntityID(r) {
					return fmt.Errorf("root %q: %w", r, models.ErrInvalidEntity)
				}
			}

			err := runExplore(cmd.Context(), roots)
			if cfg.MetricsFile != "" {
				if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
					logger.WithError(werr).Warn("metrics file not written")
				}
			}
			if err != nil {
				return fmt.Errorf("explore failed: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSlice("forbidden", nil, "Entities excluded from every tree")
	f.StringP("out", "o", ".", "Output directory")
	f.Int("batch-size", 1000, "Label lookup batch size")
	f.Bool("expand-once", false, "Expand each entity once; later occurrences become leaves")
	f.Bool("claims", false, "Enrich rows with claim qualifiers from the Wikibase API")
	f.Int("parallel", 1, "Roots explored concurrently")
	f.String("metrics-file", "", "Write Prometheus metrics to this file when done")

	return cmd
}

func runExplore(ctx context.Context, roots []string) error {
	exp := service.NewExplorer(service.FromClient(apiClient), explorerOptions(cfg), logger)

	results, err := exp.ExploreAll(ctx, roots)
	if err != nil {
		return err
	}

	if err := artifact.WriteAll(cfg.OutputDir, results); err != nil {
		return err
	}

	if cfg.DatabaseURL.Value() != "" {
		if err := saveRuns(ctx, results); err != nil {
			return err
		}
	}

	summaries := make([]runSummary, len(results))
	for i, res := range results {
		summaries[i] = runSummary{
			Root:   res.Root,
			RunID:  res.RunID,
			Dir:    artifact.Dir(cfg.OutputDir, res.Root),
			Stats:  res.Stats,
			Millis: res.Duration.Milliseconds(),
		}
	}
	printSummaries(summaries)

	return nil
}

func saveRuns(ctx context.Context, results []*models.Result) error {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	runs := store.NewRunStore(store.Base{Pool: pool, Log: logger})
	for _, res := range results {
		if err := runs.SaveRun(ctx, res); err != nil {
			return fmt.Errorf("saving run for %s: %w", res.Root, err)
		}
	}

	return nil
}

func printSummaries(summaries []runSummary) {
	if flagFmt == "json" {
		formatJSON(summaries)
		return
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.Root,
			strconv.Itoa(s.Stats.Entities),
			strconv.Itoa(s.Stats.TreeNodes),
			strconv.Itoa(s.Stats.Labels),
			strconv.FormatInt(s.Millis, 10) + "ms",
			s.Dir,
		}
	}
	formatTable([]string{"ROOT", "ENTITIES", "NODES", "LABELS", "DURATION", "DIR"}, rows)
}
