// Package service orchestrates exploration runs: one traversal per root,
// from the batched query to the labeled tree and the aggregated table.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/claims"
	"github.com/persistorai/wdtree/internal/graph"
	"github.com/persistorai/wdtree/internal/label"
	"github.com/persistorai/wdtree/internal/metrics"
	"github.com/persistorai/wdtree/internal/models"
	"github.com/persistorai/wdtree/internal/query"
	"github.com/persistorai/wdtree/internal/table"
)

// Querier runs a SPARQL query.
type Querier interface {
	Query(ctx context.Context, q string) (*client.Results, error)
}

// Catalog loads the property catalog for a language.
type Catalog interface {
	Catalog(ctx context.Context, lang string) (map[string]client.Property, error)
}

// EntityGetter fetches entity documents, at most client.MaxEntityBatch per call.
type EntityGetter interface {
	Get(ctx context.Context, ids []string, languages []string) ([]client.Entity, error)
}

// Backend bundles the remote services an Explorer depends on.
type Backend struct {
	Querier    Querier
	Properties Catalog
	Labels     label.Source
	Entities   EntityGetter
}

// FromClient wires every Backend service to c.
func FromClient(c *client.Client) Backend {
	return Backend{Querier: c, Properties: c.Properties, Labels: c.Labels, Entities: c.Entities}
}

// Options configures every run of an Explorer.
type Options struct {
	Membership []string
	Properties []string
	Labels     []string
	Languages  []string

	// Language is used for property names and labels in the output.
	Language string

	Forbidden   []string
	BatchSize   int
	ExpandOnce  bool
	Claims      bool
	Parallelism int
}

// Explorer runs explorations. It holds no per-run state, so one Explorer can
// serve concurrent runs.
type Explorer struct {
	backend Backend
	opts    Options
	log     *logrus.Logger
	now     func() time.Time
}

// NewExplorer creates an Explorer.
func NewExplorer(b Backend, opts Options, log *logrus.Logger) *Explorer {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Explorer{backend: b, opts: opts, log: log, now: time.Now}
}

func (e *Explorer) queryOptions(root string) query.Options {
	return query.Options{
		Root:       root,
		Membership: e.opts.Membership,
		Properties: e.opts.Properties,
		Labels:     e.opts.Labels,
		Languages:  e.opts.Languages,
	}
}

// Query builds the traversal query for root without running it. Only the
// property catalog is fetched.
func (e *Explorer) Query(ctx context.Context, root string) (*query.Query, error) {
	qopts := e.queryOptions(root)
	if err := qopts.Validate(); err != nil {
		return nil, err
	}

	catalog, err := e.catalog(ctx)
	if err != nil {
		return nil, err
	}

	q, err := query.Build(qopts, catalog)
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return q, nil
}

// Explore runs one exploration from root. Any transport or decode error aborts
// the run; missing facts and labels never do.
func (e *Explorer) Explore(ctx context.Context, root string) (*models.Result, error) {
	res, err := e.explore(ctx, root)
	metrics.RunsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("explore").Inc()
		return nil, fmt.Errorf("exploring %s: %w", root, err)
	}
	return res, nil
}

func (e *Explorer) explore(ctx context.Context, root string) (*models.Result, error) {
	started := e.now()
	runID := uuid.New().String()
	log := e.log.WithFields(logrus.Fields{"run_id": runID, "root": root})

	q, err := e.Query(ctx, root)
	if err != nil {
		return nil, err
	}
	log.WithField("columns", len(q.Columns)).Debug("explore.query")

	results, err := timed(ctx, metrics.KindTraversal, func(ctx context.Context) (*client.Results, error) {
		return e.backend.Querier.Query(ctx, q.Text)
	})
	if err != nil {
		return nil, err
	}

	rows := q.Decode(results)
	metrics.RowsTotal.Add(float64(len(rows)))

	ix := graph.NewIndex(rows, q.Membership)
	log.WithFields(logrus.Fields{"rows": len(rows), "parents": ix.Parents(), "edges": ix.Edges()}).Debug("explore.index")

	visit := graph.NewVisit()
	tree := graph.Build(ix, root, nil, visit, graph.Options{Forbidden: e.opts.Forbidden, ExpandOnce: e.opts.ExpandOnce})
	nodes := models.CountNodes(tree)
	metrics.TreeNodes.WithLabelValues(root).Set(float64(nodes))
	log.WithFields(logrus.Fields{"nodes": nodes, "entities": len(visit.Nodes())}).Debug("explore.tree")

	if e.opts.Claims && e.backend.Entities != nil {
		extra, err := e.enrich(ctx, visit.Nodes(), q.Properties)
		if err != nil {
			return nil, err
		}
		log.WithField("rows", len(extra)).Debug("explore.claims")
		rows = append(rows, extra...)
	}

	lab := label.New(instrumentedLabels{src: e.backend.Labels}, e.opts.Language, e.opts.BatchSize)
	if err := lab.Resolve(ctx, visit.Nodes()); err != nil {
		return nil, err
	}
	flare := lab.LabelTree(tree)

	tbl, err := table.Aggregate(ctx, rows, visit, lab)
	if err != nil {
		return nil, fmt.Errorf("aggregating table: %w", err)
	}

	res := &models.Result{
		RunID:     runID,
		Root:      root,
		Query:     q.Text,
		Tree:      flare,
		Table:     tbl,
		StartedAt: started,
		Stats: models.RunStats{
			Rows:      len(rows),
			Parents:   ix.Parents(),
			TreeNodes: nodes,
			Entities:  len(tbl.Rows),
			Labels:    lab.Len(),
		},
	}
	res.Duration = e.now().Sub(started)

	log.WithFields(logrus.Fields{
		"entities": res.Stats.Entities,
		"labels":   res.Stats.Labels,
		"batches":  lab.Batches(),
		"duration": res.Duration.String(),
	}).Info("explore.done")

	return res, nil
}

// ExploreAll explores every root, at most Parallelism at a time. Each run owns
// its traversal state; only the property catalog is shared. Results follow
// the order of roots. The first failure cancels the remaining runs.
func (e *Explorer) ExploreAll(ctx context.Context, roots []string) ([]*models.Result, error) {
	results := make([]*models.Result, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)

	for i, root := range roots {
		g.Go(func() error {
			res, err := e.Explore(ctx, root)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Explorer) catalog(ctx context.Context) (map[string]client.Property, error) {
	catalog, err := timed(ctx, metrics.KindCatalog, func(ctx context.Context) (map[string]client.Property, error) {
		return e.backend.Properties.Catalog(ctx, e.opts.Language)
	})
	if err != nil {
		return nil, fmt.Errorf("loading property catalog: %w", err)
	}
	return catalog, nil
}

// enrich fetches the entity documents of ids and flattens their claims into
// extra rows, so qualifiers reach the table.
func (e *Explorer) enrich(ctx context.Context, ids []string, columns map[string]string) ([]models.FlatRow, error) {
	langs := append([]string{e.opts.Language}, e.opts.Languages...)

	var rows []models.FlatRow
	for start := 0; start < len(ids); start += client.MaxEntityBatch {
		batch := ids[start:min(start+client.MaxEntityBatch, len(ids))]

		entities, err := timed(ctx, metrics.KindEntities, func(ctx context.Context) ([]client.Entity, error) {
			return e.backend.Entities.Get(ctx, batch, langs)
		})
		if err != nil {
			return nil, fmt.Errorf("fetching claims: %w", err)
		}

		for _, ent := range entities {
			rows = append(rows, claims.Decode(ent, columns, e.opts.Languages))
		}
	}
	return rows, nil
}

// timed runs fn and records its duration and outcome under kind.
func timed[T any](ctx context.Context, kind string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := fn(ctx)
	metrics.QueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.QueriesTotal.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	return v, err
}

// instrumentedLabels counts label batches.
type instrumentedLabels struct {
	src label.Source
}

func (s instrumentedLabels) Lookup(ctx context.Context, ids []string, lang string) (map[string]string, error) {
	metrics.LabelBatches.Inc()
	return timed(ctx, metrics.KindLabels, func(ctx context.Context) (map[string]string, error) {
		return s.src.Lookup(ctx, ids, lang)
	})
}
