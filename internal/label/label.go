// Package label turns entity ids into human-readable labels through a
// per-run cache filled by batched lookups.
package label

import (
	"context"
	"fmt"

	"github.com/persistorai/wdtree/internal/models"
)

// DefaultBatchSize is the number of ids sent per lookup.
const DefaultBatchSize = 1000

// Source looks up labels for one batch of ids. Ids without a label are
// absent from the result. *client.LabelService satisfies it.
type Source interface {
	Lookup(ctx context.Context, ids []string, lang string) (map[string]string, error)
}

// Labeler owns the label cache of one traversal. The cache only grows.
type Labeler struct {
	src       Source
	lang      string
	batchSize int
	cache     map[string]string
	batches   int
}

// New creates a Labeler resolving labels in lang.
func New(src Source, lang string, batchSize int) *Labeler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Labeler{
		src:       src,
		lang:      lang,
		batchSize: batchSize,
		cache:     map[string]string{models.SingleEntries: models.SingleEntries},
	}
}

// Resolve fetches labels for every entity id in ids that is not cached yet,
// using as few batches as possible. Tokens that are not item, property or
// lexeme ids are ignored.
func (l *Labeler) Resolve(ctx context.Context, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	todo := make([]string, 0, len(ids))
	for _, id := range ids {
		if !models.IsTermID(id) {
			continue
		}
		if _, ok := l.cache[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		todo = append(todo, id)
	}

	for start := 0; start < len(todo); start += l.batchSize {
		end := min(start+l.batchSize, len(todo))

		labels, err := l.src.Lookup(ctx, todo[start:end], l.lang)
		if err != nil {
			return fmt.Errorf("resolving labels %d-%d of %d: %w", start, end, len(todo), err)
		}
		l.batches++

		for id, lbl := range labels {
			l.cache[id] = lbl
		}
	}

	return nil
}

// ToHumanReadable returns the cached label of token when token is an id with
// a known label, and token unchanged otherwise.
func (l *Labeler) ToHumanReadable(token string) string {
	if !models.IsTermID(token) {
		return token
	}
	if lbl, ok := l.cache[token]; ok {
		return lbl
	}
	return token
}

// HumanPath renders every token of path with ToHumanReadable.
func (l *Labeler) HumanPath(path []string) []string {
	out := make([]string, len(path))
	for i, id := range path {
		out[i] = l.ToHumanReadable(id)
	}
	return out
}

// Len returns the number of cached labels.
func (l *Labeler) Len() int {
	return len(l.cache)
}

// Batches returns the number of lookups issued so far.
func (l *Labeler) Batches() int {
	return l.batches
}
