package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// MaxEntityBatch is the largest number of ids wbgetentities accepts per call.
const MaxEntityBatch = 50

// EntityService fetches full entity documents from the Wikibase action API.
type EntityService struct {
	c *Client
}

type entitiesResponse struct {
	Entities map[string]Entity `json:"entities"`
}

// Get returns the entities for ids, in the order requested. Missing entities are skipped.
func (s *EntityService) Get(ctx context.Context, ids []string, languages []string) ([]Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxEntityBatch {
		return nil, fmt.Errorf("too many ids in one batch: %d > %d", len(ids), MaxEntityBatch)
	}
	for _, id := range ids {
		if !termIDPattern.MatchString(id) {
			return nil, fmt.Errorf("invalid entity id %q", id)
		}
	}

	params := url.Values{
		"action": {"wbgetentities"},
		"ids":    {strings.Join(ids, "|")},
		"props":  {"labels|descriptions|aliases|claims"},
	}
	if len(languages) > 0 {
		params.Set("languages", strings.Join(languages, "|"))
	}

	var resp entitiesResponse
	if err := s.c.getAPI(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("wbgetentities: %w", err)
	}

	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		e, ok := resp.Entities[id]
		if !ok || e.Missing != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
