package client

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PropertyService loads the property catalog (id, label, datatype). Catalogs
// are cached per language for the lifetime of the client; concurrent loads of
// the same language share one request.
type PropertyService struct {
	c *Client

	mu       sync.Mutex
	catalogs map[string]map[string]Property
	group    singleflight.Group
}

// PropertyQuery returns the query listing every property with its label in lang.
func PropertyQuery(lang string) string {
	return fmt.Sprintf(`SELECT ?property ?propertyLabel ?propertyType WHERE {
  ?property a wikibase:Property; wikibase:propertyType ?propertyType.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s". }
}`, lang)
}

// Catalog returns all properties keyed by id, labelled in lang.
func (s *PropertyService) Catalog(ctx context.Context, lang string) (map[string]Property, error) {
	if !languagePattern.MatchString(lang) {
		return nil, fmt.Errorf("invalid language code %q", lang)
	}

	s.mu.Lock()
	cached, ok := s.catalogs[lang]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	val, err, _ := s.group.Do(lang, func() (any, error) {
		// Double-check after winning the singleflight race.
		s.mu.Lock()
		cached, ok := s.catalogs[lang]
		s.mu.Unlock()
		if ok {
			return cached, nil
		}

		catalog, err := s.fetch(ctx, lang)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.catalogs[lang] = catalog
		s.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}

	catalog, ok := val.(map[string]Property)
	if !ok {
		return nil, fmt.Errorf("client: unexpected singleflight result type %T", val)
	}
	return catalog, nil
}

func (s *PropertyService) fetch(ctx context.Context, lang string) (map[string]Property, error) {
	res, err := s.c.Query(ctx, PropertyQuery(lang))
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]Property, len(res.Bindings()))
	for _, b := range res.Bindings() {
		id := lastSegment(b.Value("property"))
		if id == "" {
			continue
		}
		catalog[id] = Property{
			ID:    id,
			Label: b.Value("propertyLabel"),
			Type:  lastSegment(b.Value("propertyType")),
		}
	}
	return catalog, nil
}
