package client

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	termIDPattern   = regexp.MustCompile(`^[PQL][0-9]+$`)
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)*$`)
)

// LabelService resolves entity labels through the SPARQL endpoint.
type LabelService struct {
	c *Client
}

// LabelQuery returns the query that fetches rdfs:label in lang for ids.
func LabelQuery(ids []string, lang string) string {
	var values strings.Builder
	for _, id := range ids {
		values.WriteString("(wd:")
		values.WriteString(id)
		values.WriteString(")")
	}
	return fmt.Sprintf(`SELECT ?entity ?label WHERE {?entity rdfs:label ?label filter (lang(?label) = "%s"). VALUES (?entity) {%s}}`, lang, values.String())
}

// Lookup returns the labels of ids in lang. Ids without a label in that
// language are absent from the result. The caller bounds the batch size.
func (s *LabelService) Lookup(ctx context.Context, ids []string, lang string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	if !languagePattern.MatchString(lang) {
		return nil, fmt.Errorf("invalid language code %q", lang)
	}
	for _, id := range ids {
		if !termIDPattern.MatchString(id) {
			return nil, fmt.Errorf("invalid entity id %q", id)
		}
	}

	res, err := s.c.Query(ctx, LabelQuery(ids, lang))
	if err != nil {
		return nil, err
	}

	labels := make(map[string]string, len(res.Bindings()))
	for _, b := range res.Bindings() {
		id := lastSegment(b.Value("entity"))
		if id == "" {
			continue
		}
		labels[id] = b.Value("label")
	}
	return labels, nil
}

func lastSegment(uri string) string {
	if i := strings.LastIndexAny(uri, "/#"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
