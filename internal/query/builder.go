// Package query builds the single SPARQL query that fetches a root entity's
// descendants together with their projected properties and labels.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/models"
)

// TimeType is the catalog datatype of time-valued properties.
const TimeType = "Time"

// PrecisionSuffix is appended to a time column to name its precision companion.
const PrecisionSuffix = "_precision"

var (
	propertyIDPattern = regexp.MustCompile(`^P[0-9]+$`)
	languagePattern   = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)*$`)
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	prefixedPattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// Options selects what the query traverses and projects.
type Options struct {
	Root       string
	Membership []string
	Properties []string
	Labels     []string
	Languages  []string
}

// Query is a built query plus the column metadata needed to decode its rows.
type Query struct {
	Text string

	// Columns lists projected variables (without "?") in projection order.
	Columns []string

	// Membership lists the columns holding parent pointers.
	Membership []string

	// Precision maps a time column to its precision column.
	Precision map[string]string

	// Properties maps a property id to its column.
	Properties map[string]string
}

// LabelSpec is a "prefix:kind" label predicate such as rdfs:label.
type LabelSpec struct {
	Prefix string
	Kind   string
}

// Predicate returns the prefixed predicate name.
func (l LabelSpec) Predicate() string {
	return l.Prefix + ":" + l.Kind
}

// Column returns the column name for this label kind in lang.
func (l LabelSpec) Column(lang string) string {
	return l.Kind + "_" + lang
}

// ParseLabelSpecs validates label predicates. Every spec needs exactly one
// prefix separator; this runs before any network call.
func ParseLabelSpecs(specs []string) ([]LabelSpec, error) {
	out := make([]LabelSpec, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(s, ":")
		if len(parts) != 2 || !prefixedPattern.MatchString(parts[0]) || !prefixedPattern.MatchString(parts[1]) {
			return nil, fmt.Errorf("%w: %q", models.ErrLabelSpec, s)
		}
		out = append(out, LabelSpec{Prefix: parts[0], Kind: parts[1]})
	}
	return out, nil
}

// PropertyColumn derives the column name of a property from its id and label.
func PropertyColumn(id, label string) string {
	return id + "_" + nonWordPattern.ReplaceAllString(label, "_")
}

// Validate checks the options that do not depend on the property catalog.
func (o *Options) Validate() error {
	if o.Root == "" {
		return models.ErrMissingRoot
	}
	if !models.IsEntityID(o.Root) {
		return fmt.Errorf("root %q: %w", o.Root, models.ErrInvalidEntity)
	}
	if len(o.Membership) == 0 {
		return models.ErrNoMembership
	}
	for _, p := range append(append([]string{}, o.Membership...), o.Properties...) {
		if !propertyIDPattern.MatchString(p) {
			return fmt.Errorf("invalid property id %q", p)
		}
	}
	for _, lang := range o.Languages {
		if !languagePattern.MatchString(lang) {
			return fmt.Errorf("invalid language code %q", lang)
		}
	}
	if _, err := ParseLabelSpecs(o.Labels); err != nil {
		return err
	}
	return nil
}

// Build assembles the traversal query. The catalog supplies property labels
// (for column names) and datatypes (time properties also project precision).
func Build(opts Options, catalog map[string]client.Property) (*Query, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	labels, err := ParseLabelSpecs(opts.Labels)
	if err != nil {
		return nil, err
	}

	q := &Query{Precision: make(map[string]string), Properties: make(map[string]string)}
	seen := make(map[string]bool)
	project := func(col string) bool {
		if seen[col] {
			return false
		}
		seen[col] = true
		q.Columns = append(q.Columns, col)
		return true
	}

	var blocks []string

	// Membership columns are always projected: the indexer reads them.
	props := append(append([]string{}, opts.Membership...), opts.Properties...)
	for i, id := range props {
		p, ok := catalog[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownProperty, id)
		}
		col := PropertyColumn(id, p.Label)
		q.Properties[id] = col
		if i < len(opts.Membership) {
			q.Membership = append(q.Membership, col)
		}
		if !project(col) {
			continue
		}

		if p.Type == TimeType {
			prec := col + PrecisionSuffix
			project(prec)
			q.Precision[col] = prec
			// Only best-rank statements, the same set wdt: exposes.
			blocks = append(blocks, fmt.Sprintf(
				"OPTIONAL {?entity p:%[1]s ?%[2]s_stmt. ?%[2]s_stmt a wikibase:BestRank; psv:%[1]s ?%[2]s_node. ?%[2]s_node wikibase:timeValue ?%[2]s; wikibase:timePrecision ?%[3]s.}",
				id, col, prec))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("OPTIONAL {?entity wdt:%s ?%s.}", id, col))
	}

	for _, l := range labels {
		for _, lang := range opts.Languages {
			col := l.Column(lang)
			if !project(col) {
				continue
			}
			blocks = append(blocks, fmt.Sprintf(
				`OPTIONAL {?entity %s ?%s filter (lang(?%s) = "%s").}`, l.Predicate(), col, col, lang))
		}
	}

	q.Text = fmt.Sprintf("SELECT DISTINCT ?%s %s WHERE {?entity %s wd:%s. %s}",
		models.ColumnEntity, variables(q.Columns), traversalPath(opts.Membership), opts.Root, strings.Join(blocks, " "))
	return q, nil
}

// traversalPath returns the closure over all membership properties, e.g.
// (wdt:P31|wdt:P279)*.
func traversalPath(membership []string) string {
	steps := make([]string, len(membership))
	for i, p := range membership {
		steps[i] = "wdt:" + p
	}
	return "(" + strings.Join(steps, "|") + ")*"
}

func variables(cols []string) string {
	vars := make([]string, len(cols))
	for i, c := range cols {
		vars[i] = "?" + c
	}
	return strings.Join(vars, " ")
}
