// Package models defines data types shared by the wdtree pipeline.
package models

import (
	"regexp"
	"strings"
)

// EntityPrefix is the URI prefix of every Wikidata entity resource.
const EntityPrefix = "http://www.wikidata.org/entity/"

// SingleEntries names the synthetic node that groups leaf children.
const SingleEntries = "singleEntries"

var (
	entityIDPattern = regexp.MustCompile(`^Q[0-9]+$`)
	termIDPattern   = regexp.MustCompile(`^[PQL][0-9]+$`)
)

// IsEntityID reports whether s has the shape of an item id ("Q" followed by digits).
func IsEntityID(s string) bool {
	return entityIDPattern.MatchString(s)
}

// IsTermID reports whether s is an item, property or lexeme id. These are
// the ids that carry labels.
func IsTermID(s string) bool {
	return termIDPattern.MatchString(s)
}

// LastSegment returns the part of a resource URI after its final slash.
func LastSegment(uri string) string {
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		return uri[i+1:]
	}

	return uri
}

// StripEntityPrefix removes the entity URI prefix from s when present.
func StripEntityPrefix(s string) string {
	return strings.TrimPrefix(s, EntityPrefix)
}
