package client

import (
	"errors"
	"fmt"
)

// QueryError is returned when the SPARQL endpoint rejects a query or answers
// with a body that is not a SPARQL JSON result. It always carries the query text.
type QueryError struct {
	StatusCode int
	Query      string
	Body       string
	Decode     bool
	Err        error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	switch {
	case e.Decode:
		return fmt.Sprintf("wdtree: undecodable query response (status %d, the query deadline may have expired): %v\nquery text:\n%s", e.StatusCode, e.Err, e.Query)
	case e.Err != nil:
		return fmt.Sprintf("wdtree: query endpoint unreachable: %v\nquery text:\n%s", e.Err, e.Query)
	default:
		return fmt.Sprintf("wdtree: query endpoint returned status %d: %s\nquery text:\n%s", e.StatusCode, e.Body, e.Query)
	}
}

// Unwrap returns the underlying transport or decode error.
func (e *QueryError) Unwrap() error { return e.Err }

// APIError represents an error answered by the Wikibase action API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Info       string `json:"info"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("wikibase: %d %s: %s", e.StatusCode, e.Code, e.Info)
}

// IsStatus reports whether err is a QueryError or APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.StatusCode == status
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == status
	}
	return false
}

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool {
	return IsStatus(err, 429)
}

// IsTimeout returns true if the gateway gave up on the query (HTTP 504).
func IsTimeout(err error) bool {
	return IsStatus(err, 504)
}
