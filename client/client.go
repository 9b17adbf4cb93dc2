// Package client provides a typed Go SDK for the Wikidata SPARQL endpoint and
// the Wikibase action API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default service locations.
const (
	DefaultEndpoint  = "https://query.wikidata.org/bigdata/namespace/wdq/sparql"
	DefaultAPIURL    = "https://www.wikidata.org/w/api.php"
	DefaultUserAgent = "wdtree/0.3 (https://github.com/persistorai/wdtree)"
)

// Client is the top-level Wikidata client.
type Client struct {
	endpoint   string
	apiURL     string
	userAgent  string
	httpClient *http.Client

	Labels     *LabelService
	Properties *PropertyService
	Entities   *EntityService
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithAPIURL sets the Wikibase action API URL used for entity lookups.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithUserAgent sets the User-Agent header. Wikimedia services reject requests without one.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the given SPARQL endpoint (e.g. DefaultEndpoint).
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		apiURL:     DefaultAPIURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	c.Labels = &LabelService{c: c}
	c.Properties = &PropertyService{c: c, catalogs: make(map[string]map[string]Property)}
	c.Entities = &EntityService{c: c}
	return c
}

// Query runs a SELECT query and returns its bindings.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	form := url.Values{"query": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.userAgent)

	body, status, err := c.send(req)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	if status != http.StatusOK {
		return nil, &QueryError{StatusCode: status, Query: query, Body: truncate(string(body), 512)}
	}

	var res Results
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &QueryError{StatusCode: status, Query: query, Err: fmt.Errorf("decode response: %w", err), Decode: true}
	}
	return &res, nil
}

// getAPI issues a GET against the Wikibase action API and decodes the JSON body.
func (c *Client) getAPI(ctx context.Context, params url.Values, result any) error {
	params.Set("format", "json")
	u := c.apiURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, status, err := c.send(req)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return &APIError{StatusCode: status, Code: "http", Info: truncate(string(body), 512)}
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		envelope.Error.StatusCode = status
		return envelope.Error
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send executes req and returns the full body and status code.
func (c *Client) send(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
