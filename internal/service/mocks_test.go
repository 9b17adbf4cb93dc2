package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/models"
)

// mockBackend implements every Backend interface and records calls.
type mockBackend struct {
	mu    sync.Mutex
	calls []string

	catalog  map[string]client.Property
	results  map[string]*client.Results // keyed by root
	labels   map[string]string
	entities map[string]client.Entity

	queryErr   error
	labelErr   error
	entityErr  error
	catalogErr error
}

func (m *mockBackend) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockBackend) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockBackend) backend() Backend {
	return Backend{Querier: m, Properties: m, Labels: m, Entities: m}
}

func (m *mockBackend) Query(_ context.Context, q string) (*client.Results, error) {
	m.record("Query")
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	for root, res := range m.results {
		if strings.Contains(q, "wd:"+root+".") {
			return res, nil
		}
	}
	return &client.Results{}, nil
}

func (m *mockBackend) Catalog(_ context.Context, _ string) (map[string]client.Property, error) {
	m.record("Catalog")
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	return m.catalog, nil
}

func (m *mockBackend) Lookup(_ context.Context, ids []string, _ string) (map[string]string, error) {
	m.record("Lookup")
	if m.labelErr != nil {
		return nil, m.labelErr
	}
	out := make(map[string]string)
	for _, id := range ids {
		if l, ok := m.labels[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func (m *mockBackend) Get(_ context.Context, ids []string, _ []string) ([]client.Entity, error) {
	m.record("Get")
	if m.entityErr != nil {
		return nil, m.entityErr
	}
	var out []client.Entity
	for _, id := range ids {
		if e, ok := m.entities[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func uri(id string) client.Term {
	return client.Term{Type: "uri", Value: models.EntityPrefix + id}
}

func literal(v string) client.Term {
	return client.Term{Type: "literal", Value: v}
}

// results builds a result set from bindings.
func results(bindings ...client.Binding) *client.Results {
	res := &client.Results{}
	res.Results.Bindings = bindings
	return res
}

func mustEntity(doc string) client.Entity {
	var e client.Entity
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		panic(err)
	}
	return e
}
