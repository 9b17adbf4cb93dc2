package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// captureStdout replaces os.Stdout with a pipe, calls f, then returns the
// captured output and restores os.Stdout. It is NOT safe for parallel use
// because os.Stdout is a package-level variable.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		io.Copy(&buf, r)
		close(done)
	}()

	f()

	w.Close()
	<-done
	os.Stdout = orig
	r.Close()
	return buf.String()
}

// executeArgs runs the given root command with args and returns any error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return err
}

// isolate points HOME at a temp dir and clears WDTREE_* overrides that could
// leak in from the developer's environment.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "WDTREE_") {
			t.Setenv(k, "")
		}
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

const (
	entityURI   = "http://www.wikidata.org/entity/"
	ontologyURI = "http://wikiba.se/ontology#"
)

func uriTerm(v string) map[string]string { return map[string]string{"type": "uri", "value": v} }

func literalTerm(v string) map[string]string { return map[string]string{"type": "literal", "value": v} }

func writeBindings(w http.ResponseWriter, bindings []map[string]map[string]string) {
	w.Header().Set("Content-Type", "application/sparql-results+json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test server.
		"head":    map[string]any{"vars": []string{}},
		"results": map[string]any{"bindings": bindings},
	})
}

// fakeWikidata serves the graph Q2->Q1, Q3->Q1, Q4->Q2 through a SPARQL
// endpoint at /sparql and a Wikibase API at /w/api.php.
func fakeWikidata(t *testing.T) *httptest.Server {
	t.Helper()

	labels := map[string]string{"Q1": "Root", "Q2": "Two", "Q3": "Three", "Q4": "Four"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sparql", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q := r.PostForm.Get("query")

		switch {
		case strings.Contains(q, "wikibase:propertyType"):
			writeBindings(w, []map[string]map[string]string{
				{"property": uriTerm(entityURI + "P31"), "propertyLabel": literalTerm("instance of"), "propertyType": uriTerm(ontologyURI + "WikibaseItem")},
				{"property": uriTerm(entityURI + "P279"), "propertyLabel": literalTerm("subclass of"), "propertyType": uriTerm(ontologyURI + "WikibaseItem")},
				{"property": uriTerm(entityURI + "P571"), "propertyLabel": literalTerm("inception"), "propertyType": uriTerm(ontologyURI + "Time")},
			})
		case strings.Contains(q, "VALUES (?entity)"):
			var out []map[string]map[string]string
			for id, l := range labels {
				if strings.Contains(q, "(wd:"+id+")") {
					out = append(out, map[string]map[string]string{"entity": uriTerm(entityURI + id), "label": literalTerm(l)})
				}
			}
			writeBindings(w, out)
		case strings.Contains(q, "wd:Q1."):
			writeBindings(w, []map[string]map[string]string{
				{"entity": uriTerm(entityURI + "Q1")},
				{"entity": uriTerm(entityURI + "Q2"), "P31_instance_of": uriTerm(entityURI + "Q1")},
				{"entity": uriTerm(entityURI + "Q3"), "P279_subclass_of": uriTerm(entityURI + "Q1")},
				{"entity": uriTerm(entityURI + "Q4"), "P279_subclass_of": uriTerm(entityURI + "Q2")},
			})
		default:
			writeBindings(w, nil)
		}
	})
	mux.HandleFunc("GET /w/api.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"entities": {"Q4": {"id": "Q4",
			"labels": {"en": {"language": "en", "value": "Four"}},
			"claims": {"P279": [{"mainsnak": {"snaktype": "value", "property": "P279",
				"datavalue": {"type": "wikibase-entityid", "value": {"id": "Q2"}}}}]}}}}`) //nolint:errcheck // test server.
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testConfig writes a config pointing at srv and returns its path and output dir.
func testConfig(t *testing.T, srv *httptest.Server) (path, out string) {
	t.Helper()
	dir := t.TempDir()
	out = filepath.Join(dir, "out")
	path = filepath.Join(dir, "config.yaml")
	writeFile(t, path, "endpoint: "+srv.URL+"/sparql\n"+
		"api_url: "+srv.URL+"/w/api.php\n"+
		"properties: [P571]\n"+
		"labels: [\"rdfs:label\"]\n"+
		"languages: [en]\n"+
		"output_dir: "+out+"\n")
	return path, out
}
