package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutcome(t *testing.T) {
	if got := Outcome(nil); got != "ok" {
		t.Errorf("Outcome(nil) = %q", got)
	}
	if got := Outcome(errors.New("boom")); got != "error" {
		t.Errorf("Outcome(err) = %q", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	QueriesTotal.WithLabelValues(KindTraversal, "ok").Inc()
	LabelBatches.Inc()

	path := filepath.Join(t.TempDir(), "wdtree.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}

	for _, want := range []string{
		`wdtree_queries_total{kind="traversal",outcome="ok"}`,
		"wdtree_label_batches_total",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "wdtree.prom")
	if err := WriteTextfile(path); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
