package label

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/persistorai/wdtree/internal/models"
)

// fakeSource answers lookups from a fixed table and records batch sizes.
type fakeSource struct {
	labels  map[string]string
	batches []int
	err     error
}

func (f *fakeSource) Lookup(_ context.Context, ids []string, _ string) (map[string]string, error) {
	f.batches = append(f.batches, len(ids))
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, id := range ids {
		if lbl, ok := f.labels[id]; ok {
			out[id] = lbl
		}
	}
	return out, nil
}

func TestResolveBatches(t *testing.T) {
	src := &fakeSource{labels: map[string]string{"Q1": "universe"}}
	l := New(src, "en", 1000)

	ids := make([]string, 0, 2600)
	for i := 1; i <= 2500; i++ {
		ids = append(ids, fmt.Sprintf("Q%d", i))
	}
	// Duplicates and non-entity tokens do not cost extra lookups.
	ids = append(ids, "Q1", "Q2", "Q5x", "hello", "")

	if err := l.Resolve(context.Background(), ids); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if fmt.Sprint(src.batches) != "[1000 1000 500]" {
		t.Errorf("batches = %v, want [1000 1000 500]", src.batches)
	}
	if l.Batches() != 3 {
		t.Errorf("Batches() = %d", l.Batches())
	}
	if got := l.ToHumanReadable("Q1"); got != "universe" {
		t.Errorf("Q1 = %q", got)
	}
}

func TestResolvePropertyAndLexemeIDs(t *testing.T) {
	src := &fakeSource{labels: map[string]string{"P31": "instance of", "L7": "cat"}}
	l := New(src, "en", 10)

	if err := l.Resolve(context.Background(), []string{"P31", "L7", "X1"}); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if fmt.Sprint(src.batches) != "[2]" {
		t.Errorf("batches = %v, want [2]", src.batches)
	}
	if got := l.ToHumanReadable("P31"); got != "instance of" {
		t.Errorf("P31 = %q", got)
	}
	if got := l.ToHumanReadable("L7"); got != "cat" {
		t.Errorf("L7 = %q", got)
	}
}

func TestResolveSkipsCached(t *testing.T) {
	src := &fakeSource{labels: map[string]string{"Q1": "universe", "Q2": "Earth"}}
	l := New(src, "en", 0)

	if err := l.Resolve(context.Background(), []string{"Q1"}); err != nil {
		t.Fatal(err)
	}
	if err := l.Resolve(context.Background(), []string{"Q1", "Q2"}); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(src.batches) != "[1 1]" {
		t.Errorf("batches = %v, want [1 1]", src.batches)
	}
	if l.Len() != 3 { // Q1, Q2 and the singleEntries seed
		t.Errorf("Len() = %d", l.Len())
	}
}

func TestResolveError(t *testing.T) {
	boom := errors.New("status 503")
	l := New(&fakeSource{err: boom}, "en", 10)

	err := l.Resolve(context.Background(), []string{"Q1"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestToHumanReadable(t *testing.T) {
	l := New(&fakeSource{labels: map[string]string{"Q5": "human"}}, "en", 10)
	if err := l.Resolve(context.Background(), []string{"Q5", "Q6"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct{ in, want string }{
		{"Q5", "human"},
		{"Q6", "Q6"},
		{"1972-01-01T00:00:00Z", "1972-01-01T00:00:00Z"},
		{"", ""},
		{"singleEntries", "singleEntries"},
		{"Q5x", "Q5x"},
	}
	for _, tc := range tests {
		got := l.ToHumanReadable(tc.in)
		if got != tc.want {
			t.Errorf("ToHumanReadable(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if tc.in == tc.want && l.ToHumanReadable(got) != got {
			t.Errorf("ToHumanReadable not idempotent on %q", tc.in)
		}
	}
}

func TestLabelTree(t *testing.T) {
	tree := &models.Internal{Name: "Q1", Children: []models.TreeNode{
		&models.Internal{Name: "Q2", Children: []models.TreeNode{
			&models.Internal{Name: models.SingleEntries, Children: []models.TreeNode{&models.Leaf{Name: "Q4"}}},
		}},
		&models.Internal{Name: models.SingleEntries, Children: []models.TreeNode{&models.Leaf{Name: "Q3"}}},
	}}

	l := New(&fakeSource{labels: map[string]string{"Q1": "root", "Q2": "two", "Q4": "four"}}, "en", 10)
	if err := l.Resolve(context.Background(), []string{"Q1", "Q2", "Q3", "Q4"}); err != nil {
		t.Fatal(err)
	}

	out := l.LabelTree(tree)

	if out.Name != "root" || out.NodeID != "Q1" {
		t.Errorf("root = %+v", out)
	}
	if len(out.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(out.Children))
	}
	two := out.Children[0]
	if two.Name != "two" || two.NodeID != "Q2" {
		t.Errorf("first child = %+v", two)
	}
	if four := two.Children[0].Children[0]; four.Name != "four" || four.NodeID != "Q4" || four.Children != nil {
		t.Errorf("leaf = %+v", four)
	}
	singles := out.Children[1]
	if singles.Name != models.SingleEntries || singles.Children[0].Name != "Q3" {
		t.Errorf("unlabelled ids keep their id: %+v", singles.Children[0])
	}
	if countFlare(out) != models.CountNodes(tree) {
		t.Errorf("node count changed: %d vs %d", countFlare(out), models.CountNodes(tree))
	}
}

func TestLabelTreeDropsEmptyChildren(t *testing.T) {
	tree := &models.Internal{Name: "Q1", Children: []models.TreeNode{
		&models.Internal{Name: models.SingleEntries, Children: []models.TreeNode{}},
	}}
	out := New(&fakeSource{}, "en", 10).LabelTree(tree)
	if out.Children[0].Children != nil {
		t.Error("empty children should be omitted")
	}
}

func countFlare(n *models.FlareNode) int {
	c := 1
	for _, ch := range n.Children {
		c += countFlare(ch)
	}
	return c
}
