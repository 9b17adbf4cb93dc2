package graph

import (
	"fmt"
	"strings"
	"testing"

	"github.com/persistorai/wdtree/internal/models"
)

const parentCol = "P279_subclass_of"

// edges builds flat rows from "child>parent" pairs.
func edges(pairs ...string) []models.FlatRow {
	rows := make([]models.FlatRow, 0, len(pairs))
	for _, p := range pairs {
		child, parent, _ := strings.Cut(p, ">")
		row := models.NewFlatRow(child)
		row.Add(parentCol, models.Identifier(parent))
		rows = append(rows, row)
	}
	return rows
}

// shape renders a tree as a compact string, e.g. Q1(Q2(singleEntries(Q4)) singleEntries(Q3)).
func shape(n models.TreeNode) string {
	in, ok := n.(*models.Internal)
	if !ok {
		return n.NodeName()
	}
	parts := make([]string, len(in.Children))
	for i, c := range in.Children {
		parts[i] = shape(c)
	}
	return in.Name + "(" + strings.Join(parts, " ") + ")"
}

// branches returns every root-to-leaf name sequence.
func branches(n models.TreeNode, prefix []string, out *[][]string) {
	path := append(append([]string{}, prefix...), n.NodeName())
	in, ok := n.(*models.Internal)
	if !ok || len(in.Children) == 0 {
		*out = append(*out, path)
		return
	}
	for _, c := range in.Children {
		branches(c, path, out)
	}
}

func names(n models.TreeNode) map[string]int {
	counts := map[string]int{}
	stack := []models.TreeNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		counts[cur.NodeName()]++
		if in, ok := cur.(*models.Internal); ok {
			stack = append(stack, in.Children...)
		}
	}
	return counts
}

func TestNewIndex(t *testing.T) {
	rows := edges("Q2>Q1", "Q3>Q1", "Q2>Q1")

	// Two membership properties naming the same parent collapse to one edge.
	row := models.NewFlatRow("Q4")
	row.Add("P31_instance_of", models.Identifier("Q2"))
	row.Add(parentCol, models.Text("http://www.wikidata.org/entity/Q2"))
	rows = append(rows, row, models.NewFlatRow("Q9"))

	ix := NewIndex(rows, []string{"P31_instance_of", parentCol})

	if got := strings.Join(ix.Children("Q1"), ","); got != "Q2,Q3" {
		t.Errorf("children(Q1) = %s, want Q2,Q3", got)
	}
	if got := strings.Join(ix.Children("Q2"), ","); got != "Q4" {
		t.Errorf("children(Q2) = %s, want Q4", got)
	}
	if len(ix.Children("Q9")) != 0 {
		t.Error("Q9 has no children")
	}
	if ix.Parents() != 2 || ix.Edges() != 3 {
		t.Errorf("parents=%d edges=%d, want 2 and 3", ix.Parents(), ix.Edges())
	}
}

func TestBuildScenario(t *testing.T) {
	ix := NewIndex(edges("Q2>Q1", "Q3>Q1", "Q4>Q2"), []string{parentCol})
	v := NewVisit()

	tree := Build(ix, "Q1", nil, v, Options{})

	want := "Q1(Q2(singleEntries(Q4)) singleEntries(Q3))"
	if got := shape(tree); got != want {
		t.Errorf("tree = %s, want %s", got, want)
	}
	if got := strings.Join(v.Nodes(), ","); got != "Q1,Q2,Q4,Q3" {
		t.Errorf("visited = %s", got)
	}
	if p := v.Paths("Q4"); len(p) != 1 || strings.Join(p[0], ",") != "Q1,Q2" {
		t.Errorf("paths(Q4) = %v", p)
	}
	if p := v.Paths("Q1"); len(p) != 1 || len(p[0]) != 0 {
		t.Errorf("root should be reached by the empty path, got %v", p)
	}
}

func TestBuildForbidden(t *testing.T) {
	ix := NewIndex(edges("Q2>Q1", "Q3>Q1", "Q4>Q2", "Q5>Q3"), []string{parentCol})
	v := NewVisit()

	tree := Build(ix, "Q1", nil, v, Options{Forbidden: []string{"Q3"}})

	counts := names(tree)
	if counts["Q3"] != 0 || counts["Q5"] != 0 {
		t.Errorf("forbidden subtree present: %s", shape(tree))
	}
	if v.Contains("Q3") || v.Contains("Q5") {
		t.Error("forbidden entities must not be visited")
	}
}

func TestBuildCycleThroughRoot(t *testing.T) {
	ix := NewIndex(edges("Q2>Q1", "Q3>Q2", "Q1>Q3", "Q2>Q3"), []string{parentCol})
	v := NewVisit()

	tree := Build(ix, "Q1", nil, v, Options{})

	var all [][]string
	branches(tree, nil, &all)
	for _, b := range all {
		seen := map[string]bool{}
		for _, id := range b {
			if id == models.SingleEntries {
				continue
			}
			if seen[id] {
				t.Fatalf("%s repeats on branch %v", id, b)
			}
			seen[id] = true
		}
	}
	for _, id := range []string{"Q1", "Q2", "Q3"} {
		if !v.Contains(id) {
			t.Errorf("%s not visited", id)
		}
	}
}

func TestBuildSelfLoop(t *testing.T) {
	ix := NewIndex(edges("Q1>Q1", "Q2>Q1"), []string{parentCol})
	tree := Build(ix, "Q1", nil, NewVisit(), Options{})

	if got := shape(tree); got != "Q1(singleEntries(Q2))" {
		t.Errorf("tree = %s", got)
	}
}

func TestBuildSelfLoopBelowRoot(t *testing.T) {
	ix := NewIndex(edges("Q2>Q1", "Q2>Q2", "Q3>Q1"), []string{parentCol})
	v := NewVisit()
	tree := Build(ix, "Q1", nil, v, Options{})

	if got := shape(tree); got != "Q1(singleEntries(Q2 Q3))" {
		t.Errorf("tree = %s", got)
	}
	if got := fmt.Sprint(v.Paths("Q2")); got != "[[Q1]]" {
		t.Errorf("Q2 paths = %s", got)
	}
	if got := fmt.Sprint(ix.Children("Q2")); got != "[Q2]" {
		t.Errorf("index mutated: Q2 children = %s", got)
	}
}

func TestBuildMultipleParents(t *testing.T) {
	ix := NewIndex(edges("Q2>Q1", "Q3>Q1", "Q4>Q2", "Q4>Q3"), []string{parentCol})
	v := NewVisit()

	tree := Build(ix, "Q1", nil, v, Options{})

	if names(tree)["Q4"] != 2 {
		t.Errorf("Q4 should appear under both parents: %s", shape(tree))
	}
	paths := v.Paths("Q4")
	if len(paths) != 2 {
		t.Fatalf("paths(Q4) = %v, want two", paths)
	}
	got := map[string]bool{}
	for _, p := range paths {
		got[strings.Join(p, ",")] = true
	}
	if !got["Q1,Q2"] || !got["Q1,Q3"] {
		t.Errorf("paths(Q4) = %v", paths)
	}
}

func TestBuildExpandOnce(t *testing.T) {
	ix := NewIndex(edges("Q2>Q1", "Q3>Q1", "Q4>Q2", "Q4>Q3", "Q5>Q4"), []string{parentCol})

	full := Build(ix, "Q1", nil, NewVisit(), Options{})
	if names(full)["Q5"] != 2 {
		t.Errorf("default mode duplicates subtrees: %s", shape(full))
	}

	v := NewVisit()
	once := Build(ix, "Q1", nil, v, Options{ExpandOnce: true})
	if names(once)["Q5"] != 1 {
		t.Errorf("expand-once should expand Q4 a single time: %s", shape(once))
	}
	if len(v.Paths("Q4")) != 2 {
		t.Errorf("both paths to Q4 are still recorded, got %v", v.Paths("Q4"))
	}
}

func TestBuildReachesClosure(t *testing.T) {
	// A layered DAG where every node of layer i is a child of every node of layer i-1.
	var pairs []string
	layers := [][]string{{"Q1"}}
	n := 2
	for depth := 1; depth < 5; depth++ {
		var layer []string
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("Q%d", n)
			n++
			layer = append(layer, id)
			for _, parent := range layers[depth-1] {
				pairs = append(pairs, id+">"+parent)
			}
		}
		layers = append(layers, layer)
	}

	ix := NewIndex(edges(pairs...), []string{parentCol})
	v := NewVisit()
	tree := Build(ix, "Q1", nil, v, Options{})

	counts := names(tree)
	for i := 1; i < n; i++ {
		id := fmt.Sprintf("Q%d", i)
		if counts[id] == 0 {
			t.Errorf("%s missing from tree", id)
		}
	}
	// Layer 4 nodes are reached through 3*3*3 distinct paths.
	if got := len(v.Paths(layers[4][0])); got != 27 {
		t.Errorf("paths = %d, want 27", got)
	}
}

func TestBuildDeepChain(t *testing.T) {
	const depth = 2000
	pairs := make([]string, 0, depth)
	for i := 1; i < depth; i++ {
		pairs = append(pairs, fmt.Sprintf("Q%d>Q%d", i+1, i))
	}

	ix := NewIndex(edges(pairs...), []string{parentCol})
	v := NewVisit()
	tree := Build(ix, "Q1", nil, v, Options{})

	if len(v.Nodes()) != depth {
		t.Errorf("visited %d, want %d", len(v.Nodes()), depth)
	}
	if got := len(v.Paths(fmt.Sprintf("Q%d", depth))[0]); got != depth-1 {
		t.Errorf("deepest path length = %d, want %d", got, depth-1)
	}
	if models.CountNodes(tree) == 0 {
		t.Error("empty tree")
	}
}

func TestBuildLeafRoot(t *testing.T) {
	ix := NewIndex(nil, []string{parentCol})
	tree := Build(ix, "Q42", nil, NewVisit(), Options{})
	if _, ok := tree.(*models.Leaf); !ok {
		t.Fatalf("root without children should be a leaf, got %T", tree)
	}
}
