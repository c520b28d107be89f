package selfedge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

func TestRemove(t *testing.T) {
	g := layout.NewGraph(graph.Options{Multigraph: true})
	loop := layout.NewEdgeLabel()
	g.SetEdge("a", "a", loop)
	g.SetEdge("a", "b", layout.NewEdgeLabel())

	Remove(g)
	if g.HasEdge("a", "a") {
		t.Error("self-loop still in graph")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	want := []layout.SelfEdge{{Key: graph.EdgeKey{V: "a", W: "a"}, Label: loop}}
	if diff := cmp.Diff(want, layout.NodeOf(g, "a").SelfEdges); diff != "" {
		t.Errorf("SelfEdges mismatch (-want +got):\n%s", diff)
	}
}

func TestInsert(t *testing.T) {
	g := layout.NewGraph(graph.Options{Multigraph: true})
	g.SetNode("a", &layout.NodeLabel{Order: 0})
	g.SetNode("b", &layout.NodeLabel{Order: 1})
	g.SetEdge("a", "a", &layout.EdgeLabel{Width: 10, Height: 4, Minlen: 1, Weight: 1})
	Remove(g)

	Insert(g)
	if got := layout.NodeOf(g, "b").Order; got != 2 {
		t.Errorf("order(b) = %d, want 2", got)
	}
	d := layout.NodeOf(g, "_se1")
	if d == nil {
		t.Fatal("no selfedge dummy inserted")
	}
	if d.Dummy != layout.DummySelfEdge || d.Order != 1 || d.Width != 10 || d.Height != 4 {
		t.Errorf("dummy = %+v", d)
	}
	if len(layout.NodeOf(g, "a").SelfEdges) != 0 {
		t.Error("parked self-loops not cleared")
	}
}

func TestPosition(t *testing.T) {
	g := layout.NewGraph(graph.Options{Multigraph: true})
	g.SetNode("a", &layout.NodeLabel{X: 0, Y: 0, Width: 100, Height: 100})
	loop := layout.NewEdgeLabel()
	g.SetEdge("a", "a", loop)
	Remove(g)
	Insert(g)
	layout.NodeOf(g, "_se1").X = 110

	Position(g)
	if g.HasNode("_se1") {
		t.Error("dummy not removed")
	}
	got, ok := g.Edge("a", "a")
	if !ok || got != loop {
		t.Fatal("self-loop not restored")
	}
	want := []layout.Point{
		{X: 90, Y: -50},
		{X: 100, Y: -50},
		{X: 110, Y: 0},
		{X: 100, Y: 50},
		{X: 90, Y: 50},
	}
	if diff := cmp.Diff(want, got.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if got.Position == nil || *got.Position != (layout.Point{X: 110, Y: 0}) {
		t.Errorf("Position = %v, want {110 0}", got.Position)
	}
}
