package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/strata/internal/graphtest"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
	"github.com/matzehuels/strata/pkg/observability"
)

func newGraph(opts graph.Options) *layout.Graph {
	return layout.NewGraph(opts)
}

func node(w, h float64) *layout.NodeLabel {
	return &layout.NodeLabel{Width: w, Height: h}
}

func pt(x, y float64) layout.Point { return layout.Point{X: x, Y: y} }

// =============================================================================
// Options
// =============================================================================

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.Pipeline != DefaultPipeline {
		t.Errorf("Pipeline = %q, want %q", opts.Pipeline, DefaultPipeline)
	}
	if opts.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", opts.Timeout, DefaultTimeout)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second ValidateAndSetDefaults() error: %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"Pipeline", Options{Pipeline: "fast"}},
		{"Rankdir", Options{Rankdir: "up"}},
		{"Ranker", Options{Ranker: "random"}},
		{"Acyclicer", Options{Acyclicer: "magic"}},
		{"Align", Options{Align: "center"}},
		{"NegativeNodesep", Options{Nodesep: -1}},
		{"NegativeMargin", Options{Marginy: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, errors.ErrCodeInvalidOption) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, errors.ErrCodeInvalidOption)
			}
		})
	}
}

func TestOptionsApply(t *testing.T) {
	gl := layout.DefaultGraphLabel()
	gl.Marginx = 7
	opts := Options{Rankdir: "LR", Ranksep: 80, Ranker: "longest-path", Align: "UL"}
	opts.apply(gl)

	want := layout.DefaultGraphLabel()
	want.Rankdir = layout.RankdirLR
	want.Ranksep = 80
	want.Marginx = 7
	want.Ranker = layout.RankerLongestPath
	want.Align = layout.AlignUL
	if diff := cmp.Diff(want, gl); diff != "" {
		t.Errorf("apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsOverride(t *testing.T) {
	base := Options{Pipeline: PipelineMinimal, Rankdir: "LR", Nodesep: 10, Timeout: time.Second}
	_ = base.ValidateAndSetDefaults()

	got := base.Override(Options{Rankdir: "BT", Ranksep: 5, Refresh: true})
	want := Options{Pipeline: PipelineMinimal, Rankdir: "BT", Nodesep: 10, Ranksep: 5, Timeout: time.Second, Refresh: true}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(Options{}), cmpopts.IgnoreFields(Options{}, "Logger")); diff != "" {
		t.Errorf("Override() mismatch (-want +got):\n%s", diff)
	}
	if got.Logger != base.Logger {
		t.Error("Override() should keep the base logger")
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	a := Options{Pipeline: PipelineLayered, Rankdir: "TB"}
	b := Options{Pipeline: PipelineLayered, Rankdir: "LR"}
	if a.LayoutKeyOpts() == b.LayoutKeyOpts() {
		t.Error("LayoutKeyOpts should differ when rankdir differs")
	}
}

// =============================================================================
// Layered
// =============================================================================

func TestLayeredTwoNodes(t *testing.T) {
	g := newGraph(graph.Options{})
	layout.GraphOf(g).Ranksep = 300
	g.SetNode("a", node(50, 100))
	g.SetNode("b", node(50, 100))
	g.SetEdge("a", "b", layout.NewEdgeLabel())
	Layered(g)

	a, b := layout.NodeOf(g, "a"), layout.NodeOf(g, "b")
	if got, want := pt(a.X, a.Y), pt(25, 50); got != want {
		t.Errorf("a = %v, want %v", got, want)
	}
	if got, want := pt(b.X, b.Y), pt(25, 100+300+50); got != want {
		t.Errorf("b = %v, want %v", got, want)
	}
	e := layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "b"})
	want := []layout.Point{pt(25, 100), pt(25, 250), pt(25, 400)}
	if diff := cmp.Diff(want, e.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	gl := layout.GraphOf(g)
	if gl.Width != 50 || gl.Height != 500 {
		t.Errorf("graph size = %vx%v, want 50x500", gl.Width, gl.Height)
	}
	if gl.Ranksep != 300 || layout.Minlen(g, graph.EdgeKey{V: "a", W: "b"}) != 1 {
		t.Error("Layered should not change the caller's ranksep or minlen")
	}
}

func TestLayeredRanks(t *testing.T) {
	g := newGraph(graph.Options{})
	for _, e := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}} {
		g.SetEdge(e[0], e[1], layout.NewEdgeLabel())
	}
	g.SetEdge("d", "e", &layout.EdgeLabel{Minlen: 2, Weight: 1, Width: 10, Height: 10})
	Layered(g)

	got := make(map[string]int)
	for _, v := range g.Nodes() {
		got[v] = layout.RankOf(g, v)
	}
	want := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2, "e": 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ranks mismatch (-want +got):\n%s", diff)
	}
}

func TestLayeredEdgeLabel(t *testing.T) {
	g := newGraph(graph.Options{})
	layout.GraphOf(g).Ranksep = 300
	g.SetNode("a", node(50, 100))
	g.SetNode("b", node(75, 200))
	e := layout.NewEdgeLabel()
	e.Width, e.Height = 60, 70
	g.SetEdge("a", "b", e)
	Layered(g)

	a, b := layout.NodeOf(g, "a"), layout.NodeOf(g, "b")
	if got, want := pt(a.X, a.Y), pt(75.0/2, 50); got != want {
		t.Errorf("a = %v, want %v", got, want)
	}
	if got, want := pt(b.X, b.Y), pt(75.0/2, 100+150+70+150+100); got != want {
		t.Errorf("b = %v, want %v", got, want)
	}
	if e.Position == nil {
		t.Fatal("label position not set")
	}
	if got, want := *e.Position, pt(75.0/2, 100+150+35); got != want {
		t.Errorf("label = %v, want %v", got, want)
	}
	if e.Width != 60 || e.Height != 70 {
		t.Errorf("label size = %vx%v, want 60x70", e.Width, e.Height)
	}
}

func TestLayeredMargins(t *testing.T) {
	g := newGraph(graph.Options{})
	gl := layout.GraphOf(g)
	gl.Marginx, gl.Marginy = 10, 20
	g.SetNode("a", node(50, 100))
	Layered(g)

	a := layout.NodeOf(g, "a")
	if got, want := pt(a.X, a.Y), pt(35, 70); got != want {
		t.Errorf("a = %v, want %v", got, want)
	}
	if gl.Width != 70 || gl.Height != 140 {
		t.Errorf("graph size = %vx%v, want 70x140", gl.Width, gl.Height)
	}
}

func TestLayeredRankdir(t *testing.T) {
	tests := []struct {
		rankdir layout.Rankdir
		check   func(a, b *layout.NodeLabel) bool
	}{
		{layout.RankdirTB, func(a, b *layout.NodeLabel) bool { return a.Y < b.Y && a.X == b.X }},
		{layout.RankdirBT, func(a, b *layout.NodeLabel) bool { return a.Y > b.Y && a.X == b.X }},
		{layout.RankdirLR, func(a, b *layout.NodeLabel) bool { return a.X < b.X && a.Y == b.Y }},
		{layout.RankdirRL, func(a, b *layout.NodeLabel) bool { return a.X > b.X && a.Y == b.Y }},
	}
	for _, tt := range tests {
		t.Run(string(tt.rankdir), func(t *testing.T) {
			g := newGraph(graph.Options{})
			layout.GraphOf(g).Rankdir = tt.rankdir
			g.SetNode("a", node(50, 100))
			g.SetNode("b", node(50, 100))
			g.SetEdge("a", "b", layout.NewEdgeLabel())
			Layered(g)
			a, b := layout.NodeOf(g, "a"), layout.NodeOf(g, "b")
			if !tt.check(a, b) {
				t.Errorf("a = (%v, %v), b = (%v, %v)", a.X, a.Y, b.X, b.Y)
			}
			if a.Width != 50 || a.Height != 100 {
				t.Errorf("node size changed to %vx%v", a.Width, a.Height)
			}
		})
	}
}

func TestLayeredSelfLoop(t *testing.T) {
	g := newGraph(graph.Options{})
	g.SetNode("a", node(100, 100))
	g.SetEdge("a", "a", layout.NewEdgeLabel())
	Layered(g)

	a := layout.NodeOf(g, "a")
	e := layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "a"})
	if len(e.Points) != 7 {
		t.Fatalf("self loop has %d points, want 7", len(e.Points))
	}
	for _, p := range e.Points {
		if p.X <= a.X {
			t.Errorf("self loop point %v is not right of the node center %v", p, a.X)
		}
		if p.Y < a.Y-a.Height/2 || p.Y > a.Y+a.Height/2 {
			t.Errorf("self loop point %v leaves the node's height", p)
		}
	}
}

func TestLayeredCycle(t *testing.T) {
	g := newGraph(graph.Options{})
	for _, v := range []string{"a", "b", "c"} {
		g.SetNode(v, node(20, 20))
	}
	g.SetEdge("a", "b", layout.NewEdgeLabel())
	g.SetEdge("b", "c", layout.NewEdgeLabel())
	g.SetEdge("c", "a", layout.NewEdgeLabel())
	Layered(g)

	want := []graph.EdgeKey{{V: "a", W: "b"}, {V: "b", W: "c"}, {V: "c", W: "a"}}
	if diff := cmp.Diff(want, g.Edges()); diff != "" {
		t.Fatalf("Edges() mismatch (-want +got):\n%s", diff)
	}
	for _, k := range want {
		e := layout.EdgeOf(g, k)
		if e.Reversed || len(e.Points) < 3 {
			t.Errorf("edge %v: reversed %v, %d points", k, e.Reversed, len(e.Points))
			continue
		}
		src := layout.NodeOf(g, k.V)
		if first := e.Points[0]; math.Abs(first.X-src.X) > 10 || math.Abs(first.Y-src.Y) > 10+1e-9 {
			t.Errorf("edge %v starts at %v, away from its source %v,%v", k, first, src.X, src.Y)
		}
	}
}

func TestLayeredParallelEdges(t *testing.T) {
	g := newGraph(graph.Options{Multigraph: true})
	g.SetNode("a", node(20, 20))
	g.SetNode("b", node(20, 20))
	g.SetEdgeNamed("a", "b", "x", layout.NewEdgeLabel())
	g.SetEdgeNamed("a", "b", "y", layout.NewEdgeLabel())
	Layered(g)

	for _, name := range []string{"x", "y"} {
		e := layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "b", Name: name})
		if len(e.Points) < 3 {
			t.Errorf("edge %s has %d points", name, len(e.Points))
		}
	}
}

func TestLayeredCompound(t *testing.T) {
	g := newGraph(graph.Options{Compound: true})
	g.SetNode("a", node(40, 20))
	g.SetNode("b", node(40, 20))
	g.SetNode("c", node(40, 20))
	g.SetNode("cluster", node(0, 0))
	g.SetParent("a", "cluster")
	g.SetParent("b", "cluster")
	g.SetEdge("a", "b", layout.NewEdgeLabel())
	g.SetEdge("b", "c", layout.NewEdgeLabel())
	g.SetEdge("cluster", "c", layout.NewEdgeLabel())
	Layered(g)

	cl := layout.NodeOf(g, "cluster")
	for _, v := range []string{"a", "b"} {
		n := layout.NodeOf(g, v)
		if n.X-n.Width/2 < cl.X-cl.Width/2 || n.X+n.Width/2 > cl.X+cl.Width/2 ||
			n.Y-n.Height/2 < cl.Y-cl.Height/2 || n.Y+n.Height/2 > cl.Y+cl.Height/2 {
			t.Errorf("%s (%v,%v) is outside the cluster box %+v", v, n.X, n.Y, cl)
		}
	}
	if e := layout.EdgeOf(g, graph.EdgeKey{V: "cluster", W: "c"}); len(e.Points) != 0 {
		t.Errorf("edge from a compound node should not be routed, got %v", e.Points)
	}
	if e := layout.EdgeOf(g, graph.EdgeKey{V: "b", W: "c"}); len(e.Points) < 3 {
		t.Errorf("b->c has %d points", len(e.Points))
	}
}

func TestLayeredEmpty(t *testing.T) {
	g := newGraph(graph.Options{})
	Layered(g)
	if gl := layout.GraphOf(g); gl.Width != 0 || gl.Height != 0 {
		t.Errorf("empty graph size = %vx%v, want 0x0", gl.Width, gl.Height)
	}
}

// =============================================================================
// Minimal
// =============================================================================

func chain(opts graph.Options, ids ...string) *layout.Graph {
	g := newGraph(opts)
	for i, v := range ids {
		g.SetNode(v, node(10, 10))
		if i > 0 {
			g.SetEdge(ids[i-1], v, layout.NewEdgeLabel())
		}
	}
	return g
}

func TestMinimalChain(t *testing.T) {
	g := chain(graph.Options{}, "a", "b", "c")
	Minimal(g)

	got := map[string]layout.Point{}
	for _, v := range g.Nodes() {
		n := layout.NodeOf(g, v)
		got[v] = pt(n.X, n.Y)
	}
	want := map[string]layout.Point{"a": pt(5, 5), "b": pt(5, 65), "c": pt(5, 125)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}

	e := layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "b"})
	if diff := cmp.Diff([]layout.Point{pt(5, 10), pt(5, 35), pt(5, 60)}, e.Points); diff != "" {
		t.Errorf("a->b points mismatch (-want +got):\n%s", diff)
	}
	if gl := layout.GraphOf(g); gl.Width != 10 || gl.Height != 130 {
		t.Errorf("graph size = %vx%v, want 10x130", gl.Width, gl.Height)
	}
}

func TestMinimalRankdir(t *testing.T) {
	tests := []struct {
		rankdir layout.Rankdir
		a, b    layout.Point
	}{
		{layout.RankdirTB, pt(5, 5), pt(5, 65)},
		{layout.RankdirBT, pt(5, 65), pt(5, 5)},
		{layout.RankdirLR, pt(5, 5), pt(65, 5)},
		{layout.RankdirRL, pt(65, 5), pt(5, 5)},
	}
	for _, tt := range tests {
		t.Run(string(tt.rankdir), func(t *testing.T) {
			g := chain(graph.Options{}, "a", "b")
			layout.GraphOf(g).Rankdir = tt.rankdir
			Minimal(g)
			a, b := layout.NodeOf(g, "a"), layout.NodeOf(g, "b")
			if got := pt(a.X, a.Y); got != tt.a {
				t.Errorf("a = %v, want %v", got, tt.a)
			}
			if got := pt(b.X, b.Y); got != tt.b {
				t.Errorf("b = %v, want %v", got, tt.b)
			}
		})
	}
}

func TestMinimalCentersRanks(t *testing.T) {
	g := newGraph(graph.Options{})
	g.SetNode("a", node(10, 10))
	g.SetNode("b", node(10, 10))
	g.SetNode("c", node(20, 10))
	g.SetEdge("a", "b", layout.NewEdgeLabel())
	g.SetEdge("a", "c", layout.NewEdgeLabel())
	Minimal(g)

	for v, want := range map[string]float64{"a": 40, "b": 5, "c": 70} {
		if got := layout.NodeOf(g, v).X; got != want {
			t.Errorf("%s.X = %v, want %v", v, got, want)
		}
	}
	if got := layout.NodeOf(g, "c").Order; got != 1 {
		t.Errorf("c.Order = %d, want 1", got)
	}
}

func TestMinimalEdgeLabel(t *testing.T) {
	g := chain(graph.Options{}, "a", "b")
	e := layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "b"})
	e.Width, e.Height = 30, 20
	e.LabelPos = layout.LabelPosRight
	Minimal(g)

	if got := layout.NodeOf(g, "b").Y; got != 10+50+20+5 {
		t.Errorf("b.Y = %v, want %v", got, 10+50+20+5)
	}
	if e.Position == nil {
		t.Fatal("label position not set")
	}
	mid := e.Points[1]
	if got, want := *e.Position, pt(mid.X+10+15, mid.Y); got != want {
		t.Errorf("label = %v, want %v", got, want)
	}
}

func TestMinimalMinlen(t *testing.T) {
	g := chain(graph.Options{}, "a", "b")
	layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "b"}).Minlen = 2
	Minimal(g)

	if got := layout.NodeOf(g, "b").Rank; got != 2 {
		t.Errorf("b.Rank = %d, want 2", got)
	}
	if got := len(layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "b"}).Points); got != 5 {
		t.Errorf("points = %d, want 5", got)
	}
}

func TestMinimalSelfLoop(t *testing.T) {
	g := newGraph(graph.Options{})
	g.SetNode("a", node(10, 10))
	g.SetEdge("a", "a", layout.NewEdgeLabel())
	Minimal(g)

	want := []layout.Point{
		pt(30, 5), pt(30, 0), pt(50, 0), pt(50, 5), pt(50, 10), pt(30, 10), pt(30, 5),
	}
	if diff := cmp.Diff(want, layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "a"}).Points); diff != "" {
		t.Errorf("self loop mismatch (-want +got):\n%s", diff)
	}
}

func TestMinimalCycle(t *testing.T) {
	g := chain(graph.Options{}, "a", "b")
	g.SetEdge("b", "a", layout.NewEdgeLabel())
	Minimal(g)

	ab := layout.EdgeOf(g, graph.EdgeKey{V: "a", W: "b"})
	ba := layout.EdgeOf(g, graph.EdgeKey{V: "b", W: "a"})
	if ba == nil || ba.Reversed {
		t.Fatalf("b->a not restored: %+v", ba)
	}
	if ab.Points[0] != ba.Points[len(ba.Points)-1] {
		t.Errorf("reversed edge should run from b back to a: %v vs %v", ab.Points, ba.Points)
	}
}

func TestMinimalCompactsClusters(t *testing.T) {
	g := newGraph(graph.Options{Compound: true})
	for _, v := range []string{"a", "b", "x", "y"} {
		g.SetNode(v, node(10, 10))
	}
	g.SetNode("p", node(0, 0))
	g.SetParent("x", "p")
	g.SetParent("y", "p")
	g.SetEdge("a", "x", layout.NewEdgeLabel())
	g.SetEdge("a", "b", layout.NewEdgeLabel())
	g.SetEdge("b", "y", layout.NewEdgeLabel())
	Minimal(g)

	x, y := layout.NodeOf(g, "x"), layout.NodeOf(g, "y")
	if x.Rank != 2 || y.Rank != 2 || x.Y != y.Y {
		t.Errorf("x rank %d y %v, y rank %d y %v; want both on rank 2", x.Rank, x.Y, y.Rank, y.Y)
	}
	p := layout.NodeOf(g, "p")
	if p.Y != x.Y || p.Width < x.Width+y.Width {
		t.Errorf("cluster box %+v does not enclose its children", p)
	}
}

// =============================================================================
// Run
// =============================================================================

type stageRecorder struct {
	observability.NoopPipelineHooks
	stages   []string
	started  int
	finished int
	lastErr  error
}

func (r *stageRecorder) OnLayoutStart(context.Context, string, int) { r.started++ }

func (r *stageRecorder) OnLayoutComplete(_ context.Context, _ string, _ time.Duration, err error) {
	r.finished++
	r.lastErr = err
}

func (r *stageRecorder) OnStageComplete(_ context.Context, _, stage string, _ time.Duration) {
	r.stages = append(r.stages, stage)
}

func TestRunReportsStages(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetPipelineHooks(rec)
	defer observability.Reset()

	g := chain(graph.Options{}, "a", "b")
	if err := Run(context.Background(), g, Options{Rankdir: "LR"}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if layout.GraphOf(g).Rankdir != layout.RankdirLR {
		t.Error("Run() should apply options to the graph label")
	}
	if rec.started != 1 || rec.finished != 1 || rec.lastErr != nil {
		t.Errorf("hooks: started %d, finished %d, err %v", rec.started, rec.finished, rec.lastErr)
	}
	seen := map[string]bool{}
	for _, s := range rec.stages {
		seen[s] = true
	}
	for _, s := range []string{"acyclic", "rank", "normalize", "order", "position", "acyclic-undo"} {
		if !seen[s] {
			t.Errorf("stage %q not reported, got %v", s, rec.stages)
		}
	}
}

func TestRunMinimal(t *testing.T) {
	g := chain(graph.Options{}, "a", "b")
	if err := Run(context.Background(), g, Options{Pipeline: PipelineMinimal}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := layout.NodeOf(g, "b").Y; got != 65 {
		t.Errorf("b.Y = %v, want 65", got)
	}
}

func TestRunDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := Run(ctx, chain(graph.Options{}, "a", "b"), Options{})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("Run() = %v, want %s", err, errors.ErrCodeTimeout)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, chain(graph.Options{}, "a", "b"), Options{}); err == nil {
		t.Error("Run() on a canceled context should fail")
	}
}

func TestRunInvalidOptions(t *testing.T) {
	err := Run(context.Background(), chain(graph.Options{}, "a"), Options{Pipeline: "bogus"})
	if !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("Run() = %v, want %s", err, errors.ErrCodeInvalidOption)
	}
}

// =============================================================================
// Properties
// =============================================================================

func TestProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property tests in short mode")
	}
	properties := gopter.NewProperties(graphtest.Params(100))

	fromPairs := func(pairs []graphtest.Pair) *layout.Graph {
		g := newGraph(graph.Options{Multigraph: true})
		for i, p := range pairs {
			for _, v := range []string{p.V, p.W} {
				if !g.HasNode(v) {
					g.SetNode(v, node(float64(10+i%3*10), 10))
				}
			}
			e := layout.NewEdgeLabel()
			if i%4 == 0 {
				e.Width, e.Height = 15, 5
			}
			g.SetEdgeNamed(p.V, p.W, graphtest.NodeID(i), e)
		}
		return g
	}

	for _, run := range []struct {
		name string
		fn   func(*layout.Graph)
	}{{PipelineLayered, Layered}, {PipelineMinimal, Minimal}} {
		properties.Property(run.name+" keeps every edge and routes it", prop.ForAll(
			func(pairs []graphtest.Pair) bool {
				g := fromPairs(pairs)
				before := g.Edges()
				run.fn(g)
				if diff := cmp.Diff(before, g.Edges()); diff != "" {
					return false
				}
				for _, k := range before {
					e := layout.EdgeOf(g, k)
					if e.Reversed || len(e.Points) < 3 {
						return false
					}
				}
				return true
			},
			graphtest.Edges(7),
		))

		properties.Property(run.name+" keeps nodes inside the graph bounds", prop.ForAll(
			func(pairs []graphtest.Pair) bool {
				g := fromPairs(pairs)
				run.fn(g)
				gl := layout.GraphOf(g)
				const eps = 1e-6
				for _, v := range g.Nodes() {
					n := layout.NodeOf(g, v)
					if n.X-n.Width/2 < -eps || n.X+n.Width/2 > gl.Width+eps ||
						n.Y-n.Height/2 < -eps || n.Y+n.Height/2 > gl.Height+eps {
						return false
					}
				}
				return true
			},
			graphtest.DAGEdges(7),
		))
	}

	properties.Property("layered is deterministic", prop.ForAll(
		func(pairs []graphtest.Pair) bool {
			a, b := fromPairs(pairs), fromPairs(pairs)
			Layered(a)
			Layered(b)
			for _, v := range a.Nodes() {
				na, nb := layout.NodeOf(a, v), layout.NodeOf(b, v)
				if na.X != nb.X || na.Y != nb.Y {
					return false
				}
			}
			return true
		},
		graphtest.Edges(7),
	))

	properties.TestingRun(t)
}
