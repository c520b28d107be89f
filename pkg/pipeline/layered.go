package pipeline

import (
	"math"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
	"github.com/matzehuels/strata/pkg/layout/acyclic"
	"github.com/matzehuels/strata/pkg/layout/coordsys"
	"github.com/matzehuels/strata/pkg/layout/normalize"
	"github.com/matzehuels/strata/pkg/layout/order"
	"github.com/matzehuels/strata/pkg/layout/position"
	"github.com/matzehuels/strata/pkg/layout/rank"
	"github.com/matzehuels/strata/pkg/layout/selfedge"
)

// =============================================================================
// Layered Pipeline
// =============================================================================

// runLayered lays out the leaf nodes of g on a private copy and writes the
// coordinates back. Compound nodes are fitted around their children
// afterwards. Edges that touch a compound node are not routed.
func runLayered(x *executor, g *layout.Graph) error {
	lg := leafView(g)
	err := x.run(lg,
		stage{"make-space-for-edge-labels", makeSpaceForEdgeLabels},
		stage{"remove-self-edges", selfedge.Remove},
		stage{"acyclic", acyclic.Run},
		stage{"rank", rank.Rank},
		stage{"inject-edge-label-proxies", injectEdgeLabelProxies},
		stage{"remove-empty-ranks", layout.RemoveEmptyRanks},
		stage{"normalize-ranks", layout.NormalizeRanks},
		stage{"remove-edge-label-proxies", removeEdgeLabelProxies},
		stage{"normalize", normalize.Run},
		stage{"order", order.Run},
		stage{"coordinate-adjust", coordsys.Adjust},
		stage{"insert-self-edges", selfedge.Insert},
		stage{"position", position.Run},
		stage{"position-self-edges", selfedge.Position},
		stage{"normalize-undo", normalize.Undo},
		stage{"coordinate-undo", coordsys.Undo},
		stage{"translate", translateGraph},
		stage{"assign-node-intersects", assignNodeIntersects},
		stage{"position-edge-labels", positionEdgeLabels},
		stage{"acyclic-undo", acyclic.Undo},
	)
	if err != nil {
		return err
	}
	copyBack(g, lg)
	fitClusters(g)
	return nil
}

// leafView copies the nodes of g that have no children, with every edge
// between them, into a new flat multigraph. Labels are cloned so the stages
// never touch the caller's constraints.
func leafView(g *layout.Graph) *layout.Graph {
	lg := layout.NewGraph(graph.Options{Multigraph: true})
	gl := *layout.GraphOf(g)
	gl.DummyChains = nil
	gl.IDSeq = nil
	lg.SetGraphLabel(&gl)

	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		n := layout.NodeOf(g, v).Clone()
		if n == nil {
			n = &layout.NodeLabel{}
		}
		n.SelfEdges = nil
		lg.SetNode(v, n)
	}
	for _, k := range g.Edges() {
		if !lg.HasNode(k.V) || !lg.HasNode(k.W) {
			continue
		}
		e := layout.EdgeOf(g, k).Clone()
		if e == nil {
			e = layout.NewEdgeLabel()
		}
		e.Points = nil
		e.Position = nil
		lg.SetEdgeKey(k, e)
	}
	return lg
}

// makeSpaceForEdgeLabels halves ranksep and doubles every minlen so that a
// label dummy fits between any two ranks. Side labels widen their box by
// the label offset along the cross axis.
func makeSpaceForEdgeLabels(g *layout.Graph) {
	gl := layout.GraphOf(g)
	gl.Ranksep /= 2
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		if e == nil {
			continue
		}
		e.Minlen = max(e.Minlen, 1) * 2
		if e.LabelPos == layout.LabelPosLeft || e.LabelPos == layout.LabelPosRight {
			if gl.Rankdir.Horizontal() {
				e.Height += e.LabelOffset
			} else {
				e.Width += e.LabelOffset
			}
		}
	}
}

// injectEdgeLabelProxies adds a proxy node halfway down every labelled edge
// so rank normalization moves the label rank with the rest of the graph.
func injectEdgeLabelProxies(g *layout.Graph) {
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		if !e.HasLabel() {
			continue
		}
		vr, wr := layout.RankOf(g, k.V), layout.RankOf(g, k.W)
		g.SetNode(layout.UniqueID(g, "_ep"), &layout.NodeLabel{
			Rank:    (wr-vr)/2 + vr,
			Dummy:   layout.DummyEdgeProxy,
			EdgeObj: k,
		})
	}
}

func removeEdgeLabelProxies(g *layout.Graph) {
	for _, v := range g.Nodes() {
		n := layout.NodeOf(g, v)
		if n == nil || n.Dummy != layout.DummyEdgeProxy {
			continue
		}
		if e := layout.EdgeOf(g, n.EdgeObj); e != nil {
			e.LabelRank = n.Rank
		}
		g.RemoveNode(v)
	}
}

// translateGraph moves the drawing so its top-left corner sits at
// (marginx, marginy) and records the graph's width and height.
func translateGraph(g *layout.Graph) {
	gl := layout.GraphOf(g)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(x, y, w, h float64) {
		minX = min(minX, x-w/2)
		maxX = max(maxX, x+w/2)
		minY = min(minY, y-h/2)
		maxY = max(maxY, y+h/2)
	}

	for _, v := range g.Nodes() {
		n := layout.NodeOf(g, v)
		extend(n.X, n.Y, n.Width, n.Height)
	}
	for _, k := range g.Edges() {
		if e := layout.EdgeOf(g, k); e != nil && e.Position != nil {
			extend(e.Position.X, e.Position.Y, e.Width, e.Height)
		}
	}
	if math.IsInf(minX, 1) {
		gl.Width, gl.Height = 0, 0
		return
	}

	minX -= gl.Marginx
	minY -= gl.Marginy
	for _, v := range g.Nodes() {
		n := layout.NodeOf(g, v)
		n.X -= minX
		n.Y -= minY
	}
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		if e == nil {
			continue
		}
		for i := range e.Points {
			e.Points[i].X -= minX
			e.Points[i].Y -= minY
		}
		if e.Position != nil {
			e.Position.X -= minX
			e.Position.Y -= minY
		}
	}
	gl.Width = maxX - minX + gl.Marginx
	gl.Height = maxY - minY + gl.Marginy
}

// assignNodeIntersects clips every edge to the borders of its end nodes.
// Edges without bends get the midpoint of the two centers as their only
// interior point.
func assignNodeIntersects(g *layout.Graph) {
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		v, w := layout.NodeOf(g, k.V), layout.NodeOf(g, k.W)
		if e == nil || v == nil || w == nil {
			continue
		}
		inner := e.Points
		if len(inner) == 0 {
			inner = []layout.Point{{X: (v.X + w.X) / 2, Y: (v.Y + w.Y) / 2}}
		}
		pts := make([]layout.Point, 0, len(inner)+2)
		pts = append(pts, layout.IntersectRect(rectOf(v), inner[0]))
		pts = append(pts, inner...)
		pts = append(pts, layout.IntersectRect(rectOf(w), inner[len(inner)-1]))
		e.Points = pts
	}
}

// positionEdgeLabels places labels that no dummy carried on the middle
// point of their edge, shifted sideways for l and r labels.
func positionEdgeLabels(g *layout.Graph) {
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		if e == nil || e.Position != nil || len(e.Points) == 0 {
			continue
		}
		if e.Width <= 0 && e.Height <= 0 {
			continue
		}
		p := labelAnchor(e, e.Points[len(e.Points)/2])
		e.Position = &p
	}
}

func labelAnchor(e *layout.EdgeLabel, mid layout.Point) layout.Point {
	switch e.LabelPos {
	case layout.LabelPosLeft:
		mid.X -= e.LabelOffset + e.Width/2
	case layout.LabelPosRight:
		mid.X += e.LabelOffset + e.Width/2
	}
	return mid
}

func rectOf(n *layout.NodeLabel) layout.Rect {
	return layout.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// copyBack writes the coordinates computed on lg onto the labels of g.
// Ranks on lg count label ranks too, so they are halved back to the
// caller's units unless the caller supplied them.
func copyBack(g, lg *layout.Graph) {
	gl, lgl := layout.GraphOf(g), layout.GraphOf(lg)
	gl.Width, gl.Height = lgl.Width, lgl.Height
	scale := 2
	if lgl.Ranker == layout.RankerNone {
		scale = 1
	}

	for _, v := range lg.Nodes() {
		src, dst := layout.NodeOf(lg, v), layout.NodeOf(g, v)
		if src == nil || dst == nil {
			continue
		}
		dst.X, dst.Y = src.X, src.Y
		dst.Rank, dst.Order = src.Rank/scale, src.Order
	}
	for _, k := range lg.Edges() {
		src, dst := layout.EdgeOf(lg, k), layout.EdgeOf(g, k)
		if src == nil || dst == nil {
			continue
		}
		dst.Points = append([]layout.Point(nil), src.Points...)
		dst.Position = nil
		if src.Position != nil {
			p := *src.Position
			dst.Position = &p
		}
		dst.LabelRank = src.LabelRank
	}
}

// =============================================================================
// Compound Nodes
// =============================================================================

type bounds struct {
	minX, minY, maxX, maxY float64
	ok                     bool
}

func (b *bounds) add(x, y, w, h float64) {
	if !b.ok {
		b.minX, b.minY = x-w/2, y-h/2
		b.maxX, b.maxY = x+w/2, y+h/2
		b.ok = true
		return
	}
	b.minX = min(b.minX, x-w/2)
	b.minY = min(b.minY, y-h/2)
	b.maxX = max(b.maxX, x+w/2)
	b.maxY = max(b.maxY, y+h/2)
}

func (b *bounds) merge(o bounds) {
	if o.ok {
		b.add((o.minX+o.maxX)/2, (o.minY+o.maxY)/2, o.maxX-o.minX, o.maxY-o.minY)
	}
}

// fitClusters sizes every compound node to the bounding box of its
// descendants. Its rank becomes the lowest rank among them.
func fitClusters(g *layout.Graph) {
	if !g.IsCompound() {
		return
	}
	var fit func(v string) (bounds, int)
	fit = func(v string) (bounds, int) {
		var b bounds
		lowest := math.MaxInt
		for _, c := range g.Children(v) {
			n := layout.NodeOf(g, c)
			if g.HasChildren(c) {
				cb, cr := fit(c)
				b.merge(cb)
				lowest = min(lowest, cr)
				continue
			}
			if n == nil {
				continue
			}
			b.add(n.X, n.Y, n.Width, n.Height)
			lowest = min(lowest, n.Rank)
		}
		if n := layout.NodeOf(g, v); n != nil && b.ok {
			n.X = (b.minX + b.maxX) / 2
			n.Y = (b.minY + b.maxY) / 2
			n.Width = b.maxX - b.minX
			n.Height = b.maxY - b.minY
			n.Rank = lowest
		}
		return b, lowest
	}
	for _, v := range g.ChildrenRoot() {
		if g.HasChildren(v) {
			fit(v)
		}
	}
}
