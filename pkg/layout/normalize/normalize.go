// Package normalize splits edges that span more than one rank into chains of
// dummy nodes, one per intermediate rank, and joins them back once the
// dummies have been positioned.
package normalize

import (
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// Run replaces every edge v->w with rank(w) > rank(v)+1 by a chain
// v->d1->...->dk->w with one dummy per rank in between. The first dummy of
// each chain is recorded in [layout.GraphLabel.DummyChains]. When the edge
// carries a label box, the dummy at its LabelRank takes the box size and
// becomes an edge-label dummy.
//
// Edges must point downwards. Edges between adjacent ranks are kept as is.
func Run(g *layout.Graph) {
	gl := layout.GraphOf(g)
	gl.DummyChains = nil
	for _, k := range g.Edges() {
		normalizeEdge(g, gl, k)
	}
}

func normalizeEdge(g *layout.Graph, gl *layout.GraphLabel, k graph.EdgeKey) {
	vRank := layout.RankOf(g, k.V)
	wRank := layout.RankOf(g, k.W)
	if wRank == vRank+1 {
		return
	}
	label, ok := g.EdgeByKey(k)
	if !ok || label == nil {
		return
	}

	g.RemoveEdgeKey(k)
	label.Points = nil

	prev := k.V
	for r := vRank + 1; r < wRank; r++ {
		dummy := &layout.NodeLabel{
			Rank:      r,
			Dummy:     layout.DummyEdge,
			EdgeLabel: label,
			EdgeObj:   k,
		}
		if label.HasLabel() && label.LabelRank == r {
			dummy.Width = label.Width
			dummy.Height = label.Height
			dummy.Dummy = layout.DummyEdgeLabel
			dummy.LabelPos = label.LabelPos
			dummy.LabelOffset = label.LabelOffset
		}
		id := layout.DummyID(g, "_d")
		g.SetNode(id, dummy)
		if prev == k.V {
			gl.DummyChains = append(gl.DummyChains, id)
		}
		g.SetEdgeNamed(prev, id, k.Name, &layout.EdgeLabel{Weight: label.Weight, Minlen: 1})
		prev = id
	}
	g.SetEdgeNamed(prev, k.W, k.Name, &layout.EdgeLabel{Weight: label.Weight, Minlen: 1})
}

// Undo removes every dummy chain recorded by [Run] and restores the original
// edge under its original key. The positions of the chain's dummies become
// the edge's points; the edge-label dummy, if any, yields the label's
// Position and size.
func Undo(g *layout.Graph) {
	gl := layout.GraphOf(g)
	for _, start := range gl.DummyChains {
		n, ok := g.Node(start)
		if !ok || n == nil || n.EdgeLabel == nil {
			continue
		}
		label := n.EdgeLabel
		key := n.EdgeObj

		for v := start; v != ""; {
			n, ok := g.Node(v)
			if !ok || n == nil || !n.IsDummy() {
				break
			}
			next := ""
			if succ := g.Successors(v); len(succ) > 0 {
				next = succ[0]
			}
			label.Points = append(label.Points, layout.Point{X: n.X, Y: n.Y})
			if n.Dummy == layout.DummyEdgeLabel {
				label.Position = &layout.Point{X: n.X, Y: n.Y}
				label.Width = n.Width
				label.Height = n.Height
			}
			g.RemoveNode(v)
			v = next
		}
		g.SetEdgeKey(key, label)
	}
	gl.DummyChains = nil
}
