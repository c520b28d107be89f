// Package selfedge parks self-loops on their node while ranks and orders are
// computed, reserves room for them next to the node before positioning, and
// routes them as small loops on the node's right side afterwards.
package selfedge

import (
	"github.com/matzehuels/strata/pkg/layout"
)

// Remove takes every self-loop out of g and stores it in the SelfEdges of
// its node.
func Remove(g *layout.Graph) {
	for _, k := range g.Edges() {
		if !k.IsSelfLoop() {
			continue
		}
		label := layout.EdgeOf(g, k)
		if n := layout.NodeOf(g, k.V); n != nil {
			n.SelfEdges = append(n.SelfEdges, layout.SelfEdge{Key: k, Label: label})
		}
		g.RemoveEdgeKey(k)
	}
}

// Insert adds one "selfedge" dummy right of each node per parked self-loop,
// sized like the loop's label, and renumbers the orders of every layer to
// make room for them.
func Insert(g *layout.Graph) {
	for _, layer := range layout.BuildLayerMatrix(g) {
		extra := 0
		for idx, v := range layer {
			n := layout.NodeOf(g, v)
			n.Order = idx + extra
			parked := n.SelfEdges
			n.SelfEdges = nil
			for _, se := range parked {
				extra++
				d := &layout.NodeLabel{
					Rank:      n.Rank,
					Order:     idx + extra,
					Dummy:     layout.DummySelfEdge,
					EdgeLabel: se.Label,
					EdgeObj:   se.Key,
				}
				if se.Label != nil {
					d.Width, d.Height = se.Label.Width, se.Label.Height
				}
				g.SetNode(layout.UniqueID(g, "_se"), d)
			}
		}
	}
}

// Position turns every "selfedge" dummy back into its self-loop. The loop
// leaves the right side of the node, reaches out to the dummy's x and comes
// back; the label is centered on the dummy.
func Position(g *layout.Graph) {
	for _, id := range g.Nodes() {
		d := layout.NodeOf(g, id)
		if d == nil || d.Dummy != layout.DummySelfEdge {
			continue
		}
		n := layout.NodeOf(g, d.EdgeObj.V)
		if n == nil {
			continue
		}
		label := d.EdgeLabel
		if label == nil {
			label = layout.NewEdgeLabel()
		}

		x := n.X + n.Width/2
		y := n.Y
		dx := d.X - x
		dy := n.Height / 2
		label.Points = []layout.Point{
			{X: x + 2*dx/3, Y: y - dy},
			{X: x + 5*dx/6, Y: y - dy},
			{X: x + dx, Y: y},
			{X: x + 5*dx/6, Y: y + dy},
			{X: x + 2*dx/3, Y: y + dy},
		}
		label.Position = &layout.Point{X: d.X, Y: d.Y}

		g.SetEdgeKey(d.EdgeObj, label)
		g.RemoveNode(id)
	}
}
