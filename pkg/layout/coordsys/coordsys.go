// Package coordsys maps a layout graph into the top-to-bottom frame the
// positioning stages work in, and back to the requested rank direction.
package coordsys

import (
	"github.com/matzehuels/strata/pkg/layout"
)

// Adjust prepares g for positioning: for LR and RL layouts the width and
// height of every node, edge label and parked self-loop label are swapped.
func Adjust(g *layout.Graph) {
	if layout.GraphOf(g).Rankdir.Horizontal() {
		swapWidthHeight(g)
	}
}

// Undo maps positions computed top-to-bottom into the rank direction of g.
// BT and RL layouts are mirrored vertically; LR and RL layouts then have x
// and y (and width and height) swapped.
func Undo(g *layout.Graph) {
	rd := layout.GraphOf(g).Rankdir
	if rd == layout.RankdirBT || rd == layout.RankdirRL {
		reverseY(g)
	}
	if rd.Horizontal() {
		swapXY(g)
		swapWidthHeight(g)
	}
}

func swapWidthHeight(g *layout.Graph) {
	for _, v := range g.Nodes() {
		n := layout.NodeOf(g, v)
		if n == nil {
			continue
		}
		n.Width, n.Height = n.Height, n.Width
		for _, se := range n.SelfEdges {
			if se.Label != nil {
				se.Label.Width, se.Label.Height = se.Label.Height, se.Label.Width
			}
		}
	}
	for _, k := range g.Edges() {
		if e := layout.EdgeOf(g, k); e != nil {
			e.Width, e.Height = e.Height, e.Width
		}
	}
}

func reverseY(g *layout.Graph) {
	for _, v := range g.Nodes() {
		if n := layout.NodeOf(g, v); n != nil {
			n.Y = -n.Y
		}
	}
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		if e == nil {
			continue
		}
		for i := range e.Points {
			e.Points[i].Y = -e.Points[i].Y
		}
		if e.Position != nil {
			e.Position.Y = -e.Position.Y
		}
	}
}

func swapXY(g *layout.Graph) {
	for _, v := range g.Nodes() {
		if n := layout.NodeOf(g, v); n != nil {
			n.X, n.Y = n.Y, n.X
		}
	}
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		if e == nil {
			continue
		}
		for i := range e.Points {
			e.Points[i].X, e.Points[i].Y = e.Points[i].Y, e.Points[i].X
		}
		if e.Position != nil {
			e.Position.X, e.Position.Y = e.Position.Y, e.Position.X
		}
	}
}
