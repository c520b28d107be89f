// Package position assigns coordinates to a ranked and ordered layout graph.
//
// y is derived from the rank alone: every layer is as tall as its tallest
// node and layers are ranksep apart. x follows Brandes and Köpf, "Fast and
// Simple Horizontal Coordinate Assignment": nodes are aligned into vertical
// blocks in four directions (up/down times left/right), every alignment is
// compacted horizontally, and the four results are balanced.
package position

import (
	"math"
	"slices"

	"github.com/matzehuels/strata/pkg/layout"
)

// Alignments holds the x coordinates computed for each of the four BK
// directions, keyed by [layout.AlignUL], [layout.AlignUR], [layout.AlignDL]
// and [layout.AlignDR].
type Alignments map[layout.Align]map[string]float64

// directions lists the four alignments in their canonical order, which is
// also the tie-break order of [FindSmallestWidthAlignment].
var directions = []layout.Align{layout.AlignUL, layout.AlignUR, layout.AlignDL, layout.AlignDR}

// Run sets Y and then X on every node of g.
func Run(g *layout.Graph) {
	PositionY(g)
	xs := PositionX(g)
	for _, v := range g.Nodes() {
		if n := layout.NodeOf(g, v); n != nil {
			n.X = xs[v]
		}
	}
}

// PositionY centers every layer on a horizontal line. Each layer is as tall
// as its tallest node and consecutive layers are ranksep apart; the first
// layer touches y = 0.
func PositionY(g *layout.Graph) {
	ranksep := layout.GraphOf(g).Ranksep
	layering := layout.BuildLayerMatrix(g)
	prevY := 0.0
	for i, layer := range layering {
		maxH := 0.0
		for _, v := range layer {
			maxH = max(maxH, layout.NodeOf(g, v).Height)
		}
		for _, v := range layer {
			layout.NodeOf(g, v).Y = prevY + maxH/2
		}
		prevY += maxH
		if i+1 < len(layering) {
			prevY += ranksep
		}
	}
}

// PositionX returns the x coordinate of every node in the layering of g.
func PositionX(g *layout.Graph) map[string]float64 {
	layering := layout.BuildLayerMatrix(g)
	if len(layering) == 0 {
		return map[string]float64{}
	}
	conflicts := FindType1Conflicts(g, layering)
	conflicts.Merge(FindType2Conflicts(g, layering))

	xss := make(Alignments, 4)
	for _, dir := range directions {
		up := dir == layout.AlignUL || dir == layout.AlignUR
		right := dir == layout.AlignUR || dir == layout.AlignDR

		adjusted := make([][]string, 0, len(layering))
		for i := range layering {
			layer := layering[i]
			if !up {
				layer = layering[len(layering)-1-i]
			}
			layer = slices.Clone(layer)
			if right {
				slices.Reverse(layer)
			}
			adjusted = append(adjusted, layer)
		}

		neighbors := g.Successors
		if up {
			neighbors = g.Predecessors
		}
		a := VerticalAlignment(adjusted, conflicts, neighbors)
		xs := HorizontalCompaction(g, adjusted, a, right)
		if right {
			for v, x := range xs {
				xs[v] = -x
			}
		}
		xss[dir] = xs
	}

	AlignCoordinates(xss, FindSmallestWidthAlignment(g, xss))
	return Balance(xss, layout.GraphOf(g).Align)
}

// FindSmallestWidthAlignment returns the alignment whose nodes span the
// smallest width. The first in UL, UR, DL, DR order wins ties.
func FindSmallestWidthAlignment(g *layout.Graph, xss Alignments) map[string]float64 {
	bestWidth := math.Inf(1)
	var best map[string]float64
	for _, dir := range directions {
		xs, ok := xss[dir]
		if !ok {
			continue
		}
		hi, lo := math.Inf(-1), math.Inf(1)
		for v, x := range xs {
			half := 0.0
			if n := layout.NodeOf(g, v); n != nil {
				half = n.Width / 2
			}
			hi = max(hi, x+half)
			lo = min(lo, x-half)
		}
		if w := hi - lo; w < bestWidth {
			bestWidth = w
			best = xs
		}
	}
	return best
}

// AlignCoordinates shifts the left alignments so their minimum matches the
// minimum of alignTo, and the right alignments so their maximum matches its
// maximum.
func AlignCoordinates(xss Alignments, alignTo map[string]float64) {
	toLo, toHi := bounds(alignTo)
	for _, dir := range directions {
		xs, ok := xss[dir]
		if !ok {
			continue
		}
		lo, hi := bounds(xs)
		delta := toLo - lo
		if dir == layout.AlignUR || dir == layout.AlignDR {
			delta = toHi - hi
		}
		if delta == 0 {
			continue
		}
		shifted := make(map[string]float64, len(xs))
		for v, x := range xs {
			shifted[v] = x + delta
		}
		xss[dir] = shifted
	}
}

// Balance combines the four alignments. A named alignment is taken as is;
// otherwise every node gets the mean of its two median coordinates.
func Balance(xss Alignments, align layout.Align) map[string]float64 {
	ul, ok := xss[layout.AlignUL]
	if !ok {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(ul))
	for v := range ul {
		if align != layout.AlignNone {
			out[v] = xss[align][v]
			continue
		}
		vals := make([]float64, 0, 4)
		for _, dir := range directions {
			if x, ok := xss[dir][v]; ok {
				vals = append(vals, x)
			}
		}
		if len(vals) < 4 {
			continue
		}
		slices.Sort(vals)
		out[v] = (vals[1] + vals[2]) / 2
	}
	return out
}

func bounds(xs map[string]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}
