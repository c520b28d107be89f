package order

import (
	"slices"

	"github.com/matzehuels/strata/pkg/layout"
)

// CrossCount returns the weighted number of edge crossings of a layering:
// the sum over all adjacent layer pairs of [CountLayerCrossings]. Two crossing
// edges contribute the product of their weights.
func CrossCount(g *layout.Graph, layering [][]string) float64 {
	var cc float64
	for i := 1; i < len(layering); i++ {
		cc += CountLayerCrossings(g, layering[i-1], layering[i])
	}
	return cc
}

// CountLayerCrossings counts weighted crossings between the out-edges of
// north and the nodes of south using a Fenwick tree (binary indexed tree).
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// Edges are visited sorted by north position, then south position; each
// edge crosses every earlier edge whose south end lies strictly to its right.
// Edges leaving north for nodes not in south are ignored.
func CountLayerCrossings(g *layout.Graph, north, south []string) float64 {
	if len(north) == 0 || len(south) == 0 {
		return 0
	}

	southPos := make(map[string]int, len(south))
	for i, v := range south {
		southPos[v] = i
	}

	type entry struct {
		pos    int
		weight float64
	}
	var entries []entry
	for _, v := range north {
		start := len(entries)
		for _, k := range g.OutEdges(v) {
			if pos, ok := southPos[k.W]; ok {
				entries = append(entries, entry{pos, layout.Weight(g, k)})
			}
		}
		slices.SortStableFunc(entries[start:], func(a, b entry) int { return a.pos - b.pos })
	}
	if len(entries) < 2 {
		return 0
	}

	fenwick := make([]float64, len(south)+1)
	var crossings, total float64
	for _, e := range entries {
		// weight of earlier edges ending at or left of e.pos
		var lessOrEqual float64
		for q := e.pos + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += e.weight * (total - lessOrEqual)

		total += e.weight
		for idx := e.pos + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx] += e.weight
		}
	}
	return crossings
}
