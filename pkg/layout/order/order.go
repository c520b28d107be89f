// Package order arranges the nodes of every rank to reduce edge crossings.
//
// The heuristic is the layer-by-layer sweep of Gansner et al.: starting from
// a depth-first initial order, layers are repeatedly re-sorted by the
// barycenter of their neighbours in the adjacent fixed layer, sweeping
// alternately down (using predecessors) and up (using successors) with a
// left or right tie bias. The layering with the fewest weighted crossings is
// kept; sweeping stops after four rounds without improvement.
//
// The graph must be ranked, non-compound and normalized so that every edge
// joins adjacent ranks.
package order

import (
	"math"
	"slices"

	"github.com/matzehuels/strata/pkg/layout"
)

// Run assigns [layout.NodeLabel.Order] to every node of g.
func Run(g *layout.Graph) {
	byRank, maxRank := nodesByRank(g)
	if maxRank < 0 {
		return
	}

	assign(g, InitOrder(g))

	down := make([]int, 0, maxRank)
	for r := 1; r <= maxRank; r++ {
		down = append(down, r)
	}
	up := make([]int, 0, maxRank)
	for r := maxRank - 1; r >= 0; r-- {
		up = append(up, r)
	}

	bestCC := math.Inf(1)
	var best [][]string
	for i, lastBest := 0, 0; lastBest < 4; i, lastBest = i+1, lastBest+1 {
		biasRight := i%4 >= 2
		if i%2 == 1 {
			sweep(g, byRank, down, true, biasRight)
		} else {
			sweep(g, byRank, up, false, biasRight)
		}

		layering := layout.BuildLayerMatrix(g)
		if cc := CrossCount(g, layering); cc < bestCC {
			lastBest = 0
			bestCC = cc
			best = layering
		}
	}
	assign(g, best)
}

// InitOrder returns an initial layering: nodes are visited depth first along
// successors, starting from every node in (rank, insertion) order, and
// appended to their rank's layer on first visit. Nodes with children are
// skipped; negative ranks are placed in layer 0.
func InitOrder(g *layout.Graph) [][]string {
	var simple []string
	maxRank := -1
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		simple = append(simple, v)
		maxRank = max(maxRank, layout.RankOf(g, v))
	}
	if len(simple) == 0 {
		return nil
	}

	layers := make([][]string, max(maxRank, 0)+1)
	visited := make(map[string]bool, len(simple))

	slices.SortStableFunc(simple, func(a, b string) int {
		return layout.RankOf(g, a) - layout.RankOf(g, b)
	})
	for _, start := range simple {
		stack := []string{start}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[v] {
				continue
			}
			visited[v] = true
			if r := max(layout.RankOf(g, v), 0); r < len(layers) {
				layers[r] = append(layers[r], v)
			}
			succ := g.Successors(v)
			for i := len(succ) - 1; i >= 0; i-- {
				if !visited[succ[i]] {
					stack = append(stack, succ[i])
				}
			}
		}
	}
	return layers
}

// sweep re-sorts each listed rank against its already fixed neighbour layer.
func sweep(g *layout.Graph, byRank [][]string, ranks []int, down, biasRight bool) {
	for _, r := range ranks {
		if r >= len(byRank) {
			continue
		}
		res := Sort(Barycenter(g, byRank[r], down), biasRight)
		for i, v := range res.Vs {
			if n := layout.NodeOf(g, v); n != nil {
				n.Order = i
			}
		}
	}
}

// nodesByRank groups the leaf nodes of g by rank in insertion order.
func nodesByRank(g *layout.Graph) ([][]string, int) {
	maxRank := -1
	var byRank [][]string
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		r := layout.RankOf(g, v)
		if r < 0 {
			continue
		}
		for len(byRank) <= r {
			byRank = append(byRank, nil)
		}
		byRank[r] = append(byRank[r], v)
		maxRank = max(maxRank, r)
	}
	return byRank, maxRank
}

func assign(g *layout.Graph, layering [][]string) {
	for _, layer := range layering {
		for i, v := range layer {
			if n := layout.NodeOf(g, v); n != nil {
				n.Order = i
			}
		}
	}
}
