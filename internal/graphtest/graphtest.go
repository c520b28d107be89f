// Package graphtest provides gopter generators for random graphs used by the
// property tests of the layout packages.
package graphtest

import (
	"fmt"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// Pair is a generated directed edge between two node ids.
type Pair struct {
	V, W string
}

// NodeID returns the canonical id of the i-th generated node.
func NodeID(i int) string { return fmt.Sprintf("n%d", i) }

// Edges generates edge lists over at most maxNodes nodes. Self-loops and
// duplicate pairs are possible.
func Edges(maxNodes int) gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, maxNodes*maxNodes-1)).Map(func(codes []int) []Pair {
		pairs := make([]Pair, len(codes))
		for i, c := range codes {
			pairs[i] = Pair{V: NodeID(c / maxNodes), W: NodeID(c % maxNodes)}
		}
		return pairs
	})
}

// DAGEdges generates edge lists that only point from lower to higher node
// indexes, so the result is always acyclic.
func DAGEdges(maxNodes int) gopter.Gen {
	return Edges(maxNodes).Map(func(pairs []Pair) []Pair {
		out := make([]Pair, 0, len(pairs))
		for _, p := range pairs {
			switch {
			case p.V < p.W:
				out = append(out, p)
			case p.V > p.W:
				out = append(out, Pair{V: p.W, W: p.V})
			}
		}
		return out
	})
}

// Params returns gopter parameters with the given number of successful runs.
func Params(runs int) *gopter.TestParameters {
	p := gopter.DefaultTestParameters()
	p.MinSuccessfulTests = runs
	return p
}
