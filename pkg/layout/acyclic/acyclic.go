// Package acyclic breaks cycles in a layout graph by reversing a feedback arc
// set, and restores the original edges once layout is done.
//
// [Run] followed by [Undo] restores every edge of a multigraph. On a simple
// graph a reversed edge takes the place of an existing edge in the opposite
// direction, so a two-cycle a->b, b->a comes back as a single edge. Callers
// holding simple graphs lay out a multigraph copy, as the pipelines do.
package acyclic

import (
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// Run reverses a feedback arc set of g so that g has no cycles other than
// self-loops. [layout.GraphLabel.Acyclicer] selects the heuristic: "greedy"
// uses [GreedyFAS] with rounded edge weights, anything else a depth-first
// search. Reversed edges are renamed so they never overwrite an existing
// edge on multigraphs, and are marked for [Undo].
func Run(g *layout.Graph) {
	var fas []graph.EdgeKey
	if layout.GraphOf(g).Acyclicer == layout.AcyclicerGreedy {
		fas = GreedyFAS(g, roundedWeight)
	} else {
		fas = DFSFAS(g)
	}

	for _, e := range fas {
		if e.IsSelfLoop() {
			continue
		}
		label, ok := g.EdgeByKey(e)
		if !ok {
			continue
		}
		g.RemoveEdgeKey(e)
		label.ForwardName = e.Name
		label.Reversed = true
		g.SetEdgeNamed(e.W, e.V, reversedName(g, e.W, e.V), label)
	}
}

// Undo restores every edge reversed by [Run] with its original name. Routed
// points are kept and reversed to follow the original direction.
func Undo(g *layout.Graph) {
	for _, e := range g.Edges() {
		label, ok := g.EdgeByKey(e)
		if !ok || label == nil || !label.Reversed {
			continue
		}
		g.RemoveEdgeKey(e)
		name := label.ForwardName
		label.ForwardName = ""
		label.Reversed = false
		slices.Reverse(label.Points)
		g.SetEdgeNamed(e.W, e.V, name, label)
	}
}

// maxRoundedWeight bounds greedy weights so per-node sums cannot overflow.
const maxRoundedWeight = math.MaxInt32

// roundedWeight is the greedy weight of an edge. Non-finite weights count
// as 0.
func roundedWeight(e *layout.EdgeLabel) int {
	if e == nil {
		return 1
	}
	if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
		return 0
	}
	return int(math.Round(min(max(e.Weight, -maxRoundedWeight), maxRoundedWeight)))
}

func reversedName(g *layout.Graph, v, w string) string {
	for i := 1; ; i++ {
		name := "rev" + strconv.Itoa(i)
		if _, ok := g.EdgeNamed(v, w, name); !ok || !g.IsMultigraph() {
			return name
		}
	}
}

type dfsFrame struct {
	v     string
	edges []graph.EdgeKey
	next  int
}

// DFSFAS returns the back edges found by a depth-first search started from
// every node in insertion order. Self-loops are never included.
func DFSFAS(g *layout.Graph) []graph.EdgeKey {
	var (
		fas     []graph.EdgeKey
		visited = make(map[string]bool)
		onStack = make(map[string]bool)
	)
	for _, root := range g.Nodes() {
		if visited[root] {
			continue
		}
		visited[root] = true
		onStack[root] = true
		frames := []*dfsFrame{{v: root, edges: g.OutEdges(root)}}
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.next == len(f.edges) {
				onStack[f.v] = false
				frames = frames[:len(frames)-1]
				continue
			}
			e := f.edges[f.next]
			f.next++
			switch {
			case e.IsSelfLoop():
			case onStack[e.W]:
				fas = append(fas, e)
			case !visited[e.W]:
				visited[e.W] = true
				onStack[e.W] = true
				frames = append(frames, &dfsFrame{v: e.W, edges: g.OutEdges(e.W)})
			}
		}
	}
	return fas
}
