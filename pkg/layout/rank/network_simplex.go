package rank

import (
	"errors"
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/graph/alg"
	"github.com/matzehuels/strata/pkg/layout"
)

// ErrIterationLimit is returned by [NetworkSimplexWithLimit] when the simplex
// loop did not converge within the given number of exchanges.
var ErrIterationLimit = errors.New("network simplex iteration limit reached")

// NetworkSimplex ranks g so that the sum of weight * length over all edges is
// minimal. It follows Gansner et al., "A Technique for Drawing Directed
// Graphs": start from a feasible tight tree, then repeatedly swap a tree edge
// with negative cut value for the non-tree edge of minimum slack crossing the
// same cut, until no negative cut value remains.
//
// Parallel edges are collapsed and self-loops dropped first (see
// [layout.Simplify]). The loop always
// terminates since every exchange strictly lowers the objective.
func NetworkSimplex(g *layout.Graph) {
	_ = networkSimplex(g, 0)
}

// NetworkSimplexWithLimit is [NetworkSimplex] with a bound on the number of
// tree edge exchanges. The ranks of the last iteration are kept when the
// bound is hit. A limit of zero or less means no bound.
func NetworkSimplexWithLimit(g *layout.Graph, limit int) error {
	return networkSimplex(g, limit)
}

func networkSimplex(g *layout.Graph, limit int) error {
	s := layout.Simplify(g)
	LongestPath(s)
	t := FeasibleTree(s)
	initLowLimValues(t)
	initCutValues(t, s)

	for i := 0; ; i++ {
		e, ok := leaveEdge(t)
		if !ok {
			break
		}
		if limit > 0 && i >= limit {
			return ErrIterationLimit
		}
		exchangeEdges(t, s, e, enterEdge(t, s, e))
	}

	for _, v := range g.Nodes() {
		if n, ok := g.Node(v); ok && n != nil {
			n.Rank = layout.RankOf(s, v)
		}
	}
	return nil
}

type lowLimFrame struct {
	v         string
	parent    string
	hasParent bool
	low       int
	neighbors []string
	next      int
}

// initLowLimValues numbers every tree of the forest in postorder. Lim is the
// postorder index of a node and Low the smallest index in its subtree.
func initLowLimValues(t *Tree) {
	visited := make(map[string]bool)
	nextLim := 1
	for _, root := range t.Nodes() {
		if visited[root] {
			continue
		}
		visited[root] = true
		frames := []*lowLimFrame{{v: root, low: nextLim, neighbors: t.Neighbors(root)}}
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.next < len(f.neighbors) {
				w := f.neighbors[f.next]
				f.next++
				if visited[w] {
					continue
				}
				visited[w] = true
				frames = append(frames, &lowLimFrame{
					v: w, parent: f.v, hasParent: true, low: nextLim, neighbors: t.Neighbors(w),
				})
				continue
			}
			frames = frames[:len(frames)-1]
			n, _ := t.Node(f.v)
			n.Low = f.low
			n.Lim = nextLim
			n.Parent = f.parent
			n.HasParent = f.hasParent
			nextLim++
		}
	}
}

// initCutValues computes the cut value of every tree edge bottom-up.
func initCutValues(t *Tree, g *layout.Graph) {
	vs := t.Nodes()
	lim := func(v string) int {
		n, _ := t.Node(v)
		return n.Lim
	}
	slices.SortFunc(vs, func(a, b string) int { return lim(a) - lim(b) })
	for _, v := range vs {
		n, _ := t.Node(v)
		if !n.HasParent {
			continue
		}
		if e, ok := t.Edge(v, n.Parent); ok {
			e.Cutvalue = calcCutValue(t, g, v)
		}
	}
}

// calcCutValue returns the cut value of the tree edge between child and its
// parent, given that the cut values of all tree edges below child are known.
func calcCutValue(t *Tree, g *layout.Graph, child string) float64 {
	cn, _ := t.Node(child)
	parent := cn.Parent

	childIsTail := true
	ge, ok := g.Edge(child, parent)
	if !ok {
		childIsTail = false
		ge, ok = g.Edge(parent, child)
		if !ok {
			return 0
		}
	}
	cut := ge.Weight

	for _, k := range g.NodeEdges(child) {
		if k.IsSelfLoop() {
			continue
		}
		isOut := k.V == child
		other := k.Other(child)
		if other == parent {
			continue
		}
		pointsToHead := isOut == childIsTail
		w := layout.Weight(g, k)
		if pointsToHead {
			cut += w
		} else {
			cut -= w
		}
		if te, ok := t.Edge(child, other); ok {
			if pointsToHead {
				cut -= te.Cutvalue
			} else {
				cut += te.Cutvalue
			}
		}
	}
	return cut
}

// leaveEdge returns the first tree edge with a negative cut value.
func leaveEdge(t *Tree) (graph.EdgeKey, bool) {
	for _, k := range t.Edges() {
		if e, _ := t.EdgeByKey(k); e.Cutvalue < 0 {
			return k, true
		}
	}
	return graph.EdgeKey{}, false
}

// enterEdge returns the graph edge that replaces the tree edge e: of all
// edges crossing the cut induced by e in the opposite direction, the one with
// minimum slack. The first such edge in insertion order wins ties.
func enterEdge(t *Tree, g *layout.Graph, e graph.EdgeKey) graph.EdgeKey {
	v, w := e.V, e.W
	if !g.HasEdge(v, w) {
		v, w = w, v
	}
	vn, _ := t.Node(v)
	wn, _ := t.Node(w)
	tail := vn
	flip := false
	if vn.Lim > wn.Lim {
		tail = wn
		flip = true
	}

	var (
		best      graph.EdgeKey
		bestSlack int
		found     bool
	)
	for _, k := range g.Edges() {
		if k.IsSelfLoop() {
			continue
		}
		kv, okV := t.Node(k.V)
		kw, okW := t.Node(k.W)
		if !okV || !okW {
			continue
		}
		if flip != isDescendant(kv, tail) || flip == isDescendant(kw, tail) {
			continue
		}
		if s := Slack(g, k); !found || s < bestSlack {
			best, bestSlack, found = k, s, true
		}
	}
	if !found {
		return graph.EdgeKey{V: v, W: w}
	}
	return best
}

func isDescendant(v, root *TreeNode) bool {
	return root.Low <= v.Lim && v.Lim <= root.Lim
}

// exchangeEdges replaces the tree edge e by f and recomputes the tree state
// and the ranks.
func exchangeEdges(t *Tree, g *layout.Graph, e, f graph.EdgeKey) {
	t.RemoveEdge(e.V, e.W)
	t.SetEdge(f.V, f.W, &TreeEdge{})
	initLowLimValues(t)
	initCutValues(t, g)
	updateRanks(t, g)
}

// updateRanks walks every tree from its root and derives each node's rank
// from its parent's along the connecting tight edge.
func updateRanks(t *Tree, g *layout.Graph) {
	for _, root := range t.Nodes() {
		if n, _ := t.Node(root); n.HasParent {
			continue
		}
		for _, v := range alg.Preorder(t, root)[1:] {
			tn, _ := t.Node(v)
			parentRank := layout.RankOf(g, tn.Parent)
			var rank int
			if e, ok := g.Edge(v, tn.Parent); ok {
				rank = parentRank - e.Minlen
			} else if e, ok := g.Edge(tn.Parent, v); ok {
				rank = parentRank + e.Minlen
			} else {
				continue
			}
			if n := layout.NodeOf(g, v); n != nil {
				n.Rank = rank
			}
		}
	}
}
