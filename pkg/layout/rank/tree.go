package rank

import (
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// TreeNode is the per-node state of a spanning tree used by network simplex.
// Low and Lim number the tree in postorder so subtree membership is an
// interval test.
type TreeNode struct {
	Low, Lim  int
	Parent    string
	HasParent bool
}

// TreeEdge holds the cut value of a tree edge.
type TreeEdge struct {
	Cutvalue float64
}

// Tree is an undirected spanning forest over the nodes of a layout graph.
type Tree = graph.Graph[*TreeNode, *TreeEdge, struct{}]

func newTree() *Tree {
	t := graph.New[*TreeNode, *TreeEdge, struct{}](graph.Options{Undirected: true})
	t.SetDefaultNodeLabel(func(string) *TreeNode { return &TreeNode{} })
	t.SetDefaultEdgeLabel(func(_, _, _ string) *TreeEdge { return &TreeEdge{} })
	return t
}

// FeasibleTree grows a spanning forest of tight edges (slack 0) and returns
// it. Whenever the tree stops growing, the non-tree edge with minimum slack
// that touches the tree is made tight by shifting every tree node's rank.
// When no such edge exists the graph is disconnected and a new tree is
// started from the first node not yet covered. Ranks of g are updated in
// place; they must be feasible on entry.
func FeasibleTree(g *layout.Graph) *Tree {
	t := newTree()
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return t
	}
	t.EnsureNode(nodes[0])

	for tightTree(t, g) < len(nodes) {
		k, ok := minSlackEdge(t, g)
		if !ok {
			for _, v := range nodes {
				if !t.HasNode(v) {
					t.EnsureNode(v)
					break
				}
			}
			continue
		}
		delta := Slack(g, k)
		if !t.HasNode(k.V) {
			delta = -delta
		}
		for _, v := range t.Nodes() {
			if n := layout.NodeOf(g, v); n != nil {
				n.Rank += delta
			}
		}
	}
	return t
}

// tightTree extends t along tight edges from every node already in it and
// returns the new size of t.
func tightTree(t *Tree, g *layout.Graph) int {
	for _, root := range t.Nodes() {
		stack := []string{root}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, k := range g.NodeEdges(v) {
				if k.IsSelfLoop() {
					continue
				}
				w := k.Other(v)
				if t.HasNode(w) || Slack(g, k) != 0 {
					continue
				}
				t.EnsureEdge(v, w)
				stack = append(stack, w)
			}
		}
	}
	return t.NodeCount()
}

// minSlackEdge returns the edge with exactly one endpoint in t and the
// smallest slack. The first such edge in insertion order wins ties.
func minSlackEdge(t *Tree, g *layout.Graph) (graph.EdgeKey, bool) {
	var (
		best      graph.EdgeKey
		bestSlack int
		found     bool
	)
	for _, k := range g.Edges() {
		if t.HasNode(k.V) == t.HasNode(k.W) {
			continue
		}
		if s := Slack(g, k); !found || s < bestSlack {
			best, bestSlack, found = k, s, true
		}
	}
	return best, found
}
