// Package rank assigns every node of an acyclic layout graph an integer rank
// such that rank(w) - rank(v) >= minlen for every edge v->w.
//
// Four rankers are available, selected by [layout.GraphLabel.Ranker]:
//
//   - "network-simplex" (default): minimizes the total weighted edge length
//   - "tight-tree": longest path followed by a feasible tight tree
//   - "longest-path": pushes every node as far down as its successors allow
//   - "none": keeps the ranks already present
package rank

import (
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// Rank assigns ranks to g with the ranker named in its graph label. Unknown
// names fall back to network simplex. g must be acyclic apart from
// self-loops, which never constrain ranks.
func Rank(g *layout.Graph) {
	switch layout.GraphOf(g).Ranker {
	case layout.RankerNone:
	case layout.RankerLongestPath:
		LongestPath(g)
	case layout.RankerTightTree:
		LongestPath(g)
		FeasibleTree(g)
	default:
		NetworkSimplex(g)
	}
}

type pathFrame struct {
	v     string
	edges []graph.EdgeKey
	next  int
	rank  int
	set   bool
}

// LongestPath ranks every node reachable from a source so that each edge is
// at least minlen long and sinks sit at rank 0. Ranks are zero or negative;
// callers normalize them afterwards. Self-loops are ignored.
func LongestPath(g *layout.Graph) {
	done := make(map[string]int)
	active := make(map[string]bool)

	finish := func(f *pathFrame) int {
		r := 0
		if f.set {
			r = f.rank
		}
		if n := layout.NodeOf(g, f.v); n != nil {
			n.Rank = r
		}
		done[f.v] = r
		delete(active, f.v)
		return r
	}

	for _, src := range sources(g) {
		if _, ok := done[src]; ok {
			continue
		}
		active[src] = true
		frames := []*pathFrame{{v: src, edges: g.OutEdges(src)}}
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.next == len(f.edges) {
				r := finish(f)
				frames = frames[:len(frames)-1]
				if len(frames) > 0 {
					parent := frames[len(frames)-1]
					parent.relax(r - layout.Minlen(g, parent.edges[parent.next-1]))
				}
				continue
			}
			e := f.edges[f.next]
			f.next++
			if e.IsSelfLoop() || active[e.W] {
				continue
			}
			if r, ok := done[e.W]; ok {
				f.relax(r - layout.Minlen(g, e))
				continue
			}
			active[e.W] = true
			frames = append(frames, &pathFrame{v: e.W, edges: g.OutEdges(e.W)})
		}
	}
}

func (f *pathFrame) relax(candidate int) {
	if !f.set || candidate < f.rank {
		f.rank = candidate
		f.set = true
	}
}

// sources returns the nodes whose only in-edges, if any, are self-loops.
func sources(g *layout.Graph) []string {
	var out []string
	for _, v := range g.Nodes() {
		src := true
		for _, k := range g.InEdges(v) {
			if !k.IsSelfLoop() {
				src = false
				break
			}
		}
		if src {
			out = append(out, v)
		}
	}
	return out
}

// Slack returns how much longer than its minlen the edge k currently is.
// Missing ranks read as 0 and a missing minlen as 1.
func Slack(g *layout.Graph, k graph.EdgeKey) int {
	return layout.RankOf(g, k.W) - layout.RankOf(g, k.V) - layout.Minlen(g, k)
}
