package layout

import (
	"math"
	"slices"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/matzehuels/strata/pkg/graph"
)

// Rect is an axis-aligned box given by its center and size.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Simplify returns a simple directed copy of g in which parallel edges are
// collapsed into one: weights are summed and the largest minlen (at least 1)
// is kept. Self-loops are dropped since they never constrain ranks. Node labels are shared with g, so ranks written to the copy are
// visible in g. Collapsed edges appear in the insertion order of their first
// member.
func Simplify(g *Graph) *Graph {
	s := NewGraph(graph.Options{})
	s.SetGraphLabel(g.GraphLabel())
	for _, v := range g.Nodes() {
		n, _ := g.Node(v)
		s.SetNode(v, n)
	}

	type merged struct {
		weight float64
		minlen int
	}
	acc := orderedmap.New[[2]string, *merged]()
	for _, k := range g.Edges() {
		if k.IsSelfLoop() {
			continue
		}
		e := EdgeOf(g, k)
		pair := [2]string{k.V, k.W}
		m, ok := acc.Get(pair)
		if !ok {
			m = &merged{minlen: 1}
			acc.Set(pair, m)
		}
		if e == nil {
			continue
		}
		m.weight += e.Weight
		m.minlen = max(m.minlen, e.Minlen)
	}
	for p := acc.Oldest(); p != nil; p = p.Next() {
		s.SetEdge(p.Key[0], p.Key[1], &EdgeLabel{Weight: p.Value.weight, Minlen: p.Value.minlen})
	}
	return s
}

// AsNonCompoundGraph returns a flat copy of g holding every node without
// children and every edge. Labels are shared with g.
func AsNonCompoundGraph(g *Graph) *Graph {
	s := NewGraph(graph.Options{Multigraph: g.IsMultigraph()})
	s.SetGraphLabel(g.GraphLabel())
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		n, _ := g.Node(v)
		s.SetNode(v, n)
	}
	for _, k := range g.Edges() {
		s.SetEdgeKey(k, EdgeOf(g, k))
	}
	return s
}

// SuccessorWeights returns, per node, the summed weight of its out-edges
// grouped by target.
func SuccessorWeights(g *Graph) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, g.NodeCount())
	for _, v := range g.Nodes() {
		m := make(map[string]float64)
		for _, k := range g.OutEdges(v) {
			m[k.W] += Weight(g, k)
		}
		out[v] = m
	}
	return out
}

// PredecessorWeights returns, per node, the summed weight of its in-edges
// grouped by source.
func PredecessorWeights(g *Graph) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, g.NodeCount())
	for _, v := range g.Nodes() {
		m := make(map[string]float64)
		for _, k := range g.InEdges(v) {
			m[k.V] += Weight(g, k)
		}
		out[v] = m
	}
	return out
}

// IntersectRect returns the point where the segment from the center of r to
// p crosses the border of r. When p is the center itself the midpoint of the
// right border is returned.
func IntersectRect(r Rect, p Point) Point {
	dx := p.X - r.X
	dy := p.Y - r.Y
	w := r.Width / 2
	h := r.Height / 2

	if dx == 0 && dy == 0 {
		return Point{X: r.X + w, Y: r.Y}
	}

	var sx, sy float64
	if math.Abs(dy)*w > math.Abs(dx)*h {
		if dy < 0 {
			h = -h
		}
		sx, sy = h*dx/dy, h
	} else {
		if dx < 0 {
			w = -w
		}
		sx, sy = w, w*dy/dx
	}
	return Point{X: r.X + sx, Y: r.Y + sy}
}

// BuildLayerMatrix groups nodes by rank and sorts each layer by order.
// Negative ranks are shifted so the lowest rank is layer 0.
func BuildLayerMatrix(g *Graph) [][]string {
	if g.NodeCount() == 0 {
		return nil
	}
	lo, hi := math.MaxInt, math.MinInt
	for _, v := range g.Nodes() {
		r := RankOf(g, v)
		lo, hi = min(lo, r), max(hi, r)
	}
	shift := 0
	if lo < 0 {
		shift = -lo
	}

	type entry struct {
		order int
		id    string
	}
	layers := make([][]entry, hi+shift+1)
	for _, v := range g.Nodes() {
		n := NodeOf(g, v)
		if n == nil {
			continue
		}
		idx := n.Rank + shift
		layers[idx] = append(layers[idx], entry{order: n.Order, id: v})
	}

	out := make([][]string, len(layers))
	for i, layer := range layers {
		slices.SortStableFunc(layer, func(a, b entry) int { return a.order - b.order })
		ids := make([]string, len(layer))
		for j, e := range layer {
			ids[j] = e.id
		}
		out[i] = ids
	}
	return out
}

// NormalizeRanks shifts every rank so the minimum rank is 0.
func NormalizeRanks(g *Graph) {
	if g.NodeCount() == 0 {
		return
	}
	lo := math.MaxInt
	for _, v := range g.Nodes() {
		lo = min(lo, RankOf(g, v))
	}
	for _, v := range g.Nodes() {
		if n := NodeOf(g, v); n != nil {
			n.Rank -= lo
		}
	}
}

// RemoveEmptyRanks closes gaps left by empty ranks whose index is not a
// multiple of [GraphLabel.NodeRankFactor]. It does nothing when the factor is
// not positive.
func RemoveEmptyRanks(g *Graph) {
	factor := GraphOf(g).NodeRankFactor
	if factor <= 0 || g.NodeCount() == 0 {
		return
	}
	offset := math.MaxInt
	for _, v := range g.Nodes() {
		offset = min(offset, RankOf(g, v))
	}

	layers := make(map[int][]string)
	maxIdx := 0
	for _, v := range g.Nodes() {
		idx := RankOf(g, v) - offset
		maxIdx = max(maxIdx, idx)
		layers[idx] = append(layers[idx], v)
	}

	delta := 0
	for i := 0; i <= maxIdx; i++ {
		vs, ok := layers[i]
		if !ok && i%factor != 0 {
			delta--
			continue
		}
		if delta == 0 {
			continue
		}
		for _, v := range vs {
			if n := NodeOf(g, v); n != nil {
				n.Rank += delta
			}
		}
	}
}

// MaxRank returns the highest rank in g, or 0 for an empty graph.
func MaxRank(g *Graph) int {
	hi := 0
	for i, v := range g.Nodes() {
		if r := RankOf(g, v); i == 0 || r > hi {
			hi = r
		}
	}
	return hi
}

// UniqueID returns prefix followed by a positive integer that does not name
// an existing node of g. Suffixes increase per prefix and are never reused,
// so a run of calls checks each candidate once.
func UniqueID(g *Graph, prefix string) string {
	gl := GraphOf(g)
	if gl.IDSeq == nil {
		gl.IDSeq = make(map[string]int)
	}
	for i := gl.IDSeq[prefix] + 1; ; i++ {
		id := prefix + strconv.Itoa(i)
		if !g.HasNode(id) {
			gl.IDSeq[prefix] = i
			return id
		}
	}
}

// DummyID returns prefix itself if it is free, otherwise the first free
// prefix followed by a positive integer.
func DummyID(g *Graph, prefix string) string {
	if !g.HasNode(prefix) {
		return prefix
	}
	return UniqueID(g, prefix)
}
