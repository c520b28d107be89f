package pipeline

import (
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
	"github.com/matzehuels/strata/pkg/layout/acyclic"
)

// =============================================================================
// Minimal Pipeline
// =============================================================================

// minimal holds the state shared by the stages of the minimal pipeline.
type minimal struct {
	nodes []string
	edges []graph.EdgeKey
	out   map[string][]graph.EdgeKey
	rank  map[string]int

	nodesep float64
	ranksep float64
	// total is the extent of the drawing along the rank axis before the
	// rankdir transform.
	total float64
	width float64
}

func runMinimal(x *executor, g *layout.Graph) error {
	m := &minimal{}
	return x.run(workingGraph(g),
		stage{"acyclic", acyclic.Run},
		stage{"separation", m.separation},
		stage{"topo-rank", m.assignRanks},
		stage{"compact-clusters", m.compactClusters},
		stage{"position", m.position},
		stage{"route-edges", m.routeEdges},
		stage{"rankdir", m.transform},
		stage{"fit-clusters", fitClusters},
		stage{"acyclic-undo", acyclic.Undo},
	)
}

// workingGraph returns g itself when it is a multigraph. Otherwise it returns
// a multigraph holding the same nodes, parents, edges and labels, so that
// reversing one edge of a two-cycle cannot overwrite the other. Every
// coordinate written to it lands on the labels of g.
func workingGraph(g *layout.Graph) *layout.Graph {
	if g.IsMultigraph() {
		return g
	}
	wg := layout.NewGraph(graph.Options{Multigraph: true, Compound: g.IsCompound()})
	wg.SetGraphLabel(layout.GraphOf(g))
	for _, v := range g.Nodes() {
		n := layout.NodeOf(g, v)
		if n == nil {
			n = &layout.NodeLabel{}
			g.SetNode(v, n)
		}
		wg.SetNode(v, n)
	}
	for _, v := range g.Nodes() {
		if p, ok := g.Parent(v); ok {
			wg.SetParent(v, p)
		}
	}
	for _, k := range g.Edges() {
		wg.SetEdgeKey(k, layout.EdgeOf(g, k))
	}
	return wg
}

// separation widens nodesep and ranksep to fit the largest edge label:
// labels push nodes apart across ranks in TB/BT and push ranks apart in
// LR/RL.
func (m *minimal) separation(g *layout.Graph) {
	gl := layout.GraphOf(g)
	m.edges = g.Edges()

	var maxW, maxH float64
	for _, k := range m.edges {
		if e := layout.EdgeOf(g, k); e != nil {
			maxW = max(maxW, e.Width)
			maxH = max(maxH, e.Height)
		}
	}
	m.nodesep, m.ranksep = gl.Nodesep, gl.Ranksep
	if gl.Rankdir.Horizontal() {
		m.nodesep = max(m.nodesep, maxH)
		m.ranksep = max(m.ranksep, maxW)
	} else {
		m.nodesep = max(m.nodesep, maxW)
	}
}

// assignRanks ranks leaf nodes by longest path along a Kahn topological
// order. Sources start in insertion order; out-edges are followed in edge
// insertion order. Self-loops are ignored.
func (m *minimal) assignRanks(g *layout.Graph) {
	m.nodes = m.nodes[:0]
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		if layout.NodeOf(g, v) == nil {
			g.SetNode(v, &layout.NodeLabel{})
		}
		m.nodes = append(m.nodes, v)
	}

	m.rank = make(map[string]int, len(m.nodes))
	indegree := make(map[string]int, len(m.nodes))
	for _, v := range m.nodes {
		m.rank[v] = 0
		indegree[v] = 0
	}
	m.out = make(map[string][]graph.EdgeKey)
	for _, k := range m.edges {
		if k.IsSelfLoop() {
			continue
		}
		m.out[k.V] = append(m.out[k.V], k)
		if _, ok := indegree[k.W]; ok {
			indegree[k.W]++
		}
	}

	var queue, topo []string
	for _, v := range m.nodes {
		if indegree[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		topo = append(topo, v)
		for _, k := range m.out[v] {
			d, ok := indegree[k.W]
			if !ok {
				continue
			}
			if d > 0 {
				d--
				indegree[k.W] = d
			}
			if d == 0 {
				queue = append(queue, k.W)
			}
		}
	}
	// Only possible if something other than a self-loop survived acyclic.
	if len(topo) != len(m.nodes) {
		topo = m.nodes
	}

	for _, v := range topo {
		r := m.rank[v]
		for _, k := range m.out[v] {
			if _, ok := m.rank[k.W]; !ok {
				continue
			}
			m.rank[k.W] = max(m.rank[k.W], r+max(layout.Minlen(g, k), 1))
		}
	}
}

// compactClusters pulls the children of every compound node onto one rank
// when a rank exists that satisfies all their incoming and outgoing minlen
// constraints.
func (m *minimal) compactClusters(g *layout.Graph) {
	if !g.IsCompound() {
		return
	}
	const unbounded = int(^uint(0)>>1) / 4

	for _, parent := range g.Nodes() {
		var targets []string
		for _, c := range g.Children(parent) {
			if _, ok := m.rank[c]; ok {
				targets = append(targets, c)
			}
		}
		if len(targets) < 2 {
			continue
		}

		need, allowed := 0, unbounded
		for _, c := range targets {
			lo := 0
			for _, k := range g.InEdges(c) {
				if r, ok := m.rank[k.V]; ok && !k.IsSelfLoop() {
					lo = max(lo, r+max(layout.Minlen(g, k), 1))
				}
			}
			hi := unbounded
			for _, k := range g.OutEdges(c) {
				if r, ok := m.rank[k.W]; ok && !k.IsSelfLoop() {
					hi = min(hi, max(r-max(layout.Minlen(g, k), 1), 0))
				}
			}
			need = max(need, lo)
			allowed = min(allowed, hi)
		}
		if need <= allowed {
			for _, c := range targets {
				m.rank[c] = need
			}
		}
	}
}

// position centers every rank horizontally within the widest rank and
// stacks ranks top to bottom. The gap below a rank grows by the tallest
// label of the edges that span exactly one rank from it.
func (m *minimal) position(g *layout.Graph) {
	maxRank := 0
	for _, v := range m.nodes {
		maxRank = max(maxRank, m.rank[v])
	}
	ranks := make([][]string, maxRank+1)
	for _, v := range m.nodes {
		r := m.rank[v]
		ranks[r] = append(ranks[r], v)
	}

	gapExtra := make([]float64, len(ranks))
	for _, k := range m.edges {
		if k.IsSelfLoop() {
			continue
		}
		vr, okV := m.rank[k.V]
		wr, okW := m.rank[k.W]
		if !okV || !okW || wr != vr+1 {
			continue
		}
		if e := layout.EdgeOf(g, k); e != nil && e.Height > 0 {
			gapExtra[vr] = max(gapExtra[vr], e.Height)
		}
	}

	heights := make([]float64, len(ranks))
	widths := make([]float64, len(ranks))
	for r, ids := range ranks {
		for i, v := range ids {
			n := layout.NodeOf(g, v)
			heights[r] = max(heights[r], n.Height)
			widths[r] += n.Width
			if i+1 < len(ids) {
				widths[r] += m.nodesep
			}
		}
		m.width = max(m.width, widths[r])
	}

	y := 0.0
	for r, ids := range ranks {
		cy := y + heights[r]/2
		x := (m.width - widths[r]) / 2
		for i, v := range ids {
			n := layout.NodeOf(g, v)
			n.X = x + n.Width/2
			n.Y = cy
			n.Rank = r
			n.Order = i
			x += n.Width + m.nodesep
		}
		y += heights[r]
		if r+1 < len(ranks) {
			y += m.ranksep + gapExtra[r]
		}
	}
	m.total = y
}

// routeEdges draws every edge as a straight line from the bottom of its
// source to the top of its target, sampled at 2*minlen+1 points. Self-loops
// become a small rectangle to the right of the node.
func (m *minimal) routeEdges(g *layout.Graph) {
	edgesep := max(layout.GraphOf(g).Edgesep, 1)
	for _, k := range m.edges {
		e := layout.EdgeOf(g, k)
		if e == nil {
			continue
		}
		e.Points = nil
		e.Position = nil
		_, okV := m.rank[k.V]
		_, okW := m.rank[k.W]
		if !okV || !okW {
			continue
		}
		s, t := layout.NodeOf(g, k.V), layout.NodeOf(g, k.W)

		if k.IsSelfLoop() {
			x0 := s.X + s.Width/2 + edgesep
			x1 := x0 + edgesep
			top, bottom := s.Y-s.Height/2, s.Y+s.Height/2
			e.Points = []layout.Point{
				{X: x0, Y: s.Y},
				{X: x0, Y: top},
				{X: x1, Y: top},
				{X: x1, Y: s.Y},
				{X: x1, Y: bottom},
				{X: x0, Y: bottom},
				{X: x0, Y: s.Y},
			}
			continue
		}

		start := layout.Point{X: s.X, Y: s.Y + s.Height/2}
		end := layout.Point{X: t.X, Y: t.Y - t.Height/2}
		count := 2*max(e.Minlen, 1) + 1
		e.Points = make([]layout.Point, count)
		for i := range count {
			f := float64(i) / float64(count-1)
			e.Points[i] = layout.Point{
				X: start.X + (end.X-start.X)*f,
				Y: start.Y + (end.Y-start.Y)*f,
			}
		}
		if e.Width > 0 || e.Height > 0 {
			p := labelAnchor(e, e.Points[count/2])
			e.Position = &p
		}
	}
}

// transform maps the top-to-bottom drawing onto the configured rankdir and
// records the graph's width and height.
func (m *minimal) transform(g *layout.Graph) {
	gl := layout.GraphOf(g)
	h := m.total
	var fn func(p layout.Point) layout.Point
	switch gl.Rankdir {
	case layout.RankdirBT:
		fn = func(p layout.Point) layout.Point { return layout.Point{X: p.X, Y: h - p.Y} }
	case layout.RankdirLR:
		fn = func(p layout.Point) layout.Point { return layout.Point{X: p.Y, Y: p.X} }
	case layout.RankdirRL:
		fn = func(p layout.Point) layout.Point { return layout.Point{X: h - p.Y, Y: p.X} }
	}

	if gl.Rankdir.Horizontal() {
		gl.Width, gl.Height = m.total, m.width
	} else {
		gl.Width, gl.Height = m.width, m.total
	}
	if fn == nil {
		return
	}

	for _, v := range m.nodes {
		n := layout.NodeOf(g, v)
		p := fn(layout.Point{X: n.X, Y: n.Y})
		n.X, n.Y = p.X, p.Y
	}
	for _, k := range m.edges {
		e := layout.EdgeOf(g, k)
		if e == nil {
			continue
		}
		for i, p := range e.Points {
			e.Points[i] = fn(p)
		}
		if e.Position != nil {
			p := fn(*e.Position)
			e.Position = &p
		}
	}
}
