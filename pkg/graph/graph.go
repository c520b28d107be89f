package graph

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Options fixes the structural behaviour of a [Graph] at construction time.
// The zero value describes a directed simple graph without nesting.
type Options struct {
	// Multigraph allows several edges between the same ordered pair of nodes,
	// told apart by [EdgeKey.Name]. When false, edge names are always "".
	Multigraph bool
	// Compound enables parent/child nesting via [Graph.SetParent].
	Compound bool
	// Undirected treats (v, w) and (w, v) as the same edge. In/out queries
	// return every incident edge.
	Undirected bool
}

type nodeEntry[N any] struct {
	label N
	in    []EdgeKey // insertion ordered
	out   []EdgeKey // insertion ordered
}

// Graph is a generic, insertion-ordered graph container. N, E and G are the
// node, edge and graph label types.
//
// Every query that returns several nodes or edges returns them in insertion
// order. Layout algorithms rely on this for determinism: the first node or
// edge in insertion order wins every tie.
//
// The zero value is not usable - use [New] to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph[N, E, G any] struct {
	opts  Options
	label G

	nodes *orderedmap.OrderedMap[string, *nodeEntry[N]]
	edges *orderedmap.OrderedMap[EdgeKey, E]

	parent   map[string]string
	children map[string][]string

	defaultNode func(id string) N
	defaultEdge func(v, w, name string) E
}

// New creates an empty graph with the given options. Nodes and edges created
// implicitly (see [Graph.EnsureNode] and [Graph.EnsureEdge]) receive the zero
// value of their label type unless a factory is installed with
// [Graph.SetDefaultNodeLabel] or [Graph.SetDefaultEdgeLabel].
func New[N, E, G any](opts Options) *Graph[N, E, G] {
	g := &Graph[N, E, G]{
		opts:  opts,
		nodes: orderedmap.New[string, *nodeEntry[N]](),
		edges: orderedmap.New[EdgeKey, E](),
	}
	if opts.Compound {
		g.parent = make(map[string]string)
		g.children = make(map[string][]string)
	}
	return g
}

// Options returns the options the graph was created with.
func (g *Graph[N, E, G]) Options() Options { return g.opts }

// IsMultigraph reports whether parallel named edges are allowed.
func (g *Graph[N, E, G]) IsMultigraph() bool { return g.opts.Multigraph }

// IsCompound reports whether parent/child nesting is enabled.
func (g *Graph[N, E, G]) IsCompound() bool { return g.opts.Compound }

// IsDirected reports whether edge direction is significant.
func (g *Graph[N, E, G]) IsDirected() bool { return !g.opts.Undirected }

// SetDefaultNodeLabel installs the factory used for implicitly created nodes.
// It returns the graph to allow chaining after [New].
func (g *Graph[N, E, G]) SetDefaultNodeLabel(fn func(id string) N) *Graph[N, E, G] {
	g.defaultNode = fn
	return g
}

// SetDefaultEdgeLabel installs the factory used for implicitly created edges.
// It returns the graph to allow chaining after [New].
func (g *Graph[N, E, G]) SetDefaultEdgeLabel(fn func(v, w, name string) E) *Graph[N, E, G] {
	g.defaultEdge = fn
	return g
}

// GraphLabel returns the graph-level label.
func (g *Graph[N, E, G]) GraphLabel() G { return g.label }

// SetGraphLabel replaces the graph-level label.
func (g *Graph[N, E, G]) SetGraphLabel(label G) { g.label = label }

func (g *Graph[N, E, G]) newNodeLabel(id string) N {
	if g.defaultNode != nil {
		return g.defaultNode(id)
	}
	var zero N
	return zero
}

func (g *Graph[N, E, G]) newEdgeLabel(v, w, name string) E {
	if g.defaultEdge != nil {
		return g.defaultEdge(v, w, name)
	}
	var zero E
	return zero
}

// =============================================================================
// Nodes
// =============================================================================

// SetNode creates the node or replaces its label. Insertion position is kept
// when the node already exists.
func (g *Graph[N, E, G]) SetNode(id string, label N) {
	if n, ok := g.nodes.Get(id); ok {
		n.label = label
		return
	}
	g.nodes.Set(id, &nodeEntry[N]{label: label})
}

// EnsureNode creates the node with a default label if it does not exist yet.
// An existing node is left untouched.
func (g *Graph[N, E, G]) EnsureNode(id string) {
	if _, ok := g.nodes.Get(id); ok {
		return
	}
	g.nodes.Set(id, &nodeEntry[N]{label: g.newNodeLabel(id)})
}

// HasNode reports whether a node with the given id exists.
func (g *Graph[N, E, G]) HasNode(id string) bool {
	_, ok := g.nodes.Get(id)
	return ok
}

// Node returns the label of the node and true, or the zero value and false
// if the node does not exist. With pointer label types, modifications through
// the returned label affect the graph.
func (g *Graph[N, E, G]) Node(id string) (N, bool) {
	n, ok := g.nodes.Get(id)
	if !ok {
		var zero N
		return zero, false
	}
	return n.label, true
}

// RemoveNode removes the node, all incident edges and its nesting relations.
// Children of a removed compound node become roots. Returns false if the node
// did not exist.
func (g *Graph[N, E, G]) RemoveNode(id string) bool {
	n, ok := g.nodes.Get(id)
	if !ok {
		return false
	}
	for _, k := range slices.Clone(n.out) {
		g.RemoveEdgeKey(k)
	}
	for _, k := range slices.Clone(n.in) {
		g.RemoveEdgeKey(k)
	}
	if g.opts.Compound {
		g.detachParent(id)
		for _, c := range g.children[id] {
			delete(g.parent, c)
		}
		delete(g.children, id)
	}
	g.nodes.Delete(id)
	return true
}

// Nodes returns all node ids in insertion order.
func (g *Graph[N, E, G]) Nodes() []string {
	ids := make([]string, 0, g.nodes.Len())
	for p := g.nodes.Oldest(); p != nil; p = p.Next() {
		ids = append(ids, p.Key)
	}
	return ids
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph[N, E, G]) NodeCount() int { return g.nodes.Len() }

// Sources returns nodes without incoming edges, in insertion order.
func (g *Graph[N, E, G]) Sources() []string {
	var out []string
	for p := g.nodes.Oldest(); p != nil; p = p.Next() {
		if len(p.Value.in) == 0 {
			out = append(out, p.Key)
		}
	}
	return out
}

// Sinks returns nodes without outgoing edges, in insertion order.
func (g *Graph[N, E, G]) Sinks() []string {
	var out []string
	for p := g.nodes.Oldest(); p != nil; p = p.Next() {
		if len(p.Value.out) == 0 {
			out = append(out, p.Key)
		}
	}
	return out
}

// =============================================================================
// Edges
// =============================================================================

func (g *Graph[N, E, G]) key(v, w, name string) EdgeKey {
	if !g.opts.Multigraph {
		name = ""
	}
	if g.opts.Undirected && w < v {
		v, w = w, v
	}
	return EdgeKey{V: v, W: w, Name: name}
}

// EnsureEdge creates the unnamed edge v->w with a default label if it does
// not exist yet. Missing endpoints are created. An existing edge keeps its label.
func (g *Graph[N, E, G]) EnsureEdge(v, w string) {
	g.EnsureEdgeNamed(v, w, "")
}

// EnsureEdgeNamed is like [Graph.EnsureEdge] for a named edge. The name is
// ignored unless the graph is a multigraph.
func (g *Graph[N, E, G]) EnsureEdgeNamed(v, w, name string) {
	k := g.key(v, w, name)
	if _, ok := g.edges.Get(k); ok {
		return
	}
	g.addEdge(k, g.newEdgeLabel(k.V, k.W, k.Name))
}

// SetEdge creates the unnamed edge v->w or replaces its label.
// Missing endpoints are created.
func (g *Graph[N, E, G]) SetEdge(v, w string, label E) {
	g.SetEdgeNamed(v, w, "", label)
}

// SetEdgeNamed creates the named edge v->w or replaces its label. The name is
// ignored unless the graph is a multigraph.
func (g *Graph[N, E, G]) SetEdgeNamed(v, w, name string, label E) {
	k := g.key(v, w, name)
	if _, ok := g.edges.Get(k); ok {
		g.edges.Set(k, label)
		return
	}
	g.addEdge(k, label)
}

// SetEdgeKey is [Graph.SetEdgeNamed] taking an [EdgeKey].
func (g *Graph[N, E, G]) SetEdgeKey(k EdgeKey, label E) {
	g.SetEdgeNamed(k.V, k.W, k.Name, label)
}

func (g *Graph[N, E, G]) addEdge(k EdgeKey, label E) {
	g.EnsureNode(k.V)
	g.EnsureNode(k.W)
	g.edges.Set(k, label)

	vn, _ := g.nodes.Get(k.V)
	wn, _ := g.nodes.Get(k.W)
	vn.out = append(vn.out, k)
	wn.in = append(wn.in, k)
	if g.opts.Undirected && k.V != k.W {
		wn.out = append(wn.out, k)
		vn.in = append(vn.in, k)
	}
}

// HasEdge reports whether the unnamed edge v->w exists.
func (g *Graph[N, E, G]) HasEdge(v, w string) bool {
	_, ok := g.edges.Get(g.key(v, w, ""))
	return ok
}

// HasEdgeKey reports whether the edge identified by k exists.
func (g *Graph[N, E, G]) HasEdgeKey(k EdgeKey) bool {
	_, ok := g.edges.Get(g.key(k.V, k.W, k.Name))
	return ok
}

// Edge returns the label of the unnamed edge v->w.
func (g *Graph[N, E, G]) Edge(v, w string) (E, bool) {
	return g.EdgeNamed(v, w, "")
}

// EdgeNamed returns the label of the named edge v->w.
func (g *Graph[N, E, G]) EdgeNamed(v, w, name string) (E, bool) {
	return g.edges.Get(g.key(v, w, name))
}

// EdgeByKey returns the label of the edge identified by k.
func (g *Graph[N, E, G]) EdgeByKey(k EdgeKey) (E, bool) {
	return g.edges.Get(g.key(k.V, k.W, k.Name))
}

// RemoveEdge removes the unnamed edge v->w. Returns false if it did not exist.
func (g *Graph[N, E, G]) RemoveEdge(v, w string) bool {
	return g.RemoveEdgeKey(EdgeKey{V: v, W: w})
}

// RemoveEdgeKey removes the edge identified by k. Returns false if it did not
// exist. The endpoints are kept.
func (g *Graph[N, E, G]) RemoveEdgeKey(k EdgeKey) bool {
	k = g.key(k.V, k.W, k.Name)
	if _, ok := g.edges.Delete(k); !ok {
		return false
	}
	drop := func(keys []EdgeKey) []EdgeKey {
		return slices.DeleteFunc(keys, func(x EdgeKey) bool { return x == k })
	}
	if vn, ok := g.nodes.Get(k.V); ok {
		vn.out = drop(vn.out)
		vn.in = drop(vn.in)
	}
	if wn, ok := g.nodes.Get(k.W); ok {
		wn.in = drop(wn.in)
		wn.out = drop(wn.out)
	}
	return true
}

// Edges returns all edge keys in insertion order.
func (g *Graph[N, E, G]) Edges() []EdgeKey {
	keys := make([]EdgeKey, 0, g.edges.Len())
	for p := g.edges.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph[N, E, G]) EdgeCount() int { return g.edges.Len() }

// =============================================================================
// Adjacency
// =============================================================================

// OutEdges returns the edges leaving v in insertion order. For undirected
// graphs it returns every incident edge. Returns nil if v does not exist.
func (g *Graph[N, E, G]) OutEdges(v string) []EdgeKey {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	return slices.Clone(n.out)
}

// OutEdgesTo returns the edges from v to w in insertion order.
func (g *Graph[N, E, G]) OutEdgesTo(v, w string) []EdgeKey {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	var out []EdgeKey
	for _, k := range n.out {
		if k.Other(v) == w {
			out = append(out, k)
		}
	}
	return out
}

// InEdges returns the edges entering v in insertion order. For undirected
// graphs it returns every incident edge. Returns nil if v does not exist.
func (g *Graph[N, E, G]) InEdges(v string) []EdgeKey {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	return slices.Clone(n.in)
}

// InEdgesFrom returns the edges from u to v in insertion order.
func (g *Graph[N, E, G]) InEdgesFrom(v, u string) []EdgeKey {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	var out []EdgeKey
	for _, k := range n.in {
		if k.Other(v) == u {
			out = append(out, k)
		}
	}
	return out
}

// NodeEdges returns every edge incident to v: out-edges first, then in-edges
// not already listed.
func (g *Graph[N, E, G]) NodeEdges(v string) []EdgeKey {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	out := slices.Clone(n.out)
	for _, k := range n.in {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// Successors returns the distinct targets of v's out-edges in edge insertion
// order. Returns nil if v does not exist.
func (g *Graph[N, E, G]) Successors(v string) []string {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	return otherEnds(v, n.out, nil)
}

// Predecessors returns the distinct sources of v's in-edges in edge insertion
// order. Returns nil if v does not exist.
func (g *Graph[N, E, G]) Predecessors(v string) []string {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	return otherEnds(v, n.in, nil)
}

// Neighbors returns the union of successors and predecessors without
// duplicates: successors first, then predecessors not already listed.
func (g *Graph[N, E, G]) Neighbors(v string) []string {
	n, ok := g.nodes.Get(v)
	if !ok {
		return nil
	}
	return otherEnds(v, n.in, otherEnds(v, n.out, nil))
}

func otherEnds(v string, keys []EdgeKey, acc []string) []string {
	seen := make(map[string]struct{}, len(acc)+len(keys))
	for _, id := range acc {
		seen[id] = struct{}{}
	}
	for _, k := range keys {
		o := k.Other(v)
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		acc = append(acc, o)
	}
	return acc
}

// IsLeaf reports whether v has no successors (undirected: no neighbours).
func (g *Graph[N, E, G]) IsLeaf(v string) bool {
	n, ok := g.nodes.Get(v)
	return ok && len(n.out) == 0
}

// =============================================================================
// Compound Relations
// =============================================================================

// SetParent nests child under parent, detaching any previous parent. An empty
// parent makes child a root again. Both nodes are created if missing.
// SetParent is a no-op on non-compound graphs. Cycles in the parent relation
// are not detected.
func (g *Graph[N, E, G]) SetParent(child, parent string) {
	if !g.opts.Compound {
		return
	}
	g.EnsureNode(child)
	g.detachParent(child)
	if parent == "" {
		return
	}
	g.EnsureNode(parent)
	g.parent[child] = parent
	if !slices.Contains(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
	}
}

func (g *Graph[N, E, G]) detachParent(child string) {
	old, ok := g.parent[child]
	if !ok {
		return
	}
	delete(g.parent, child)
	g.children[old] = slices.DeleteFunc(g.children[old], func(c string) bool { return c == child })
	if len(g.children[old]) == 0 {
		delete(g.children, old)
	}
}

// Parent returns the parent of child and true, or "" and false for roots and
// non-compound graphs.
func (g *Graph[N, E, G]) Parent(child string) (string, bool) {
	if !g.opts.Compound {
		return "", false
	}
	p, ok := g.parent[child]
	return p, ok
}

// Children returns the direct children of v in the order they were attached.
// Always nil for non-compound graphs.
func (g *Graph[N, E, G]) Children(v string) []string {
	if !g.opts.Compound {
		return nil
	}
	return slices.Clone(g.children[v])
}

// HasChildren reports whether v is a compound node with at least one child.
func (g *Graph[N, E, G]) HasChildren(v string) bool {
	return g.opts.Compound && len(g.children[v]) > 0
}

// ChildrenRoot returns the nodes without a parent in insertion order. For
// non-compound graphs this is every node.
func (g *Graph[N, E, G]) ChildrenRoot() []string {
	if !g.opts.Compound {
		return g.Nodes()
	}
	var out []string
	for p := g.nodes.Oldest(); p != nil; p = p.Next() {
		if _, ok := g.parent[p.Key]; !ok {
			out = append(out, p.Key)
		}
	}
	return out
}
