// Package alg implements structural algorithms over [graph.Graph]: connected
// components, cycle detection, depth-first orders and topological sorting.
//
// All functions take the minimal [Adjacency] view so they work for any label
// types. Results follow the container's insertion order, which keeps them
// deterministic.
package alg

import (
	"errors"
	"slices"
)

// ErrCycle is returned by [TopSort] when the graph contains a cycle.
var ErrCycle = errors.New("graph contains a cycle")

// Adjacency is the read-only view the algorithms need. *graph.Graph satisfies
// it for every choice of label types.
type Adjacency interface {
	Nodes() []string
	Successors(v string) []string
	Predecessors(v string) []string
}

// Components returns the weakly connected components of g. Edges are
// followed in both directions. Each component lists its nodes in breadth-first
// discovery order, and components appear in the insertion order of their
// first node.
func Components(g Adjacency) [][]string {
	seen := make(map[string]bool)
	var out [][]string
	for _, start := range g.Nodes() {
		if seen[start] {
			continue
		}
		seen[start] = true
		var comp []string
		queue := []string{start}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			comp = append(comp, v)
			for _, n := range g.Successors(v) {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
			for _, n := range g.Predecessors(v) {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}

type tarjanFrame struct {
	v     string
	succs []string
	next  int
}

// StronglyConnected returns the strongly connected components of g using an
// iterative version of Tarjan's algorithm. Components are emitted in the
// order Tarjan completes them (reverse topological order of the condensation).
func StronglyConnected(g Adjacency) [][]string {
	var (
		counter int
		index   = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		stack   []string
		sccs    [][]string
	)

	for _, root := range g.Nodes() {
		if _, visited := index[root]; visited {
			continue
		}

		visit := func(v string) *tarjanFrame {
			index[v] = counter
			lowlink[v] = counter
			counter++
			stack = append(stack, v)
			onStack[v] = true
			return &tarjanFrame{v: v, succs: g.Successors(v)}
		}

		frames := []*tarjanFrame{visit(root)}
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.next < len(f.succs) {
				w := f.succs[f.next]
				f.next++
				if _, visited := index[w]; !visited {
					frames = append(frames, visit(w))
				} else if onStack[w] {
					lowlink[f.v] = min(lowlink[f.v], index[w])
				}
				continue
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].v
				lowlink[parent] = min(lowlink[parent], lowlink[f.v])
			}
			if lowlink[f.v] != index[f.v] {
				continue
			}
			var scc []string
			for {
				if len(stack) == 0 {
					panic("alg: tarjan stack underflow")
				}
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == f.v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}
	return sccs
}

// FindCycles reports every strongly connected component with more than one
// node, and every single node with a self-loop. Nodes within a cycle are
// sorted by insertion order; cycles are sorted by their first member's id.
// An acyclic graph yields nil.
func FindCycles(g Adjacency) [][]string {
	nodes := g.Nodes()
	pos := make(map[string]int, len(nodes))
	for i, v := range nodes {
		pos[v] = i
	}

	var cycles [][]string
	for _, scc := range StronglyConnected(g) {
		if len(scc) > 1 {
			slices.SortFunc(scc, func(a, b string) int { return pos[a] - pos[b] })
			cycles = append(cycles, scc)
			continue
		}
		if v := scc[0]; slices.Contains(g.Successors(v), v) {
			cycles = append(cycles, scc)
		}
	}
	slices.SortStableFunc(cycles, func(a, b []string) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})
	return cycles
}

// IsAcyclic reports whether g has no cycles, self-loops included.
func IsAcyclic(g Adjacency) bool {
	return len(FindCycles(g)) == 0
}

// Preorder returns the nodes reachable from roots in depth-first preorder,
// following successors in insertion order. Each node appears once.
func Preorder(g Adjacency, roots ...string) []string {
	visited := make(map[string]bool)
	var out []string
	for _, r := range roots {
		if visited[r] {
			continue
		}
		stack := []string{r}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[v] {
				continue
			}
			visited[v] = true
			out = append(out, v)
			succs := g.Successors(v)
			for i := len(succs) - 1; i >= 0; i-- {
				if !visited[succs[i]] {
					stack = append(stack, succs[i])
				}
			}
		}
	}
	return out
}

// Postorder returns the nodes reachable from roots in depth-first postorder,
// following successors in insertion order. Each node appears once.
func Postorder(g Adjacency, roots ...string) []string {
	visited := make(map[string]bool)
	var out []string
	for _, r := range roots {
		if visited[r] {
			continue
		}
		visited[r] = true
		frames := []*tarjanFrame{{v: r, succs: g.Successors(r)}}
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.next < len(f.succs) {
				w := f.succs[f.next]
				f.next++
				if !visited[w] {
					visited[w] = true
					frames = append(frames, &tarjanFrame{v: w, succs: g.Successors(w)})
				}
				continue
			}
			frames = frames[:len(frames)-1]
			out = append(out, f.v)
		}
	}
	return out
}

// TopSort returns the nodes in a topological order using Kahn's algorithm.
// Ready nodes are emitted in insertion order. Returns [ErrCycle] if g is not
// acyclic.
func TopSort(g Adjacency) ([]string, error) {
	nodes := g.Nodes()
	indeg := make(map[string]int, len(nodes))
	for _, v := range nodes {
		indeg[v] = len(g.Predecessors(v))
	}
	var queue, out []string
	for _, v := range nodes {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		out = append(out, v)
		for _, w := range g.Successors(v) {
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
	if len(out) != len(nodes) {
		return out, ErrCycle
	}
	return out, nil
}
