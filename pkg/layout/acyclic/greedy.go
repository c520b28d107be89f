package acyclic

import (
	list "github.com/bahlo/generic-list-go"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// weighted is an aggregated edge of the greedy working graph.
type weighted struct {
	other  string
	weight int
}

// fasState is the working set of the Eades-Lin-Smyth heuristic. Sinks and
// sources have their own lists; every other node sits in the bucket keyed by
// its out-weight minus in-weight. Buckets are created on demand, so their
// number is bounded by the node count and not by the edge weights.
type fasState struct {
	sinks, sources *list.List[string]
	buckets        map[int]*list.List[string]
	home           map[string]*list.List[string]
	elem           map[string]*list.Element[string]

	inW, outW map[string]int
	ins, outs map[string][]weighted
	alive     map[string]bool
}

// GreedyFAS returns a feedback arc set chosen by the greedy heuristic of
// Eades, Lin and Smyth. Parallel edges are aggregated with weights from
// weightFn. Ties are broken by insertion order, so the result is
// deterministic. Self-loops may be included and must be skipped by callers.
func GreedyFAS(g *layout.Graph, weightFn func(*layout.EdgeLabel) int) []graph.EdgeKey {
	if g.NodeCount() <= 1 {
		return nil
	}

	nodes := g.Nodes()
	s := &fasState{
		sinks:   list.New[string](),
		sources: list.New[string](),
		buckets: make(map[int]*list.List[string]),
		home:    make(map[string]*list.List[string]),
		elem:    make(map[string]*list.Element[string]),
		inW:     make(map[string]int, len(nodes)),
		outW:    make(map[string]int, len(nodes)),
		ins:     make(map[string][]weighted),
		outs:    make(map[string][]weighted),
		alive:   make(map[string]bool, len(nodes)),
	}
	for _, v := range nodes {
		s.alive[v] = true
	}

	type pair struct{ v, w string }
	var order []pair
	agg := make(map[pair]int)
	for _, k := range g.Edges() {
		w := weightFn(layout.EdgeOf(g, k))
		p := pair{k.V, k.W}
		if _, seen := agg[p]; !seen {
			order = append(order, p)
		}
		agg[p] += w
		s.outW[k.V] += w
		s.inW[k.W] += w
	}
	for _, p := range order {
		s.outs[p.v] = append(s.outs[p.v], weighted{other: p.w, weight: agg[p]})
		s.ins[p.w] = append(s.ins[p.w], weighted{other: p.v, weight: agg[p]})
	}

	for _, v := range nodes {
		s.assign(v)
	}

	var picked []pair
	for len(s.alive) > 0 {
		for v, ok := s.pop(s.sinks); ok; v, ok = s.pop(s.sinks) {
			s.remove(v, nil)
		}
		for v, ok := s.pop(s.sources); ok; v, ok = s.pop(s.sources) {
			s.remove(v, nil)
		}
		if len(s.alive) == 0 {
			break
		}
		if b := s.highest(); b != nil {
			v, _ := s.pop(b)
			s.remove(v, func(u string) { picked = append(picked, pair{u, v}) })
		} else {
			for _, v := range nodes {
				if s.alive[v] {
					s.remove(v, nil)
					break
				}
			}
		}
	}

	var fas []graph.EdgeKey
	for _, p := range picked {
		fas = append(fas, g.OutEdgesTo(p.v, p.w)...)
	}
	return fas
}

func (s *fasState) pop(b *list.List[string]) (string, bool) {
	e := b.Back()
	if e == nil {
		return "", false
	}
	v := b.Remove(e)
	delete(s.elem, v)
	delete(s.home, v)
	return v, true
}

// highest returns the non-empty bucket with the largest key, dropping empty
// buckets on the way.
func (s *fasState) highest() *list.List[string] {
	var (
		best  *list.List[string]
		bestK int
	)
	for k, b := range s.buckets {
		if b.Len() == 0 {
			delete(s.buckets, k)
			continue
		}
		if best == nil || k > bestK {
			best, bestK = b, k
		}
	}
	return best
}

func (s *fasState) unlink(v string) {
	if e, ok := s.elem[v]; ok {
		s.home[v].Remove(e)
		delete(s.elem, v)
		delete(s.home, v)
	}
}

func (s *fasState) assign(v string) {
	s.unlink(v)
	var b *list.List[string]
	switch {
	case s.outW[v] == 0:
		b = s.sinks
	case s.inW[v] == 0:
		b = s.sources
	default:
		d := s.outW[v] - s.inW[v]
		if b = s.buckets[d]; b == nil {
			b = list.New[string]()
			s.buckets[d] = b
		}
	}
	s.elem[v] = b.PushFront(v)
	s.home[v] = b
}

// remove deletes v from the working graph and rebuckets its live neighbours.
// onPred is called for every live predecessor before removal.
func (s *fasState) remove(v string, onPred func(u string)) {
	if !s.alive[v] {
		return
	}
	delete(s.alive, v)

	if onPred != nil {
		for _, in := range s.ins[v] {
			if s.alive[in.other] {
				onPred(in.other)
			}
		}
	}
	for _, in := range s.ins[v] {
		if !s.alive[in.other] {
			continue
		}
		s.outW[in.other] -= in.weight
		s.assign(in.other)
	}
	for _, out := range s.outs[v] {
		if !s.alive[out.other] {
			continue
		}
		s.inW[out.other] -= out.weight
		s.assign(out.other)
	}
	s.unlink(v)
	delete(s.inW, v)
	delete(s.outW, v)
}
