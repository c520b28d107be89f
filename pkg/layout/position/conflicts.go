package position

import (
	"github.com/matzehuels/strata/pkg/layout"
)

// Conflicts is a symmetric set of node pairs whose segments must not be
// aligned. Pairs are stored under the lexicographically smaller id.
type Conflicts map[string]map[string]bool

// Add records the pair {v, w}.
func (c Conflicts) Add(v, w string) {
	if v > w {
		v, w = w, v
	}
	m, ok := c[v]
	if !ok {
		m = make(map[string]bool)
		c[v] = m
	}
	m[w] = true
}

// Has reports whether the pair {v, w} was recorded.
func (c Conflicts) Has(v, w string) bool {
	if v > w {
		v, w = w, v
	}
	return c[v][w]
}

// Merge adds every pair of o to c.
func (c Conflicts) Merge(o Conflicts) {
	for v, ws := range o {
		for w := range ws {
			c.Add(v, w)
		}
	}
}

// FindType1Conflicts marks non-inner segments that cross an inner segment.
// An inner segment joins two dummy nodes; it is kept straight in favour of
// the other edge, which is recorded as a conflict.
func FindType1Conflicts(g *layout.Graph, layering [][]string) Conflicts {
	conflicts := make(Conflicts)
	for i := 1; i < len(layering); i++ {
		prev, layer := layering[i-1], layering[i]
		k0, scanPos := 0, 0
		for idx, v := range layer {
			w, inner := otherInnerSegmentNode(g, v)
			k1 := len(prev)
			if inner {
				k1 = layout.NodeOf(g, w).Order
			}
			if !inner && idx != len(layer)-1 {
				continue
			}
			for _, scanNode := range layer[scanPos : idx+1] {
				scanDummy := layout.NodeOf(g, scanNode).IsDummy()
				for _, u := range g.Predecessors(scanNode) {
					un := layout.NodeOf(g, u)
					if un == nil {
						continue
					}
					if (un.Order < k0 || k1 < un.Order) && !(un.IsDummy() && scanDummy) {
						conflicts.Add(u, scanNode)
					}
				}
			}
			scanPos = idx + 1
			k0 = k1
		}
	}
	return conflicts
}

// FindType2Conflicts marks inner segments that cross another inner segment
// bounded by cluster border dummies.
func FindType2Conflicts(g *layout.Graph, layering [][]string) Conflicts {
	conflicts := make(Conflicts)

	scan := func(south []string, from, to, prevBorder, nextBorder int) {
		for _, v := range south[from:to] {
			if !layout.NodeOf(g, v).IsDummy() {
				continue
			}
			for _, u := range g.Predecessors(v) {
				un := layout.NodeOf(g, u)
				if !un.IsDummy() {
					continue
				}
				if un.Order < prevBorder || un.Order > nextBorder {
					conflicts.Add(u, v)
				}
			}
		}
	}

	for i := 1; i < len(layering); i++ {
		north, south := layering[i-1], layering[i]
		prevNorthPos, nextNorthPos := -1, -1
		southPos := 0
		for lookahead, v := range south {
			if n := layout.NodeOf(g, v); n != nil && n.Dummy == layout.DummyBorder {
				if preds := g.Predecessors(v); len(preds) > 0 {
					pn := layout.NodeOf(g, preds[0])
					nextNorthPos = -1
					if pn != nil {
						nextNorthPos = pn.Order
					}
					scan(south, southPos, lookahead, prevNorthPos, nextNorthPos)
					southPos = lookahead
					if pn != nil {
						prevNorthPos = nextNorthPos
					}
				}
			}
			scan(south, southPos, len(south), nextNorthPos, len(north))
		}
	}
	return conflicts
}

// otherInnerSegmentNode returns the first dummy predecessor of v when v is
// itself a dummy.
func otherInnerSegmentNode(g *layout.Graph, v string) (string, bool) {
	if !layout.NodeOf(g, v).IsDummy() {
		return "", false
	}
	for _, u := range g.Predecessors(v) {
		if layout.NodeOf(g, u).IsDummy() {
			return u, true
		}
	}
	return "", false
}
