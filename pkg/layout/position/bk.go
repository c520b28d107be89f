package position

import (
	"math"
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// Alignment maps every node to the root of its block (Root) and to the next
// node of the block in the alignment direction (Align). The last node of a
// block aligns back to the root, closing the cycle.
type Alignment struct {
	Root  map[string]string
	Align map[string]string
}

// VerticalAlignment groups nodes into blocks. Layers are visited in the given
// order; each node is aligned with the median of its neighbours (both medians
// when there are two, left one first), provided the neighbour is still
// unaligned to its right, lies right of the previous alignment in the layer,
// and has no recorded conflict with the node.
func VerticalAlignment(layering [][]string, conflicts Conflicts, neighbors func(v string) []string) Alignment {
	a := Alignment{Root: make(map[string]string), Align: make(map[string]string)}
	pos := make(map[string]int)
	for _, layer := range layering {
		for order, v := range layer {
			a.Root[v] = v
			a.Align[v] = v
			pos[v] = order
		}
	}
	posOf := func(v string) int {
		if p, ok := pos[v]; ok {
			return p
		}
		return math.MaxInt
	}

	for _, layer := range layering {
		prevIdx := -1
		for _, v := range layer {
			ws := slices.Clone(neighbors(v))
			if len(ws) == 0 {
				continue
			}
			slices.SortStableFunc(ws, func(a, b string) int {
				pa, pb := posOf(a), posOf(b)
				switch {
				case pa < pb:
					return -1
				case pa > pb:
					return 1
				}
				return 0
			})
			mp := float64(len(ws)-1) / 2
			for i := int(math.Floor(mp)); i <= int(math.Ceil(mp)); i++ {
				w := ws[i]
				wPos := posOf(w)
				if a.Align[v] == v && prevIdx < wPos && !conflicts.Has(v, w) {
					a.Align[w] = v
					root := a.Root[w]
					if root == "" {
						root = w
					}
					a.Align[v] = root
					a.Root[v] = root
					prevIdx = wPos
				}
			}
		}
	}
	return a
}

// blockGraph has one node per block root and an edge between blocks that are
// neighbours in some layer, labelled with their minimum separation.
type blockGraph = graph.Graph[struct{}, float64, struct{}]

// HorizontalCompaction places every block as far left as the separations
// allow, then pulls blocks right towards their successors where that does
// not stretch the layout. With reverseSep set, label offsets are mirrored
// and left cluster borders stay put in the second pass. Every node receives
// the coordinate of its block root.
func HorizontalCompaction(g *layout.Graph, layering [][]string, a Alignment, reverseSep bool) map[string]float64 {
	bg := buildBlockGraph(g, layering, a.Root, reverseSep)
	borderType := "borderRight"
	if reverseSep {
		borderType = "borderLeft"
	}

	xs := make(map[string]float64, bg.NodeCount())

	// smallest coordinates, predecessors first
	iterate(bg, bg.Predecessors, func(v string) {
		best := 0.0
		for _, k := range bg.InEdges(v) {
			w, _ := bg.EdgeByKey(k)
			best = max(best, xs[k.V]+w)
		}
		xs[v] = best
	})

	// greatest coordinates, successors first
	iterate(bg, bg.Successors, func(v string) {
		lo := math.Inf(1)
		for _, k := range bg.OutEdges(v) {
			w, _ := bg.EdgeByKey(k)
			lo = min(lo, xs[k.W]-w)
		}
		n := layout.NodeOf(g, v)
		if n == nil {
			return
		}
		if !math.IsInf(lo, 1) && n.BorderType != borderType {
			xs[v] = max(xs[v], lo)
		}
	})

	out := make(map[string]float64, len(a.Align))
	for v := range a.Align {
		out[v] = xs[a.Root[v]]
	}
	return out
}

// iterate visits every node of bg after the nodes next returns for it, using
// an explicit stack so deep block chains cannot overflow.
func iterate(bg *blockGraph, next func(string) []string, visit func(string)) {
	stack := bg.Nodes()
	visited := make(map[string]bool, len(stack))
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[v] {
			visit(v)
			continue
		}
		visited[v] = true
		stack = append(stack, v)
		stack = append(stack, next(v)...)
	}
}

func buildBlockGraph(g *layout.Graph, layering [][]string, root map[string]string, reverseSep bool) *blockGraph {
	bg := graph.New[struct{}, float64, struct{}](graph.Options{})
	for _, layer := range layering {
		for i, v := range layer {
			vRoot := root[v]
			bg.EnsureNode(vRoot)
			if i == 0 {
				continue
			}
			u := layer[i-1]
			uRoot := root[u]
			prev, _ := bg.Edge(uRoot, vRoot)
			bg.SetEdge(uRoot, vRoot, max(sep(g, v, u, reverseSep), prev))
		}
	}
	return bg
}

// sep returns the minimum distance between the centers of the neighbours v
// and w: half their widths plus half the node or edge separation of each,
// shifted by the offset of edge-label dummies placed left or right of their
// edge.
func sep(g *layout.Graph, v, w string, reverseSep bool) float64 {
	gl := layout.GraphOf(g)
	vl, wl := layout.NodeOf(g, v), layout.NodeOf(g, w)
	if vl == nil {
		vl = &layout.NodeLabel{}
	}
	if wl == nil {
		wl = &layout.NodeLabel{}
	}

	shift := func(delta float64) float64 {
		if reverseSep {
			return delta
		}
		return -delta
	}

	sum := vl.Width / 2
	switch vl.LabelPos {
	case layout.LabelPosLeft:
		sum += shift(-vl.Width / 2)
	case layout.LabelPosRight:
		sum += shift(vl.Width / 2)
	}

	sum += spacing(gl, vl) / 2
	sum += spacing(gl, wl) / 2

	sum += wl.Width / 2
	switch wl.LabelPos {
	case layout.LabelPosLeft:
		sum += shift(wl.Width / 2)
	case layout.LabelPosRight:
		sum += shift(-wl.Width / 2)
	}
	return sum
}

func spacing(gl *layout.GraphLabel, n *layout.NodeLabel) float64 {
	if n.IsDummy() {
		return gl.Edgesep
	}
	return gl.Nodesep
}
