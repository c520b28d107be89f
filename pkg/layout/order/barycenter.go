package order

import (
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// Entry is a group of nodes moved as a unit while sorting a layer.
type Entry struct {
	// Vs are the nodes of the entry in their final relative order.
	Vs []string
	// I is the position of the entry among all entries of the layer before
	// sorting. Entries without a barycenter keep it.
	I int
	// Barycenter is the weighted mean order of the entry's neighbours in the
	// fixed layer. It is only meaningful when HasBarycenter is set.
	Barycenter    float64
	Weight        float64
	HasBarycenter bool
}

// Result is the outcome of [Sort]: the new order of a layer and the combined
// barycenter of every sortable entry.
type Result struct {
	Vs            []string
	Barycenter    float64
	Weight        float64
	HasBarycenter bool
}

// Barycenter computes an [Entry] for each movable node from the edges joining
// it to the fixed layer. With down set the neighbours are predecessors reached
// over in-edges, otherwise successors reached over out-edges. Nodes without
// such edges get no barycenter. Entry positions follow movable.
func Barycenter(g *layout.Graph, movable []string, down bool) []Entry {
	entries := make([]Entry, len(movable))
	for i, v := range movable {
		entries[i] = Entry{Vs: []string{v}, I: i}

		var edges []graph.EdgeKey
		if down {
			edges = g.InEdges(v)
		} else {
			edges = g.OutEdges(v)
		}
		var sum, weight float64
		seen := false
		for _, k := range edges {
			if k.IsSelfLoop() {
				continue
			}
			seen = true
			w := layout.Weight(g, k)
			order := 0
			if n := layout.NodeOf(g, k.Other(v)); n != nil {
				order = n.Order
			}
			sum += w * float64(order)
			weight += w
		}
		if !seen {
			continue
		}
		entries[i].Weight = weight
		entries[i].HasBarycenter = true
		if weight != 0 {
			entries[i].Barycenter = sum / weight
		}
	}
	return entries
}

// Sort orders entries by barycenter. Ties are broken by original position, to
// the left by default and to the right when biasRight is set. Entries without
// a barycenter are slotted back in at their original position.
func Sort(entries []Entry, biasRight bool) Result {
	var sortable, unsortable []Entry
	total := 0
	for _, e := range entries {
		total += len(e.Vs)
		if e.HasBarycenter {
			sortable = append(sortable, e)
		} else {
			unsortable = append(unsortable, e)
		}
	}

	// popped from the back, so descending I
	slices.SortStableFunc(unsortable, func(a, b Entry) int { return b.I - a.I })
	slices.SortStableFunc(sortable, func(a, b Entry) int {
		switch {
		case a.Barycenter < b.Barycenter:
			return -1
		case a.Barycenter > b.Barycenter:
			return 1
		case biasRight:
			return b.I - a.I
		default:
			return a.I - b.I
		}
	})

	out := make([]string, 0, total)
	index := 0
	consume := func() {
		for len(unsortable) > 0 {
			last := unsortable[len(unsortable)-1]
			if last.I > index {
				return
			}
			unsortable = unsortable[:len(unsortable)-1]
			out = append(out, last.Vs...)
			index++
		}
	}

	var sum, weight float64
	consume()
	for _, e := range sortable {
		index += len(e.Vs)
		out = append(out, e.Vs...)
		sum += e.Barycenter * e.Weight
		weight += e.Weight
		consume()
	}
	// leftovers whose position lies past the end
	for i := len(unsortable) - 1; i >= 0; i-- {
		out = append(out, unsortable[i].Vs...)
	}

	res := Result{Vs: out}
	if weight != 0 {
		res.Barycenter = sum / weight
		res.Weight = weight
		res.HasBarycenter = true
	}
	return res
}
