// Package graph provides the generic, insertion-ordered graph container used
// by every layout stage in strata.
//
// # Overview
//
// A [Graph] stores nodes identified by string ids and edges identified by an
// [EdgeKey] (source, target and an optional name). Node, edge and graph
// labels are type parameters, so the same container serves layout graphs,
// the simplified copies built by the ranker and the block graph of the
// horizontal coordinate assignment:
//
//	g := graph.New[*Node, *Edge, *Meta](graph.Options{Multigraph: true})
//	g.SetNode("a", &Node{Width: 10})
//	g.SetEdgeNamed("a", "b", "x", &Edge{Weight: 1}) // creates "b"
//
// # Options
//
// [Options] fixes the structure at construction time:
//
//   - Multigraph: parallel edges distinguished by [EdgeKey.Name]
//   - Compound: parent/child nesting via [Graph.SetParent]
//   - Undirected: (v, w) and (w, v) address the same edge
//
// # Determinism
//
// Every query returning several nodes or edges returns them in insertion
// order, never in hash order. Downstream algorithms use this order to break
// ties, which makes layouts reproducible across runs.
//
// # Labels
//
// Nodes and edges created implicitly (edge endpoints, [Graph.EnsureNode])
// get their label from the factory installed with
// [Graph.SetDefaultNodeLabel] or [Graph.SetDefaultEdgeLabel], or the zero
// value otherwise. Use pointer label types when labels are mutated in place.
//
// Traversal and structural algorithms live in the [github.com/matzehuels/strata/pkg/graph/alg]
// subpackage.
package graph
