// Package layout defines the label types of a layered layout graph and the
// helpers shared by the layout stages.
//
// A layout graph is a [graph.Graph] whose nodes carry a [NodeLabel], whose
// edges carry an [EdgeLabel] and whose graph label is a [GraphLabel]. Every
// stage in the subpackages reads and mutates these labels in place:
//
//   - acyclic: reverses a feedback arc set so the graph becomes a DAG
//   - rank: assigns integer layers honoring each edge's Minlen
//   - normalize: splits edges spanning several ranks into dummy chains
//   - order: orders nodes within each rank to reduce crossings
//   - position: assigns x coordinates with Brandes-Köpf
//   - coordsys: maps other rank directions onto top-to-bottom
//
// The stages degrade instead of failing: a missing rank reads as 0, a missing
// minlen as 1 and a missing weight as 0.
package layout
