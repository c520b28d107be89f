// Package io reads graph documents and writes layout results.
//
// # Documents
//
// A [Document] describes the graph to lay out: nodes with their sizes, edges
// with their constraints, and the graph-wide layout options. The same
// structure is accepted as JSON, YAML or TOML; the format is chosen by file
// extension (see [DetectFormat]).
//
//	{
//	  "options": {"rankdir": "LR", "ranksep": 40},
//	  "nodes": [
//	    {"id": "a", "width": 80, "height": 40},
//	    {"id": "b", "width": 80, "height": 40}
//	  ],
//	  "edges": [
//	    {"v": "a", "w": "b", "minlen": 2}
//	  ]
//	}
//
// The same graph in YAML:
//
//	options:
//	  rankdir: LR
//	nodes:
//	  - {id: a, width: 80, height: 40}
//	  - {id: b, width: 80, height: 40}
//	edges:
//	  - {v: a, w: b, minlen: 2}
//
// # Node Fields
//
// Required:
//   - id: unique identifier
//
// Optional:
//   - width, height: size of the node box (default 0)
//   - label: display text, never read by the layout
//   - parent: id of the enclosing compound node
//   - rank: fixed rank, only honoured by the "none" ranker
//
// # Edge Fields
//
// Required:
//   - v, w: source and target node ids. Unknown ids create zero-size nodes.
//
// Optional:
//   - name: distinguishes parallel edges; any name makes the graph a multigraph
//   - minlen: minimum rank span (default 1)
//   - weight: importance of keeping the edge short (default 1)
//   - width, height: size of the edge label box
//   - labelpos: "c", "l" or "r" (default "c")
//   - labeloffset: distance of an l/r label from the edge (default 10)
//
// # Results
//
// A [Result] is the flat, serializable form of a finished layout: node
// centers and sizes, edge polylines and label positions. It carries json and
// bson tags so the HTTP service can return it and the Mongo cache can store
// it as is.
//
//	res := io.FromGraph(g)
//	err := io.WriteResultFile(res, "layout.json")
package io
