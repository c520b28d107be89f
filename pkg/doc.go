// Package pkg provides the libraries behind strata, a layered graph layout
// engine.
//
// # Overview
//
// strata takes a directed graph whose nodes have sizes and places it in
// ranks: cycles are broken, nodes ranked, long edges split into chains of
// dummy nodes, crossings reduced and coordinates assigned. The result is a
// position for every node and a polyline for every edge.
//
//  1. [graph] - Generic multigraph container with compound (cluster) support
//  2. [layout] - Layout labels and the individual layout stages
//  3. [pipeline] - Orchestration (validate → layout → cache → render)
//  4. [io] - JSON/YAML/TOML graph documents and layout results
//  5. [cache] - File, Redis and MongoDB caches for layouts and drawings
//  6. [render] - Graphviz DOT, SVG, PNG and PDF output
//
// # Architecture
//
// The data flow through strata:
//
//	Graph document (JSON/YAML/TOML)
//	         ↓
//	    [io] package (validate + build graph)
//	         ↓
//	    [pipeline] package (acyclic → rank → normalize → order → position)
//	         ↓
//	    [io] Result (positions + edge routes)
//	         ↓
//	    [render/dot] package (DOT/SVG/PNG/PDF)
//
// # Quick Start
//
//	doc, _ := io.ReadDocumentFile("graph.yaml")
//	g, _ := doc.Build()
//	if err := pipeline.Run(ctx, g, pipeline.Options{Rankdir: "LR"}); err != nil {
//	    return err
//	}
//	res := io.FromGraph(g)
//	svg, _ := pipeline.Render(ctx, res, pipeline.FormatSVG)
package pkg
