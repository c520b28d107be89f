// Package render turns finished layouts into images.
//
// The [dot] subpackage writes a laid out graph as Graphviz DOT with every
// node pinned and every edge carrying its routed polyline, and renders that
// DOT to SVG without letting Graphviz move anything.
//
// [ToPDF] converts any SVG using the external rsvg-convert tool (from
// librsvg):
//
//	svg, err := dot.RenderSVG(ctx, dot.ToDOT(g, dot.Options{}))
//	pdf, err := render.ToPDF(svg)
package render
