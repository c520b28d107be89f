// Package dot writes laid out graphs as Graphviz DOT and renders them.
//
// Graphviz is only used as a drawing backend: [ToDOT] pins every node at its
// computed center and gives every edge its routed polyline as a piecewise
// straight B-spline, and [RenderSVG] runs the "nop2" engine (neato -n2),
// which draws positions and splines exactly as given.
//
//	pipeline.Layered(g)
//	svg, err := dot.RenderSVG(ctx, dot.ToDOT(g, dot.Options{}))
//
// Layout units map to points (1/72 inch). The y axis is flipped since
// Graphviz puts the origin in the bottom-left corner.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/strata/pkg/layout"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds rank and order to node labels.
	Detailed bool
	// ArrowSize is the length of the arrowhead in points. Zero selects 8.
	ArrowSize float64
}

const defaultArrowSize = 8.0

// Engine is the Graphviz layout engine that honours pinned positions and
// given edge splines.
const Engine = graphviz.Layout("nop2")

// ToDOT converts a positioned layout graph to DOT. Compound nodes are drawn
// as dashed boxes below their children.
func ToDOT(g *layout.Graph, opts Options) string {
	arrow := opts.ArrowSize
	if arrow <= 0 {
		arrow = defaultArrowSize
	}
	gl := layout.GraphOf(g)
	flip := func(y float64) float64 { return gl.Height - y }

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%s,%s\";\n", num(gl.Width), num(gl.Height))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, fontsize=12, margin=0];\n")
	buf.WriteString("  edge [arrowsize=0.6, fontsize=10];\n")
	buf.WriteString("\n")

	var parents, leaves []string
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			parents = append(parents, v)
		} else {
			leaves = append(leaves, v)
		}
	}
	for _, v := range append(parents, leaves...) {
		n := layout.NodeOf(g, v)
		if n == nil {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", nodeLabel(v, n, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", num(n.X), num(flip(n.Y))),
			fmt.Sprintf("width=%s", num(n.Width/72)),
			fmt.Sprintf("height=%s", num(n.Height/72)),
		}
		if g.HasChildren(v) {
			attrs = append(attrs, "style=\"rounded,dashed\"", "labelloc=t")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", v, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		attrs := []string{}
		if e != nil && len(e.Points) >= 2 {
			pts := make([]layout.Point, len(e.Points))
			for i, p := range e.Points {
				pts[i] = layout.Point{X: p.X, Y: flip(p.Y)}
			}
			attrs = append(attrs, fmt.Sprintf("pos=%q", splinePos(pts, arrow)))
		}
		if e != nil && e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
			if e.Position != nil {
				attrs = append(attrs, fmt.Sprintf("lp=\"%s,%s\"", num(e.Position.X), num(flip(e.Position.Y))))
			}
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", k.V, k.W)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", k.V, k.W, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(id string, n *layout.NodeLabel, detailed bool) string {
	label := n.Label
	if label == "" {
		label = id
	}
	if detailed {
		label += fmt.Sprintf("\nrank: %d\norder: %d", n.Rank, n.Order)
	}
	return label
}

// splinePos encodes a polyline as a Graphviz spline: every segment becomes a
// cubic Bézier with control points on its ends. The last segment stops
// short by the arrow length and the arrowhead ends on the last point.
func splinePos(pts []layout.Point, arrow float64) string {
	last := pts[len(pts)-1]
	prev := pts[len(pts)-2]
	end := last
	head := ""
	if d := math.Hypot(last.X-prev.X, last.Y-prev.Y); d > arrow {
		f := (d - arrow) / d
		end = layout.Point{X: prev.X + (last.X-prev.X)*f, Y: prev.Y + (last.Y-prev.Y)*f}
		head = fmt.Sprintf("e,%s,%s ", num(last.X), num(last.Y))
	}

	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString(point(pts[0]))
	for i := 1; i < len(pts); i++ {
		from, to := pts[i-1], pts[i]
		if i == len(pts)-1 {
			to = end
		}
		fmt.Fprintf(&sb, " %s %s %s", point(from), point(to), point(to))
	}
	return sb.String()
}

func point(p layout.Point) string {
	return num(p.X) + "," + num(p.Y)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG without moving anything.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders DOT produced by [ToDOT] to PNG with Graphviz's own
// rasterizer.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(Engine)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == graphviz.SVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
