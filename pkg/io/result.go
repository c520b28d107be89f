package io

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// =============================================================================
// Result - Finished Layout
// =============================================================================

// Result is the serializable form of a finished layout.
type Result struct {
	Width   float64      `json:"width" bson:"width"`
	Height  float64      `json:"height" bson:"height"`
	Rankdir string       `json:"rankdir,omitempty" bson:"rankdir,omitempty"`
	Nodes   []ResultNode `json:"nodes" bson:"nodes"`
	Edges   []ResultEdge `json:"edges" bson:"edges"`
}

// ResultNode is a positioned node. X and Y are the center of its box.
type ResultNode struct {
	ID     string  `json:"id" bson:"id"`
	Label  string  `json:"label,omitempty" bson:"label,omitempty"`
	Parent string  `json:"parent,omitempty" bson:"parent,omitempty"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Rank   int     `json:"rank" bson:"rank"`
	Order  int     `json:"order" bson:"order"`
}

// ResultEdge is a routed edge.
type ResultEdge struct {
	V      string         `json:"v" bson:"v"`
	W      string         `json:"w" bson:"w"`
	Name   string         `json:"name,omitempty" bson:"name,omitempty"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`
	Points []layout.Point `json:"points" bson:"points"`
	// LabelPosition is the center of the label box, nil for unlabelled
	// edges.
	LabelPosition *layout.Point `json:"label_position,omitempty" bson:"label_position,omitempty"`
	LabelWidth    float64       `json:"label_width,omitempty" bson:"label_width,omitempty"`
	LabelHeight   float64       `json:"label_height,omitempty" bson:"label_height,omitempty"`
}

// FromGraph flattens a laid out graph into a Result. Nodes and edges keep
// the insertion order of g.
func FromGraph(g *layout.Graph) Result {
	gl := layout.GraphOf(g)
	res := Result{
		Width:   gl.Width,
		Height:  gl.Height,
		Rankdir: string(gl.Rankdir),
		Nodes:   make([]ResultNode, 0, g.NodeCount()),
		Edges:   make([]ResultEdge, 0, g.EdgeCount()),
	}
	for _, v := range g.Nodes() {
		n := layout.NodeOf(g, v)
		if n == nil {
			n = &layout.NodeLabel{}
		}
		parent, _ := g.Parent(v)
		res.Nodes = append(res.Nodes, ResultNode{
			ID:     v,
			Label:  n.Label,
			Parent: parent,
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
			Rank:   n.Rank,
			Order:  n.Order,
		})
	}
	for _, k := range g.Edges() {
		e := layout.EdgeOf(g, k)
		if e == nil {
			e = layout.NewEdgeLabel()
		}
		re := ResultEdge{
			V:           k.V,
			W:           k.W,
			Name:        k.Name,
			Label:       e.Label,
			Points:      append([]layout.Point{}, e.Points...),
			LabelWidth:  e.Width,
			LabelHeight: e.Height,
		}
		if e.Position != nil {
			p := *e.Position
			re.LabelPosition = &p
		}
		res.Edges = append(res.Edges, re)
	}
	return res
}

// Graph rebuilds a positioned layout graph from r, for renderers that work
// on graphs.
func (r Result) Graph() *layout.Graph {
	var opts graph.Options
	for _, e := range r.Edges {
		if e.Name != "" {
			opts.Multigraph = true
		}
	}
	for _, n := range r.Nodes {
		if n.Parent != "" {
			opts.Compound = true
		}
	}
	g := layout.NewGraph(opts)
	gl := layout.GraphOf(g)
	gl.Width, gl.Height = r.Width, r.Height
	if r.Rankdir != "" {
		gl.Rankdir = layout.Rankdir(r.Rankdir)
	}
	for _, n := range r.Nodes {
		g.SetNode(n.ID, &layout.NodeLabel{
			Label: n.Label, X: n.X, Y: n.Y,
			Width: n.Width, Height: n.Height,
			Rank: n.Rank, Order: n.Order,
		})
	}
	for _, n := range r.Nodes {
		if n.Parent != "" {
			g.SetParent(n.ID, n.Parent)
		}
	}
	for _, e := range r.Edges {
		el := layout.NewEdgeLabel()
		el.Label = e.Label
		el.Width, el.Height = e.LabelWidth, e.LabelHeight
		el.Points = append([]layout.Point(nil), e.Points...)
		if e.LabelPosition != nil {
			p := *e.LabelPosition
			el.Position = &p
		}
		g.SetEdgeNamed(e.V, e.W, e.Name, el)
	}
	return g
}

// =============================================================================
// Result Serialization API
// =============================================================================

// MarshalResult serializes a Result to pretty-printed JSON bytes.
func MarshalResult(r Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// UnmarshalResult deserializes JSON bytes into a Result and checks that
// every edge references a known node.
func UnmarshalResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal result")
	}
	ids := make(map[string]bool, len(r.Nodes))
	for _, n := range r.Nodes {
		ids[n.ID] = true
	}
	for _, e := range r.Edges {
		if !ids[e.V] || !ids[e.W] {
			return Result{}, errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s references an unknown node", e.V, e.W)
		}
	}
	return r, nil
}

// WriteResultFile writes a Result to a JSON file.
func WriteResultFile(r Result, path string) error {
	data, err := MarshalResult(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadResultFile reads a Result from a JSON file.
func ReadResultFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Result{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalResult(data)
}
