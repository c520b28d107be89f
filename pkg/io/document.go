package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// Document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Formats lists the supported document formats.
var Formats = []string{FormatJSON, FormatYAML, FormatTOML}

// Document is the interchange form of a graph to be laid out.
type Document struct {
	Options Options `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	Nodes   []Node  `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges   []Edge  `json:"edges" yaml:"edges" toml:"edges"`
}

// Options are the graph-wide layout settings of a document. Zero values
// select the defaults of [layout.DefaultGraphLabel].
type Options struct {
	Rankdir   string  `json:"rankdir,omitempty" yaml:"rankdir,omitempty" toml:"rankdir,omitempty"`
	Nodesep   float64 `json:"nodesep,omitempty" yaml:"nodesep,omitempty" toml:"nodesep,omitempty"`
	Ranksep   float64 `json:"ranksep,omitempty" yaml:"ranksep,omitempty" toml:"ranksep,omitempty"`
	Edgesep   float64 `json:"edgesep,omitempty" yaml:"edgesep,omitempty" toml:"edgesep,omitempty"`
	Marginx   float64 `json:"marginx,omitempty" yaml:"marginx,omitempty" toml:"marginx,omitempty"`
	Marginy   float64 `json:"marginy,omitempty" yaml:"marginy,omitempty" toml:"marginy,omitempty"`
	Ranker    string  `json:"ranker,omitempty" yaml:"ranker,omitempty" toml:"ranker,omitempty"`
	Acyclicer string  `json:"acyclicer,omitempty" yaml:"acyclicer,omitempty" toml:"acyclicer,omitempty"`
	Align     string  `json:"align,omitempty" yaml:"align,omitempty" toml:"align,omitempty"`
}

// Node is a node of a document.
type Node struct {
	ID     string  `json:"id" yaml:"id" toml:"id"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	Parent string  `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
	Rank   *int    `json:"rank,omitempty" yaml:"rank,omitempty" toml:"rank,omitempty"`
}

// Edge is an edge of a document.
type Edge struct {
	V           string   `json:"v" yaml:"v" toml:"v"`
	W           string   `json:"w" yaml:"w" toml:"w"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Minlen      int      `json:"minlen,omitempty" yaml:"minlen,omitempty" toml:"minlen,omitempty"`
	Weight      *float64 `json:"weight,omitempty" yaml:"weight,omitempty" toml:"weight,omitempty"`
	Width       float64  `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height      float64  `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	LabelPos    string   `json:"labelpos,omitempty" yaml:"labelpos,omitempty" toml:"labelpos,omitempty"`
	LabelOffset *float64 `json:"labeloffset,omitempty" yaml:"labeloffset,omitempty" toml:"labeloffset,omitempty"`
}

// Edge attribute bounds accepted by [Document.Validate].
const (
	MaxEdgeWeight = 1e6
	MaxMinlen     = 1000
)

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Validate checks ids and option values. It reports the first problem as an
// INVALID_INPUT or INVALID_OPTION error.
func (d *Document) Validate() error {
	o := d.Options
	for _, check := range []error{
		errors.ValidateRankdir(o.Rankdir),
		errors.ValidateRanker(o.Ranker),
		errors.ValidateAcyclicer(o.Acyclicer),
		errors.ValidateAlign(o.Align),
	} {
		if check != nil {
			return check
		}
	}
	for _, v := range []float64{o.Nodesep, o.Ranksep, o.Edgesep, o.Marginx, o.Marginy} {
		if v < 0 || !finite(v) {
			return errors.New(errors.ErrCodeInvalidOption, "spacing and margins must be finite and not negative")
		}
	}

	seen := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "node %d", i)
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		if n.Width < 0 || n.Height < 0 || !finite(n.Width, n.Height) {
			return errors.New(errors.ErrCodeInvalidInput, "node %q has a negative or non-finite size", n.ID)
		}
		if n.Parent == n.ID && n.Parent != "" {
			return errors.New(errors.ErrCodeInvalidInput, "node %q is its own parent", n.ID)
		}
	}

	named := make(map[graph.EdgeKey]bool, len(d.Edges))
	for i, e := range d.Edges {
		for _, id := range []string{e.V, e.W} {
			if err := errors.ValidateNodeID(id); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %d", i)
			}
		}
		if e.Minlen < 0 || e.Minlen > MaxMinlen {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s->%s minlen %d is outside [0, %d]", e.V, e.W, e.Minlen, MaxMinlen)
		}
		if e.Weight != nil && (*e.Weight < 0 || *e.Weight > MaxEdgeWeight || !finite(*e.Weight)) {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s->%s weight %v is outside [0, %g]", e.V, e.W, *e.Weight, float64(MaxEdgeWeight))
		}
		if e.Width < 0 || e.Height < 0 || !finite(e.Width, e.Height) {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s->%s has a negative or non-finite label size", e.V, e.W)
		}
		if e.LabelOffset != nil && !finite(*e.LabelOffset) {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s->%s has a non-finite label offset", e.V, e.W)
		}
		if err := errors.ValidateLabelPos(e.LabelPos); err != nil {
			return err
		}
		if e.Name != "" {
			k := graph.EdgeKey{V: e.V, W: e.W, Name: e.Name}
			if named[k] {
				return errors.New(errors.ErrCodeInvalidInput, "duplicate edge %s->%s named %q", e.V, e.W, e.Name)
			}
			named[k] = true
		}
	}
	return nil
}

// Build validates d and converts it into a layout graph. The graph is a
// multigraph when any edge is named and compound when any node has a
// parent. Unnamed parallel edges on a simple graph replace each other, last
// one wins.
func (d *Document) Build() (*layout.Graph, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var opts graph.Options
	for _, e := range d.Edges {
		if e.Name != "" {
			opts.Multigraph = true
		}
	}
	for _, n := range d.Nodes {
		if n.Parent != "" {
			opts.Compound = true
		}
	}

	g := layout.NewGraph(opts)
	d.Options.apply(layout.GraphOf(g))

	for _, n := range d.Nodes {
		nl := &layout.NodeLabel{Label: n.Label, Width: n.Width, Height: n.Height}
		if n.Rank != nil {
			nl.Rank = *n.Rank
		}
		g.SetNode(n.ID, nl)
	}
	for _, n := range d.Nodes {
		if n.Parent != "" {
			g.EnsureNode(n.Parent)
			g.SetParent(n.ID, n.Parent)
		}
	}

	for _, e := range d.Edges {
		el := layout.NewEdgeLabel()
		el.Label = e.Label
		el.Width = e.Width
		el.Height = e.Height
		if e.Minlen > 0 {
			el.Minlen = e.Minlen
		}
		if e.Weight != nil {
			el.Weight = *e.Weight
		}
		if e.LabelPos != "" {
			el.LabelPos = layout.LabelPos(strings.ToLower(e.LabelPos))
		}
		if e.LabelOffset != nil {
			el.LabelOffset = *e.LabelOffset
		}
		g.SetEdgeNamed(e.V, e.W, e.Name, el)
	}
	return g, nil
}

func (o Options) apply(gl *layout.GraphLabel) {
	if o.Rankdir != "" {
		gl.Rankdir = layout.Rankdir(o.Rankdir)
	}
	if o.Nodesep > 0 {
		gl.Nodesep = o.Nodesep
	}
	if o.Ranksep > 0 {
		gl.Ranksep = o.Ranksep
	}
	if o.Edgesep > 0 {
		gl.Edgesep = o.Edgesep
	}
	gl.Marginx = o.Marginx
	gl.Marginy = o.Marginy
	gl.Ranker = o.Ranker
	gl.Acyclicer = o.Acyclicer
	gl.Align = layout.Align(o.Align)
}

// DetectFormat returns the document format implied by the extension of path.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer format of %q (use .json, .yaml, .yml or .toml)", path)
}

// ReadDocument decodes a document in the given format from r.
func ReadDocument(r io.Reader, format string) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&doc)
		if err == io.EOF {
			err = nil
		}
	case FormatTOML:
		var md toml.MetaData
		md, err = toml.NewDecoder(r).Decode(&doc)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown key %q", undecoded[0].String())
			}
		}
	default:
		return nil, errors.ValidateFormat(format, Formats...)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s document", format)
	}
	return &doc, nil
}

// ReadDocumentFile reads the document at path, choosing the format from the
// extension.
func ReadDocumentFile(path string) (*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f, format)
}

// WriteDocument encodes doc in the given format to w.
func WriteDocument(w io.Writer, doc *Document, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	}
	return errors.ValidateFormat(format, Formats...)
}

// WriteDocumentFile writes doc to path in the format implied by its
// extension.
func WriteDocumentFile(doc *Document, path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Canonical returns the compact JSON encoding of doc, used as the content
// hash input for caching.
func (d *Document) Canonical() ([]byte, error) {
	return json.Marshal(d)
}
