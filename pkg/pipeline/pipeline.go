// Package pipeline composes the layout stages into complete layouts.
//
// Two pipelines are available:
//
//   - [Layered]: the full Sugiyama-style layout. Cycles are broken, ranks
//     assigned by network simplex, long edges split into dummy chains, layers
//     ordered to reduce crossings and x coordinates computed with Brandes-Köpf.
//     Edges come back as polylines clipped to the node boxes.
//   - [Minimal]: a lightweight deterministic layout. Longest-path ranks,
//     centered layers and straight interpolated edges.
//
// Both write X and Y onto the node labels of the graph they are given and
// Points onto its edge labels.
//
// # Usage
//
// Lay out a graph in place:
//
//	g := layout.NewGraph(graph.Options{})
//	g.SetNode("a", &layout.NodeLabel{Width: 80, Height: 40})
//	g.SetNode("b", &layout.NodeLabel{Width: 80, Height: 40})
//	g.SetEdge("a", "b", layout.NewEdgeLabel())
//	pipeline.Layered(g)
//
// Run a document through a cached [Runner]:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Layout(ctx, doc, pipeline.Options{Rankdir: "LR"})
//
// # Deadlines
//
// The stage algorithms are not interruptible. [Run] checks its context
// between stages and returns a TIMEOUT error once the deadline has passed.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API and Library
// =============================================================================

// Pipeline names.
const (
	PipelineLayered = "layered"
	PipelineMinimal = "minimal"
)

const (
	// DefaultPipeline is used when Options.Pipeline is empty.
	DefaultPipeline = PipelineLayered

	// DefaultTimeout bounds a single layout run.
	DefaultTimeout = 30 * time.Second
)

// =============================================================================
// Options - Layout Configuration
// =============================================================================

// Options configures a layout run. Zero layout fields keep whatever the
// graph (or document) already carries; non-zero fields override it.
type Options struct {
	Pipeline  string  `json:"pipeline,omitempty"`
	Rankdir   string  `json:"rankdir,omitempty"`
	Nodesep   float64 `json:"nodesep,omitempty"`
	Ranksep   float64 `json:"ranksep,omitempty"`
	Edgesep   float64 `json:"edgesep,omitempty"`
	Marginx   float64 `json:"marginx,omitempty"`
	Marginy   float64 `json:"marginy,omitempty"`
	Ranker    string  `json:"ranker,omitempty"`
	Acyclicer string  `json:"acyclicer,omitempty"`
	Align     string  `json:"align,omitempty"`

	// Timeout bounds the run. Zero selects DefaultTimeout, negative disables
	// the deadline.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Refresh skips the cache lookup but still stores the result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks option values and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	for _, err := range []error{
		errors.ValidatePipeline(o.Pipeline),
		errors.ValidateRankdir(o.Rankdir),
		errors.ValidateRanker(o.Ranker),
		errors.ValidateAcyclicer(o.Acyclicer),
		errors.ValidateAlign(o.Align),
	} {
		if err != nil {
			return err
		}
	}
	for _, v := range []float64{o.Nodesep, o.Ranksep, o.Edgesep, o.Marginx, o.Marginy} {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidOption, "spacing and margins must not be negative")
		}
	}

	if o.Pipeline == "" {
		o.Pipeline = DefaultPipeline
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns the cache key options of o.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Pipeline:  o.Pipeline,
		Rankdir:   o.Rankdir,
		Nodesep:   o.Nodesep,
		Ranksep:   o.Ranksep,
		Edgesep:   o.Edgesep,
		Marginx:   o.Marginx,
		Marginy:   o.Marginy,
		Ranker:    o.Ranker,
		Acyclicer: o.Acyclicer,
		Align:     o.Align,
	}
}

// Override returns o with every non-zero field of over taking precedence.
// The result is not validated.
func (o Options) Override(over Options) Options {
	out := o
	out.validated = false
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pickf := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	pick(&out.Pipeline, over.Pipeline)
	pick(&out.Rankdir, over.Rankdir)
	pick(&out.Ranker, over.Ranker)
	pick(&out.Acyclicer, over.Acyclicer)
	pick(&out.Align, over.Align)
	pickf(&out.Nodesep, over.Nodesep)
	pickf(&out.Ranksep, over.Ranksep)
	pickf(&out.Edgesep, over.Edgesep)
	pickf(&out.Marginx, over.Marginx)
	pickf(&out.Marginy, over.Marginy)
	if over.Timeout != 0 {
		out.Timeout = over.Timeout
	}
	out.Refresh = o.Refresh || over.Refresh
	if over.Logger != nil {
		out.Logger = over.Logger
	}
	return out
}

// apply writes the non-zero layout fields of o onto gl.
func (o *Options) apply(gl *layout.GraphLabel) {
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
	if o.Marginx > 0 {
		gl.Marginx = o.Marginx
	}
	if o.Marginy > 0 {
		gl.Marginy = o.Marginy
	}
	if o.Ranker != "" {
		gl.Ranker = o.Ranker
	}
	if o.Acyclicer != "" {
		gl.Acyclicer = o.Acyclicer
	}
	if o.Align != "" {
		gl.Align = layout.Align(o.Align)
	}
}
