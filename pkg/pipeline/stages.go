package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/layout"
	"github.com/matzehuels/strata/pkg/observability"
)

// stage is one named step of a pipeline.
type stage struct {
	name string
	fn   func(g *layout.Graph)
}

// executor runs stages in order, timing and logging each one. The context
// is checked before every stage.
type executor struct {
	ctx      context.Context
	pipeline string
	logger   *log.Logger
}

func (x *executor) run(g *layout.Graph, stages ...stage) error {
	for _, s := range stages {
		if err := x.ctx.Err(); err != nil {
			return stageError(s.name, err)
		}
		start := time.Now()
		s.fn(g)
		elapsed := time.Since(start)

		x.logger.Debug("stage done",
			"pipeline", x.pipeline,
			"stage", s.name,
			"nodes", g.NodeCount(),
			"edges", g.EdgeCount(),
			"elapsed", elapsed)
		observability.Pipeline().OnStageComplete(x.ctx, x.pipeline, s.name, elapsed)
	}
	return nil
}

func stageError(name string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "layout deadline exceeded before stage %s", name)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "layout canceled before stage %s", name)
}

// =============================================================================
// Entry Points
// =============================================================================

// Run applies opts to the graph label of g and lays g out with the selected
// pipeline. It returns a TIMEOUT error when the deadline passes between two
// stages; g is then left partially processed.
func Run(ctx context.Context, g *layout.Graph, opts Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	opts.apply(layout.GraphOf(g))

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Pipeline, g.NodeCount())
	start := time.Now()

	x := &executor{ctx: ctx, pipeline: opts.Pipeline, logger: opts.Logger}
	var err error
	switch opts.Pipeline {
	case PipelineMinimal:
		err = runMinimal(x, g)
	default:
		err = runLayered(x, g)
	}

	elapsed := time.Since(start)
	hooks.OnLayoutComplete(ctx, opts.Pipeline, elapsed, err)
	if err != nil {
		return err
	}
	opts.Logger.Debug("layout done",
		"pipeline", opts.Pipeline,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"elapsed", elapsed)
	return nil
}

// Layered lays g out with the full layered pipeline.
func Layered(g *layout.Graph) {
	_ = runLayered(background(PipelineLayered), g)
}

// Minimal lays g out with the minimal pipeline.
func Minimal(g *layout.Graph) {
	_ = runMinimal(background(PipelineMinimal), g)
}

func background(pipeline string) *executor {
	return &executor{
		ctx:      context.Background(),
		pipeline: pipeline,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
}
