package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/strata/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// stageSpinner animates a status line while a layout or a render runs.
// Installed as the pipeline hooks (see track), it also names the last
// finished pipeline stage: "Laying out · order (10)".
type stageSpinner struct {
	w io.Writer

	mu      sync.Mutex
	next    observability.PipelineHooks
	message string
	stage   string
	stages  int
	frame   int
	width   int

	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// startSpinner draws the first frame of message on w and animates it until
// Stop is called or ctx is done.
func startSpinner(ctx context.Context, w io.Writer, message string) *stageSpinner {
	s := &stageSpinner{
		w:       w,
		next:    observability.NoopPipelineHooks{},
		message: message,
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.draw()
	go s.loop(ctx)
	return s
}

func (s *stageSpinner) loop(ctx context.Context) {
	defer close(s.stopped)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-tick.C:
			s.draw()
		}
	}
}

// status is the text after the frame. Callers hold s.mu.
func (s *stageSpinner) status() string {
	if s.stage == "" {
		return s.message
	}
	return fmt.Sprintf("%s · %s (%d)", s.message, s.stage, s.stages)
}

func (s *stageSpinner) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := spinnerFrames[s.frame%len(spinnerFrames)]
	s.frame++
	line := styleAccent.Render(frame) + " " + styleFaint.Render(s.status())
	w := lipgloss.Width(line)
	fmt.Fprintf(s.w, "\r%s%s", line, strings.Repeat(" ", max(s.width-w, 0)))
	s.width = w
}

// Say replaces the message and forgets the last stage.
func (s *stageSpinner) Say(message string) {
	s.mu.Lock()
	s.message, s.stage, s.stages = message, "", 0
	s.mu.Unlock()
}

// Stop ends the animation and blanks the line. Later calls do nothing.
func (s *stageSpinner) Stop() {
	s.once.Do(func() {
		close(s.quit)
		<-s.stopped
		s.mu.Lock()
		defer s.mu.Unlock()
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	})
}

// track installs s as the pipeline hooks and forwards every event to the
// hooks that were registered before. The returned func puts those back.
func (s *stageSpinner) track() (restore func()) {
	prev := observability.Pipeline()
	s.mu.Lock()
	s.next = prev
	s.mu.Unlock()
	observability.SetPipelineHooks(s)
	return func() { observability.SetPipelineHooks(prev) }
}

func (s *stageSpinner) forward() observability.PipelineHooks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *stageSpinner) OnLayoutStart(ctx context.Context, pipeline string, nodeCount int) {
	s.mu.Lock()
	s.stage, s.stages = "", 0
	s.mu.Unlock()
	s.forward().OnLayoutStart(ctx, pipeline, nodeCount)
}

func (s *stageSpinner) OnStageComplete(ctx context.Context, pipeline, stage string, d time.Duration) {
	s.mu.Lock()
	s.stage = stage
	s.stages++
	s.mu.Unlock()
	s.forward().OnStageComplete(ctx, pipeline, stage, d)
}

func (s *stageSpinner) OnLayoutComplete(ctx context.Context, pipeline string, d time.Duration, err error) {
	s.forward().OnLayoutComplete(ctx, pipeline, d, err)
}
