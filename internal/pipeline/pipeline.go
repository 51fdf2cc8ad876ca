package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/replaycut/internal/clipper"
	"github.com/kdimtricp/replaycut/internal/models"
	"github.com/kdimtricp/replaycut/internal/sampler"
	"github.com/kdimtricp/replaycut/internal/store"
)

// State is the lifecycle of one analysis run. Error is reachable from
// Sampling and Analyzing; Clipping always proceeds to Completed because clip
// failures are per-highlight and non-fatal.
type State string

const (
	StateIdle      State = "idle"
	StateSampling  State = "sampling"
	StateAnalyzing State = "analyzing"
	StateClipping  State = "clipping"
	StateCompleted State = "completed"
	StateError     State = "error"
)

// FrameSampler extracts evenly spaced frames from a video file.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath string, count int, progress sampler.ProgressFunc) ([]sampler.Frame, error)
}

// Analyzer turns sampled frames into a validated analysis result.
type Analyzer interface {
	AnalyzeFrames(ctx context.Context, frames []sampler.Frame) (*models.AnalysisResult, error)
}

// ClipEngine attaches clips to highlights, best-effort.
type ClipEngine interface {
	GenerateClips(ctx context.Context, videoPath string, result *models.AnalysisResult, progress clipper.ProgressFunc) error
}

// History is the bounded result cache keyed by file identity.
type History interface {
	Get(ctx context.Context, identity string) (*models.AnalysisResult, error)
	Put(ctx context.Context, entry store.HistoryEntry) error
}

type Pipeline struct {
	sampler    FrameSampler
	analyzer   Analyzer
	engine     ClipEngine
	history    History
	frameCount int
	logger     zerolog.Logger
}

func New(frameSampler FrameSampler, analyzer Analyzer, engine ClipEngine, history History, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		sampler:    frameSampler,
		analyzer:   analyzer,
		engine:     engine,
		history:    history,
		frameCount: sampler.DefaultFrameCount,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// NewWithFrameCount overrides the number of frames sampled per video.
func NewWithFrameCount(frameSampler FrameSampler, analyzer Analyzer, engine ClipEngine, history History, frameCount int, logger zerolog.Logger) *Pipeline {
	p := New(frameSampler, analyzer, engine, history, logger)
	if frameCount > 0 {
		p.frameCount = frameCount
	}
	return p
}

// Run tracks one analysis from start to completion. Stage progress and state
// are safe to poll from another goroutine while the run executes.
type Run struct {
	mu       sync.Mutex
	state    State
	progress float64
	err      error
	warning  string
	result   *models.AnalysisResult
	cacheHit bool
}

func newRun() *Run {
	return &Run{state: StateIdle}
}

func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Progress is the fractional progress of the current stage in [0, 1].
func (r *Run) Progress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Warning is a non-fatal problem the user should see, such as a failed
// history write. Empty when the run had none.
func (r *Run) Warning() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warning
}

// Result is nil until the run completes.
func (r *Run) Result() *models.AnalysisResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateCompleted {
		return nil
	}
	return r.result
}

// CacheHit reports whether the run reused a cached analysis.
func (r *Run) CacheHit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cacheHit
}

func (r *Run) setState(state State) {
	r.mu.Lock()
	r.state = state
	r.progress = 0
	r.mu.Unlock()
}

func (r *Run) setProgress(p float64) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
}

func (r *Run) setWarning(msg string) {
	r.mu.Lock()
	r.warning = msg
	r.mu.Unlock()
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	r.state = StateError
	r.err = err
	r.mu.Unlock()
}

// Analyze executes the full sample, analyze, clip sequence for a video.
// A cache hit on the file identity skips straight to clipping, reusing the
// stored highlights and summary verbatim. The stages run strictly in
// sequence; cancelling ctx abandons the run.
func (p *Pipeline) Analyze(ctx context.Context, run *Run, video *models.Video, videoPath string) (*models.AnalysisResult, error) {
	identity := video.Identity()
	logger := p.logger.With().Str("video", video.ID).Logger()

	result, err := p.history.Get(ctx, identity)
	if err != nil {
		// A broken cache read degrades to a fresh analysis.
		logger.Warn().Err(err).Msg("history lookup failed, reanalyzing")
		result = nil
	}

	if result != nil {
		logger.Info().Str("identity", identity).Msg("cache hit, skipping sampling and analysis")
		run.mu.Lock()
		run.cacheHit = true
		run.mu.Unlock()
		// Clips are not persisted, so a cached result still needs a fresh
		// clipping pass over its own copy.
		result = result.Clone()
	} else {
		run.setState(StateSampling)
		frames, err := p.sampler.Sample(ctx, videoPath, p.frameCount, func(done, total int) {
			run.setProgress(float64(done) / float64(total))
		})
		if err != nil {
			run.fail(err)
			return nil, err
		}

		run.setState(StateAnalyzing)
		result, err = p.analyzer.AnalyzeFrames(ctx, frames)
		if err != nil {
			run.fail(err)
			return nil, err
		}

		if err := p.history.Put(ctx, store.HistoryEntry{
			Identity:  identity,
			FileName:  video.OriginalName,
			CreatedAt: time.Now(),
			Result:    *result,
		}); err != nil {
			// Storage failure is user-visible but never discards the
			// in-memory result.
			logger.Warn().Err(err).Msg("failed to cache analysis result")
			run.setWarning(fmt.Sprintf("analysis could not be saved to history: %v", err))
		}
	}

	run.setState(StateClipping)
	if err := p.engine.GenerateClips(ctx, videoPath, result, func(percent float64) {
		run.setProgress(percent / 100)
	}); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			run.fail(err)
			return nil, err
		}
		// Batch-level engine trouble is still non-fatal: highlights simply
		// keep no clip data.
		logger.Warn().Err(err).Msg("clip generation incomplete")
	}

	run.mu.Lock()
	run.result = result
	run.state = StateCompleted
	run.progress = 1
	run.mu.Unlock()

	logger.Info().Int("highlights", len(result.Highlights)).Msg("analysis run completed")
	return result, nil
}

// Start launches Analyze on its own goroutine and returns the Run handle for
// polling. The caller owns ctx; cancelling it abandons the run.
func (p *Pipeline) Start(ctx context.Context, video *models.Video, videoPath string) *Run {
	run := newRun()
	go func() {
		_, _ = p.Analyze(ctx, run, video, videoPath)
	}()
	return run
}
