package clipper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// EngineState tracks the media engine lifecycle. Unavailable is terminal for
// the process: initialization is never retried once it has failed, and clip
// requests short-circuit to "no clip produced" without raising.
type EngineState int

const (
	StateUninitialized EngineState = iota
	StateLoading
	StateReady
	StateUnavailable
)

func (s EngineState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "uninitialized"
	}
}

// Engine wraps the local ffmpeg installation used to trim sub-clips without
// re-encoding. Clipping is a best-effort enhancement: a missing or broken
// ffmpeg degrades the pipeline, it never fails it.
type Engine struct {
	mu          sync.Mutex
	state       EngineState
	ffmpegPath  string
	ffprobePath string
	workDir     string
	logger      zerolog.Logger
}

var (
	sharedOnce   sync.Once
	sharedEngine *Engine
)

// Shared returns the process-wide engine instance, constructed lazily on
// first use. All runs in a session reuse it.
func Shared(logger zerolog.Logger) *Engine {
	sharedOnce.Do(func() {
		sharedEngine = NewEngine(logger)
	})
	return sharedEngine
}

func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		state:  StateUninitialized,
		logger: logger.With().Str("component", "clipper").Logger(),
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ensureReady initializes the engine on first use and reports whether it can
// serve clip requests. A failed initialization is sticky.
func (e *Engine) ensureReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateReady:
		return true
	case StateUnavailable:
		return false
	}

	e.state = StateLoading

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		e.logger.Warn().Err(err).Msg("ffmpeg not found, clip generation disabled for this session")
		e.state = StateUnavailable
		return false
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		e.logger.Warn().Err(err).Msg("ffprobe not found, clip generation disabled for this session")
		e.state = StateUnavailable
		return false
	}

	workDir := filepath.Join(os.TempDir(), "replaycut-clips")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		e.logger.Warn().Err(err).Msg("cannot create clip workspace, clip generation disabled")
		e.state = StateUnavailable
		return false
	}

	e.ffmpegPath = ffmpegPath
	e.ffprobePath = ffprobePath
	e.workDir = workDir
	e.state = StateReady
	e.logger.Info().Str("ffmpeg", ffmpegPath).Msg("clip engine ready")
	return true
}

// Duration probes the container duration in seconds.
func (e *Engine) Duration(ctx context.Context, path string) (float64, error) {
	if !e.ensureReady() {
		return 0, &EngineError{Op: "probe", Err: fmt.Errorf("engine unavailable")}
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, &EngineError{Op: "probe", Err: fmt.Errorf("%s: %w", stderr.String(), err)}
	}

	var duration float64
	if _, err := fmt.Sscanf(stdout.String(), "%f", &duration); err != nil {
		return 0, &EngineError{Op: "probe", Err: fmt.Errorf("invalid duration output: %w", err)}
	}
	return duration, nil
}

// CutClip trims [start, start+duration) from input into output. Stream copy
// avoids re-encoding and is the mode the highlight pipeline uses; re-encode
// mode produces frame-accurate cuts for the scoresheet CLI.
func (e *Engine) CutClip(ctx context.Context, input string, start, duration float64, output string, streamCopy bool) error {
	if !e.ensureReady() {
		return &EngineError{Op: "trim", Err: fmt.Errorf("engine unavailable")}
	}
	if duration <= 0 {
		return &EngineError{Op: "trim", Err: fmt.Errorf("invalid duration %f", duration)}
	}

	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", input,
		"-t", fmt.Sprintf("%.3f", duration),
	}
	if streamCopy {
		args = append(args, "-c", "copy", "-avoid_negative_ts", "make_zero")
	} else {
		args = append(args,
			"-c:v", "libx264",
			"-preset", "veryfast",
			"-crf", "23",
			"-c:a", "aac",
			"-movflags", "+faststart",
		)
	}
	args = append(args, output)

	return e.run(ctx, "trim", args)
}

func (e *Engine) run(ctx context.Context, op string, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug().Strs("args", args).Msg("executing ffmpeg")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &EngineError{Op: op, Err: fmt.Errorf("%s: %w", lastLine(stderr.String()), err)}
	}
	return nil
}

// EngineError is a per-operation clip engine failure. It is always non-fatal
// to a highlight run: callers log it and continue.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("clip engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(lines[len(lines)-1])
}
