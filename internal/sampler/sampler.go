package sampler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultFrameCount is the number of frames sampled per video. Fixed so
	// payloads to the analysis service stay bounded regardless of duration.
	DefaultFrameCount = 100

	// MaxFrameWidth caps the output frame width; height follows the source
	// aspect ratio.
	MaxFrameWidth = 854

	// jpegQuality trades fidelity against payload size.
	jpegQuality = 60
)

// Frame is one timestamped JPEG snapshot of the source video.
type Frame struct {
	TimestampSeconds float64
	JPEG             []byte
}

// ProgressFunc receives the number of completed ticks after each frame.
type ProgressFunc func(done, total int)

// Error is returned when a video cannot be sampled at all: unreadable
// container, unusable duration, or a failed seek on any tick. A single seek
// failure fails the whole operation, since a gap would desynchronize the
// timestamp sequence handed to the analysis service.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sampling %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("sampling %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

type Sampler struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	logger      zerolog.Logger
}

func New(logger zerolog.Logger) (*Sampler, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	tempDir := filepath.Join(os.TempDir(), "replaycut-frames")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Sampler{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
		logger:      logger.With().Str("component", "sampler").Logger(),
	}, nil
}

// Ticks returns count evenly spaced timestamps i*(duration/count) for
// i in [0, count). Durations shorter than the tick count still yield count
// ticks; they simply cluster.
func Ticks(duration float64, count int) []float64 {
	ticks := make([]float64, 0, count)
	interval := duration / float64(count)
	for i := 0; i < count; i++ {
		ticks = append(ticks, float64(i)*interval)
	}
	return ticks
}

// Sample extracts exactly count evenly spaced frames from the video. The
// per-run scratch directory is removed whether sampling succeeds or fails.
func (s *Sampler) Sample(ctx context.Context, videoPath string, count int, progress ProgressFunc) ([]Frame, error) {
	if count <= 0 {
		return nil, &Error{Reason: "invalid frame count"}
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, &Error{Reason: "source not accessible", Err: err}
	}

	duration, err := s.Duration(ctx, videoPath)
	if err != nil {
		return nil, &Error{Reason: "duration unavailable", Err: err}
	}
	if duration <= 0 {
		return nil, &Error{Reason: fmt.Sprintf("invalid duration %f", duration)}
	}

	runDir := filepath.Join(s.tempDir, uuid.New().String())
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, &Error{Reason: "scratch directory", Err: err}
	}
	defer os.RemoveAll(runDir)

	s.logger.Info().
		Str("video", videoPath).
		Float64("duration", duration).
		Int("frames", count).
		Msg("sampling frames")

	ticks := Ticks(duration, count)
	frames := make([]Frame, 0, count)
	for i, timestamp := range ticks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := s.extractFrame(ctx, videoPath, runDir, timestamp)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("frame %d at %.2fs", i, timestamp), Err: err}
		}
		frames = append(frames, Frame{TimestampSeconds: timestamp, JPEG: data})

		if progress != nil {
			progress(i+1, count)
		}
	}

	s.logger.Info().Int("frames", len(frames)).Msg("sampling complete")
	return frames, nil
}

// Duration probes the container duration in seconds, preferring ffprobe and
// falling back to parsing ffmpeg's banner output.
func (s *Sampler) Duration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err == nil {
		durationStr := strings.TrimSpace(stdout.String())
		if duration, err := strconv.ParseFloat(durationStr, 64); err == nil && duration > 0 {
			return duration, nil
		}
	}

	cmd = exec.CommandContext(ctx, s.ffmpegPath, "-i", videoPath, "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	return parseBannerDuration(stderr.String())
}

func parseBannerDuration(output string) (float64, error) {
	const durationPrefix = "Duration: "
	startIndex := strings.Index(output, durationPrefix)
	if startIndex == -1 {
		return 0, fmt.Errorf("duration not found in ffmpeg output")
	}

	startIndex += len(durationPrefix)
	endIndex := strings.Index(output[startIndex:], ",")
	if endIndex == -1 {
		return 0, fmt.Errorf("invalid duration format")
	}

	parts := strings.Split(output[startIndex:startIndex+endIndex], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration format: %s", output[startIndex:startIndex+endIndex])
	}

	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}

	return hours*3600 + minutes*60 + seconds, nil
}

func (s *Sampler) extractFrame(ctx context.Context, videoPath, runDir string, timestamp float64) ([]byte, error) {
	tempFile := filepath.Join(runDir, fmt.Sprintf("frame_%.3f.jpg", timestamp))
	defer os.Remove(tempFile)

	args := []string{
		"-ss", fmt.Sprintf("%.3f", timestamp),
		"-i", videoPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':-2", MaxFrameWidth),
		"-q:v", "2",
		"-f", "mjpeg",
		"-y",
		tempFile,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Debug().Str("stderr", stderr.String()).Msg("ffmpeg frame extraction failed")
		return nil, fmt.Errorf("failed to extract frame at %.3fs: %w", timestamp, err)
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return buf.Bytes(), nil
}

// Cleanup removes the sampler's scratch directory.
func (s *Sampler) Cleanup() error {
	return os.RemoveAll(s.tempDir)
}
