package clipper

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kdimtricp/replaycut/internal/models"
)

const (
	// DefaultLeadInSeconds starts each clip slightly before the event.
	DefaultLeadInSeconds = 5.0
	// DefaultClipSeconds is the fixed output duration per highlight.
	DefaultClipSeconds = 10.0
)

// ProgressFunc receives batch completion as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// GenerateClips attaches a clip to each highlight in result, mutating the
// highlights in place. Per-clip failures are logged and leave that highlight
// without clip data; the batch always runs to completion. When the engine is
// unavailable the result is returned untouched and no error is raised.
func (e *Engine) GenerateClips(ctx context.Context, videoPath string, result *models.AnalysisResult, progress ProgressFunc) error {
	if result == nil || len(result.Highlights) == 0 {
		return nil
	}
	if !e.ensureReady() {
		e.logger.Info().Msg("clip engine unavailable, skipping clip generation")
		return nil
	}

	batchDir := filepath.Join(e.workDir, uuid.New().String())
	if err := os.MkdirAll(batchDir, 0755); err != nil {
		e.logger.Warn().Err(err).Msg("cannot create batch workspace, skipping clip generation")
		return nil
	}
	// Input bytes and per-clip outputs are transient; purge them so memory
	// and disk stay bounded across repeated analyses in one session.
	defer os.RemoveAll(batchDir)

	ext := outputExtension(videoPath)

	// Stage the source once per batch, not per clip.
	staged := filepath.Join(batchDir, "input"+ext)
	if err := copyFile(videoPath, staged); err != nil {
		e.logger.Warn().Err(err).Msg("cannot stage source, skipping clip generation")
		return nil
	}

	total := len(result.Highlights)
	e.logger.Info().Int("clips", total).Str("video", videoPath).Msg("generating highlight clips")

	for i := range result.Highlights {
		if err := ctx.Err(); err != nil {
			return err
		}

		h := &result.Highlights[i]
		start := clipStart(h.TimestampSeconds)

		outName := fmt.Sprintf("clip_%03d%s", i, ext)
		outPath := filepath.Join(batchDir, outName)

		if err := e.CutClip(ctx, staged, start, DefaultClipSeconds, outPath, true); err != nil {
			e.logger.Warn().Err(err).Int("clip", i).Float64("start", start).Msg("clip extraction failed, continuing")
			reportProgress(progress, i+1, total)
			continue
		}

		data, err := os.ReadFile(outPath)
		if err != nil || len(data) == 0 {
			e.logger.Warn().Err(err).Int("clip", i).Msg("clip read-back failed, continuing")
			reportProgress(progress, i+1, total)
			continue
		}

		h.ClipData = data
		h.ClipName = fmt.Sprintf("highlight_%s%s", strings.ReplaceAll(h.DisplayTime, ":", "-"), ext)
		reportProgress(progress, i+1, total)
	}

	return nil
}

// clipStart applies the lead-in, clamped so clips never start before zero.
func clipStart(timestamp float64) float64 {
	start := timestamp - DefaultLeadInSeconds
	if start < 0 {
		return 0
	}
	return start
}

func reportProgress(progress ProgressFunc, done, total int) {
	if progress != nil {
		progress(float64(done) / float64(total) * 100)
	}
}

// outputExtension keeps the source container extension, which stream-copy
// cutting requires; audio-only inputs keep their audio extension the same
// way. A missing extension defaults to .mp4.
func outputExtension(videoPath string) string {
	ext := strings.ToLower(filepath.Ext(videoPath))
	if ext == "" {
		return ".mp4"
	}
	return ext
}

// IsAudioOnly reports whether the source is an audio container, detected via
// mime type or file extension.
func IsAudioOnly(path, mimeType string) bool {
	if strings.HasPrefix(mimeType, "audio/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac":
		return true
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return err
	}
	return out.Close()
}
