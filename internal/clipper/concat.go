package clipper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Concat joins clips into a single reel. Stream copy is tried first;
// mixed-parameter inputs fall back to a re-encode.
func (e *Engine) Concat(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return &EngineError{Op: "concat", Err: fmt.Errorf("no clips to concatenate")}
	}
	if !e.ensureReady() {
		return &EngineError{Op: "concat", Err: fmt.Errorf("engine unavailable")}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return &EngineError{Op: "concat", Err: err}
	}

	listFile, err := writeConcatList(clipPaths)
	if err != nil {
		return &EngineError{Op: "concat", Err: err}
	}
	defer os.Remove(listFile)

	if err := e.runConcat(ctx, listFile, outputPath, true); err != nil {
		e.logger.Warn().Err(err).Msg("stream-copy concat failed, retrying with re-encode")
		return e.runConcat(ctx, listFile, outputPath, false)
	}
	return nil
}

func (e *Engine) runConcat(ctx context.Context, listFile, outputPath string, streamCopy bool) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	if streamCopy {
		args = append(args, "-c", "copy")
	} else {
		args = append(args,
			"-c:v", "libx264",
			"-preset", "veryfast",
			"-crf", "23",
			"-c:a", "aac",
		)
	}
	args = append(args, outputPath)

	return e.run(ctx, "concat", args)
}

func writeConcatList(clipPaths []string) (string, error) {
	f, err := os.CreateTemp("", "replaycut-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			os.Remove(f.Name())
			return "", err
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", abs); err != nil {
			os.Remove(f.Name())
			return "", err
		}
	}
	return f.Name(), nil
}
