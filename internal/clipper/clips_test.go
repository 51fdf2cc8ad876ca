package clipper

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/replaycut/internal/models"
)

func TestGenerateClipsUnavailableEngine(t *testing.T) {
	engine := &Engine{state: StateUnavailable, logger: zerolog.Nop()}

	result := &models.AnalysisResult{
		Highlights: []models.Highlight{
			{TimestampSeconds: 45.3, DisplayTime: "00:45", Description: "Goal"},
			{TimestampSeconds: 90.0, DisplayTime: "01:30", Description: "Goal"},
		},
		Summary: "Two goals.",
	}

	err := engine.GenerateClips(context.Background(), "game.mp4", result, nil)
	if err != nil {
		t.Fatalf("unavailable engine must not raise, got %v", err)
	}

	for i, h := range result.Highlights {
		if h.HasClip() || h.ClipName != "" {
			t.Errorf("highlight %d gained clip data from an unavailable engine", i)
		}
	}
	if engine.State() != StateUnavailable {
		t.Errorf("unavailable state must be sticky, got %s", engine.State())
	}
}

func TestGenerateClipsEmptyResult(t *testing.T) {
	engine := &Engine{state: StateUnavailable, logger: zerolog.Nop()}
	if err := engine.GenerateClips(context.Background(), "game.mp4", nil, nil); err != nil {
		t.Fatalf("nil result must be a no-op, got %v", err)
	}
}

func TestClipStart(t *testing.T) {
	tests := []struct {
		timestamp float64
		want      float64
	}{
		{45.3, 40.3},
		{5.0, 0.0},
		{2.0, 0.0},
		{0.0, 0.0},
	}

	for _, tt := range tests {
		if got := clipStart(tt.timestamp); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("clipStart(%f): expected %f, got %f", tt.timestamp, tt.want, got)
		}
	}
}

func TestOutputExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"game.mp4", ".mp4"},
		{"game.MKV", ".mkv"},
		{"radio.mp3", ".mp3"},
		{"noext", ".mp4"},
	}

	for _, tt := range tests {
		if got := outputExtension(tt.path); got != tt.want {
			t.Errorf("outputExtension(%q): expected %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestReportProgress(t *testing.T) {
	var got []float64
	progress := func(p float64) { got = append(got, p) }

	for i := 1; i <= 4; i++ {
		reportProgress(progress, i, 4)
	}

	want := []float64{25, 50, 75, 100}
	if len(got) != len(want) {
		t.Fatalf("expected %d progress reports, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("report %d: expected %f, got %f", i, want[i], got[i])
		}
	}

	// nil callback must be safe
	reportProgress(nil, 1, 4)
}
