package models

import "testing"

func TestCloneDeepCopiesClipData(t *testing.T) {
	original := &AnalysisResult{
		Highlights: []Highlight{
			{TimestampSeconds: 45.3, Description: "Goal", ClipData: []byte("clip-bytes")},
		},
		Summary: "One goal.",
	}

	clone := original.Clone()
	clone.Highlights[0].ClipData[0] = 'X'
	clone.Highlights[0].Description = "changed"

	if string(original.Highlights[0].ClipData) != "clip-bytes" {
		t.Errorf("mutating the clone's clip bytes changed the original: %q",
			original.Highlights[0].ClipData)
	}
	if original.Highlights[0].Description != "Goal" {
		t.Errorf("mutating the clone changed the original: %q", original.Highlights[0].Description)
	}
}

func TestCloneNil(t *testing.T) {
	var r *AnalysisResult
	if r.Clone() != nil {
		t.Error("cloning a nil result must return nil")
	}
}

func TestFormatDisplayTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{75.0, "01:15"},
		{599.9, "09:59"},
		{-3, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatDisplayTime(tt.seconds); got != tt.want {
			t.Errorf("FormatDisplayTime(%f): expected %q, got %q", tt.seconds, tt.want, got)
		}
	}
}
