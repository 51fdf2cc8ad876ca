package pipeline

import (
	"testing"

	"github.com/kdimtricp/replaycut/internal/models"
)

func sampleHighlights() []models.Highlight {
	return []models.Highlight{
		{TimestampSeconds: 10, PlayerJerseyNumber: "7", Description: "First goal"},
		{TimestampSeconds: 50, PlayerJerseyNumber: "23", Description: "Second goal"},
		{TimestampSeconds: 80, PlayerJerseyNumber: models.UnknownJersey, Description: "Scramble"},
	}
}

func TestFilterByJerseyIdentity(t *testing.T) {
	highlights := sampleHighlights()
	got := FilterByJersey(highlights, "")

	if len(got) != len(highlights) {
		t.Fatalf("empty filter must return all %d highlights, got %d", len(highlights), len(got))
	}
	for i := range highlights {
		if got[i].Description != highlights[i].Description {
			t.Errorf("order not preserved at %d", i)
		}
	}
}

func TestFilterByJerseySubstring(t *testing.T) {
	tests := []struct {
		name   string
		jersey string
		want   []string
	}{
		{"exact single digit", "7", []string{"First goal"}},
		{"substring of two digits", "2", []string{"Second goal"}},
		{"full number", "23", []string{"Second goal"}},
		{"case-insensitive unknown", "unknown", []string{"Scramble"}},
		{"no match", "99", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByJersey(sampleHighlights(), tt.jersey)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d highlights, got %d", len(tt.want), len(got))
			}
			for i, desc := range tt.want {
				if got[i].Description != desc {
					t.Errorf("expected %q at %d, got %q", desc, i, got[i].Description)
				}
			}
		})
	}
}

func TestFilterByJerseyDoesNotMutate(t *testing.T) {
	highlights := sampleHighlights()
	FilterByJersey(highlights, "7")
	FilterByJersey(highlights, "23")

	if len(highlights) != 3 {
		t.Fatalf("filter mutated input length: %d", len(highlights))
	}
	if highlights[0].PlayerJerseyNumber != "7" || highlights[1].PlayerJerseyNumber != "23" {
		t.Error("filter mutated input contents")
	}
}

func TestIsNear(t *testing.T) {
	tests := []struct {
		position  float64
		timestamp float64
		want      bool
	}{
		{45.3, 45.3, true},
		{44.0, 45.3, true},
		{47.2, 45.3, true},
		{47.5, 45.3, false},
		{43.2, 45.3, false},
		{0, 45.3, false},
	}

	for _, tt := range tests {
		if got := IsNear(tt.position, tt.timestamp); got != tt.want {
			t.Errorf("IsNear(%f, %f): expected %v, got %v", tt.position, tt.timestamp, tt.want, got)
		}
	}
}
