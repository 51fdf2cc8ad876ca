package models

import "fmt"

// Intensity levels reported by the analysis service.
const (
	IntensityHigh   = "High"
	IntensityMedium = "Medium"
	IntensityLow    = "Low"
)

// UnknownJersey is the literal the analysis service returns when no jersey
// number is visible for a scoring event.
const UnknownJersey = "Unknown"

// Highlight is one detected scoring event. Clip fields are attached by the
// clip engine after analysis; a highlight without them is still valid.
type Highlight struct {
	TimestampSeconds   float64 `json:"timestampSeconds"`
	DisplayTime        string  `json:"displayTime"`
	Description        string  `json:"description"`
	ScoreType          string  `json:"scoreType"`
	Intensity          string  `json:"intensity"`
	PlayerJerseyNumber string  `json:"playerJerseyNumber"`
	ClipName           string  `json:"clipName,omitempty"`
	ClipData           []byte  `json:"-"`
}

// HasClip reports whether the clip engine produced a clip for this event.
func (h *Highlight) HasClip() bool {
	return len(h.ClipData) > 0
}

type AnalysisResult struct {
	Highlights []Highlight `json:"highlights"`
	Summary    string      `json:"summary"`
}

// Clone returns a deep copy so cached results are never mutated by a later
// clipping pass.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := &AnalysisResult{
		Highlights: make([]Highlight, len(r.Highlights)),
		Summary:    r.Summary,
	}
	copy(out.Highlights, r.Highlights)
	for i := range out.Highlights {
		if len(out.Highlights[i].ClipData) > 0 {
			out.Highlights[i].ClipData = append([]byte(nil), out.Highlights[i].ClipData...)
		}
	}
	return out
}

// FormatDisplayTime renders a timestamp as MM:SS.
func FormatDisplayTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
