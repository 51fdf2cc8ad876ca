package pipeline

import (
	"math"
	"strings"

	"github.com/kdimtricp/replaycut/internal/models"
)

// ActiveWindowSeconds is the half-width of the playback window within which a
// highlight counts as active on the timeline.
const ActiveWindowSeconds = 2.0

// FilterByJersey projects highlights whose jersey number contains the query,
// case-insensitively. An empty query returns the input unchanged. The filter
// never mutates the underlying result, so repeated filter changes are cheap
// and reversible. Substring containment was chosen over exact match as the
// more forgiving policy for partial user input.
func FilterByJersey(highlights []models.Highlight, jersey string) []models.Highlight {
	if jersey == "" {
		return highlights
	}

	query := strings.ToLower(jersey)
	filtered := make([]models.Highlight, 0, len(highlights))
	for _, h := range highlights {
		if strings.Contains(strings.ToLower(h.PlayerJerseyNumber), query) {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

// IsNear reports whether a highlight is within the active window of the
// current playback position. Derived, never stored.
func IsNear(position, timestampSeconds float64) bool {
	return math.Abs(position-timestampSeconds) < ActiveWindowSeconds
}
