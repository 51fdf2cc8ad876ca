package analysis

import (
	"strings"

	"github.com/kdimtricp/replaycut/internal/models"
)

// normalizeResult repairs common model output defects in place: blank jersey
// numbers become "Unknown", display times are re-derived from the timestamp,
// intensities are folded to the three-level enum, and events with negative
// timestamps are dropped.
func normalizeResult(result *models.AnalysisResult) {
	repaired := result.Highlights[:0]
	for _, h := range result.Highlights {
		if h.TimestampSeconds < 0 {
			continue
		}

		if strings.TrimSpace(h.PlayerJerseyNumber) == "" {
			h.PlayerJerseyNumber = models.UnknownJersey
		}

		h.DisplayTime = models.FormatDisplayTime(h.TimestampSeconds)
		h.Intensity = normalizeIntensity(h.Intensity)

		repaired = append(repaired, h)
	}
	result.Highlights = repaired
}

func normalizeIntensity(intensity string) string {
	switch strings.ToLower(strings.TrimSpace(intensity)) {
	case "high":
		return models.IntensityHigh
	case "low":
		return models.IntensityLow
	default:
		return models.IntensityMedium
	}
}
