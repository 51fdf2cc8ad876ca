// Package scoresheet parses JSONL scoresheets of scoring events, the manual
// alternative to AI analysis for videos with a known score log.
package scoresheet

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
)

// DedupThresholdSeconds collapses duplicate score entries logged for the
// same play.
const DedupThresholdSeconds = 0.35

// Event is one scoresheet line. Only "score" events contribute timestamps.
type Event struct {
	T          float64  `json:"t"`
	Event      string   `json:"event"`
	Team       string   `json:"team,omitempty"`
	Points     int      `json:"points,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Parse reads a JSONL scoresheet and returns sorted, deduplicated score
// timestamps. Invalid JSON lines, non-object lines, non-score events and
// events without a numeric t are skipped with a warning, never a failure.
func Parse(r io.Reader, logger zerolog.Logger) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []Event
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			logger.Warn().Int("line", lineNum).Msg("invalid JSON, skipping")
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			logger.Warn().Int("line", lineNum).Msg("unreadable event, skipping")
			continue
		}
		if event.Event != "score" {
			continue
		}
		if tRaw, ok := raw["t"]; !ok || !isJSONNumber(tRaw) {
			logger.Warn().Int("line", lineNum).Msg("'t' is not a number, skipping")
			continue
		}

		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scoresheet: %w", err)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].T < events[j].T })
	deduplicated := deduplicate(events)

	logger.Info().
		Int("events", len(events)).
		Int("after_dedup", len(deduplicated)).
		Msg("parsed scoresheet")

	timestamps := make([]float64, 0, len(deduplicated))
	for _, e := range deduplicated {
		timestamps = append(timestamps, e.T)
	}
	return timestamps, nil
}

// ParseFile parses the scoresheet at path.
func ParseFile(path string, logger zerolog.Logger) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scoresheet not found: %w", err)
	}
	defer f.Close()
	return Parse(f, logger)
}

// deduplicate drops events within DedupThresholdSeconds of the previous kept
// event, keeping the earliest.
func deduplicate(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}

	result := []Event{events[0]}
	for _, event := range events[1:] {
		if event.T-result[len(result)-1].T > DedupThresholdSeconds {
			result = append(result, event)
		}
	}
	return result
}

func isJSONNumber(raw json.RawMessage) bool {
	var n float64
	return json.Unmarshal(raw, &n) == nil
}

// WriteSample generates a sample scoresheet with n random score events spread
// across [10, duration-10].
func WriteSample(path string, duration float64, n int) error {
	const margin = 10.0
	if duration-margin <= margin {
		return fmt.Errorf("duration too short: %.1fs (need at least %.0fs)", duration, 2*margin)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	timestamps := make([]float64, n)
	for i := range timestamps {
		timestamps[i] = margin + rand.Float64()*(duration-2*margin)
	}
	sort.Float64s(timestamps)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, t := range timestamps {
		line, err := json.Marshal(Event{T: float64(int(t*100)) / 100, Event: "score"})
		if err != nil {
			return err
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	return w.Flush()
}
