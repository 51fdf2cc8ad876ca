package scoresheet

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func parse(t *testing.T, input string) []float64 {
	t.Helper()
	timestamps, err := Parse(strings.NewReader(input), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return timestamps
}

func TestParseKeepsOnlyScoreEvents(t *testing.T) {
	input := `{"t": 12.5, "event": "score"}
{"t": 30.0, "event": "foul"}
{"t": 45.0, "event": "score", "team": "home", "points": 3}
`
	got := parse(t, input)
	want := []float64{12.5, 45.0}
	if len(got) != len(want) {
		t.Fatalf("expected %d timestamps, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("timestamp %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestParseSkipsBadLines(t *testing.T) {
	input := `{"t": 10.0, "event": "score"}
not json at all
[1, 2, 3]
{"t": "twelve", "event": "score"}
{"event": "score"}

{"t": 20.0, "event": "score"}
`
	got := parse(t, input)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid timestamps, got %d: %v", len(got), got)
	}
	if got[0] != 10.0 || got[1] != 20.0 {
		t.Errorf("expected [10 20], got %v", got)
	}
}

func TestParseSortsTimestamps(t *testing.T) {
	input := `{"t": 90.0, "event": "score"}
{"t": 15.0, "event": "score"}
{"t": 42.0, "event": "score"}
`
	got := parse(t, input)
	want := []float64{15.0, 42.0, 90.0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted %v, got %v", want, got)
		}
	}
}

func TestParseDeduplicatesWithinThreshold(t *testing.T) {
	input := `{"t": 10.0, "event": "score"}
{"t": 10.2, "event": "score"}
{"t": 10.4, "event": "score"}
{"t": 11.0, "event": "score"}
`
	// 10.2 is within 0.35s of the kept 10.0 and dropped. 10.4 is compared
	// against 10.0 as well, clears the threshold and survives.
	got := parse(t, input)
	want := []float64{10.0, 10.4, 11.0}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	got := parse(t, "")
	if len(got) != 0 {
		t.Errorf("expected no timestamps, got %v", got)
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.jsonl")
	if err := WriteSample(path, 600, 12); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open sample: %v", err)
	}
	defer f.Close()

	var count int
	var prev float64 = -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("invalid sample line: %v", err)
		}
		if event.Event != "score" {
			t.Errorf("expected score event, got %q", event.Event)
		}
		if event.T < 10 || event.T > 590 {
			t.Errorf("timestamp %f outside margins", event.T)
		}
		if event.T < prev {
			t.Error("sample timestamps not sorted")
		}
		prev = event.T
		count++
	}
	if count != 12 {
		t.Errorf("expected 12 events, got %d", count)
	}
}

func TestWriteSampleDurationTooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.jsonl")
	if err := WriteSample(path, 15, 5); err == nil {
		t.Error("expected error for too-short duration")
	}
}
