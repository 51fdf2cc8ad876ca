package clipper

import "sort"

// Window is a [Start, End) cut range in seconds.
type Window struct {
	Start float64
	End   float64
}

func (w Window) Duration() float64 { return w.End - w.Start }

// WindowOptions controls how event timestamps become cut windows.
type WindowOptions struct {
	PreSeconds      float64
	PostSeconds     float64
	MergeGapSeconds float64
	MinClipSeconds  float64
	MaxClipSeconds  float64
}

// DefaultWindowOptions mirrors the defaults of the scoresheet CLI.
func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		PreSeconds:      6.0,
		PostSeconds:     4.0,
		MergeGapSeconds: 2.0,
		MinClipSeconds:  2.0,
		MaxClipSeconds:  30.0,
	}
}

// CreateWindows builds a [t-pre, t+post] window around each timestamp.
func CreateWindows(timestamps []float64, pre, post float64) []Window {
	windows := make([]Window, 0, len(timestamps))
	for _, t := range timestamps {
		windows = append(windows, Window{Start: t - pre, End: t + post})
	}
	return windows
}

// ClampWindows restricts windows to [0, duration], dropping any that collapse.
func ClampWindows(windows []Window, duration float64) []Window {
	clamped := make([]Window, 0, len(windows))
	for _, w := range windows {
		start := w.Start
		if start < 0 {
			start = 0
		}
		end := w.End
		if end > duration {
			end = duration
		}
		if start < end {
			clamped = append(clamped, Window{Start: start, End: end})
		}
	}
	return clamped
}

// FilterShortWindows drops windows shorter than min seconds.
func FilterShortWindows(windows []Window, min float64) []Window {
	filtered := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Duration() >= min {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// MergeWindows merges windows whose start falls within gap seconds of the
// previous window's end.
func MergeWindows(windows []Window, gap float64) []Window {
	if len(windows) == 0 {
		return nil
	}

	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []Window{sorted[0]}
	for _, w := range sorted[1:] {
		last := &merged[len(merged)-1]
		if w.Start <= last.End+gap {
			if w.End > last.End {
				last.End = w.End
			}
		} else {
			merged = append(merged, w)
		}
	}
	return merged
}

// CapWindows trims windows exceeding max seconds evenly around the midpoint.
func CapWindows(windows []Window, max float64) []Window {
	capped := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Duration() > max {
			mid := (w.Start + w.End) / 2
			capped = append(capped, Window{Start: mid - max/2, End: mid + max/2})
		} else {
			capped = append(capped, w)
		}
	}
	return capped
}

// ProcessWindows runs the full chain: create, clamp, filter, merge, cap.
func ProcessWindows(timestamps []float64, duration float64, opts WindowOptions) []Window {
	windows := CreateWindows(timestamps, opts.PreSeconds, opts.PostSeconds)
	windows = ClampWindows(windows, duration)
	windows = FilterShortWindows(windows, opts.MinClipSeconds)
	windows = MergeWindows(windows, opts.MergeGapSeconds)
	windows = CapWindows(windows, opts.MaxClipSeconds)
	return windows
}
