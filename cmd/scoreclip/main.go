package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kdimtricp/replaycut/internal/clipper"
	"github.com/kdimtricp/replaycut/internal/config"
	"github.com/kdimtricp/replaycut/internal/logging"
	"github.com/kdimtricp/replaycut/internal/scoresheet"
)

// manifest describes one scoreclip run for downstream tooling.
type manifest struct {
	VideoPath     string         `json:"video_path"`
	VideoDuration float64        `json:"video_duration"`
	NumEvents     int            `json:"num_events"`
	NumClips      int            `json:"num_clips"`
	Clips         []manifestClip `json:"clips"`
	Reel          *string        `json:"reel"`
}

type manifestClip struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Path  string  `json:"path"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		videoPath      = flag.String("video", "", "Path to the video file")
		scoresheetPath = flag.String("scoresheet", "", "Path to the JSONL scoresheet")
		outDir         = flag.String("out", "", "Output directory (default: outputs)")
		configPath     = flag.String("config", "", "Path to a scoreclip YAML config file")
		pre            = flag.Float64("pre", -1, "Seconds before each event (default: 6.0)")
		post           = flag.Float64("post", -1, "Seconds after each event (default: 4.0)")
		mergeGap       = flag.Float64("merge-gap", -1, "Merge gap in seconds (default: 2.0)")
		minClip        = flag.Float64("min-clip", -1, "Minimum clip duration in seconds (default: 2.0)")
		maxClip        = flag.Float64("max-clip", -1, "Maximum clip duration in seconds (default: 30.0)")
		makeReel       = flag.String("make-reel", "", "Create highlight reel: true or false (default: true)")
		samplePath     = flag.String("make-sample-scoresheet", "", "Generate a sample scoresheet at PATH and exit")
		sampleDuration = flag.Float64("duration", 600.0, "Duration for sample scoresheet (default: 600)")
		sampleCount    = flag.Int("n", 12, "Number of events for sample scoresheet (default: 12)")
		verbose        = flag.Bool("v", false, "Enable verbose logging")
	)
	flag.Parse()

	logging.Init(*verbose)
	logger := logging.WithComponent("scoreclip")

	if *samplePath != "" {
		if err := scoresheet.WriteSample(*samplePath, *sampleDuration, *sampleCount); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Generated sample scoresheet with %d events: %s\n", *sampleCount, *samplePath)
		return 0
	}

	if *videoPath == "" || *scoresheetPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -video and -scoresheet are required")
		flag.Usage()
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Flags override the config file where set.
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *pre >= 0 {
		cfg.Clip.PreSeconds = *pre
	}
	if *post >= 0 {
		cfg.Clip.PostSeconds = *post
	}
	if *mergeGap >= 0 {
		cfg.Clip.MergeGapSeconds = *mergeGap
	}
	if *minClip >= 0 {
		cfg.Clip.MinClipSeconds = *minClip
	}
	if *maxClip >= 0 {
		cfg.Clip.MaxClipSeconds = *maxClip
	}
	switch *makeReel {
	case "true", "1", "yes", "on":
		cfg.MakeReel = true
	case "false", "0", "no", "off":
		cfg.MakeReel = false
	case "":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid -make-reel value %q\n", *makeReel)
		return 1
	}

	m, err := generateHighlights(context.Background(), *videoPath, *scoresheetPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
		return 1
	}
	fmt.Printf("\nManifest saved to: %s\n", manifestPath)

	logger.Info().
		Int("events", m.NumEvents).
		Int("clips", m.NumClips).
		Bool("reel", m.Reel != nil).
		Msg("highlight generation complete")
	return 0
}

func generateHighlights(ctx context.Context, videoPath, scoresheetPath string, cfg *config.Config) (*manifest, error) {
	logger := logging.WithComponent("scoreclip")

	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video not found: %s", videoPath)
	}

	timestamps, err := scoresheet.ParseFile(scoresheetPath, logger)
	if err != nil {
		return nil, err
	}
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no valid scoring events found in scoresheet")
	}
	logger.Info().Int("events", len(timestamps)).Msg("parsed scoresheet")

	engine := clipper.Shared(logger)
	duration, err := engine.Duration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	windows := clipper.ProcessWindows(timestamps, duration, clipper.WindowOptions{
		PreSeconds:      cfg.Clip.PreSeconds,
		PostSeconds:     cfg.Clip.PostSeconds,
		MergeGapSeconds: cfg.Clip.MergeGapSeconds,
		MinClipSeconds:  cfg.Clip.MinClipSeconds,
		MaxClipSeconds:  cfg.Clip.MaxClipSeconds,
	})
	if len(windows) == 0 {
		return nil, fmt.Errorf("no valid clips after window processing")
	}

	clipsDir := filepath.Join(cfg.OutputDir, "clips")
	if err := os.MkdirAll(clipsDir, 0755); err != nil {
		return nil, err
	}

	clips := make([]manifestClip, 0, len(windows))
	clipPaths := make([]string, 0, len(windows))
	for i, w := range windows {
		name := fmt.Sprintf("clip_%04d_%d_%d.mp4", i+1, int(w.Start*1000), int(w.End*1000))
		outPath := filepath.Join(clipsDir, name)

		logger.Info().
			Int("clip", i+1).
			Int("total", len(windows)).
			Float64("start", w.Start).
			Float64("end", w.End).
			Msg("cutting clip")

		// Re-encode for frame-accurate boundaries; these clips feed the reel.
		if err := engine.CutClip(ctx, videoPath, w.Start, w.Duration(), outPath, false); err != nil {
			return nil, err
		}

		clips = append(clips, manifestClip{
			Start: w.Start,
			End:   w.End,
			Path:  filepath.Join("clips", name),
		})
		clipPaths = append(clipPaths, outPath)
	}

	var reel *string
	if cfg.MakeReel && len(clipPaths) > 0 {
		reelDir := filepath.Join(cfg.OutputDir, "reel")
		if err := os.MkdirAll(reelDir, 0755); err != nil {
			return nil, err
		}
		reelPath := filepath.Join(reelDir, "highlights.mp4")
		if err := engine.Concat(ctx, clipPaths, reelPath); err != nil {
			return nil, err
		}
		rel := filepath.Join("reel", "highlights.mp4")
		reel = &rel
		logger.Info().Str("path", rel).Msg("reel created")
	}

	return &manifest{
		VideoPath:     videoPath,
		VideoDuration: duration,
		NumEvents:     len(timestamps),
		NumClips:      len(clips),
		Clips:         clips,
		Reel:          reel,
	}, nil
}
