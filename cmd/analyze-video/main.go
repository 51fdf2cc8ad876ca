package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kdimtricp/replaycut/internal/analysis"
	"github.com/kdimtricp/replaycut/internal/logging"
	"github.com/kdimtricp/replaycut/internal/models"
	"github.com/kdimtricp/replaycut/internal/sampler"
	"github.com/kdimtricp/replaycut/internal/store"
)

func main() {
	var videoPath = flag.String("video", "", "Path to the video file to analyze")
	var frameCount = flag.Int("frames", sampler.DefaultFrameCount, "Number of frames to sample")
	var verbose = flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if *videoPath == "" {
		log.Fatal("Please provide a video file with -video flag")
	}

	logging.Init(*verbose)

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY is not set")
	}

	stat, err := os.Stat(*videoPath)
	if err != nil {
		log.Fatal("Failed to stat video file:", err)
	}

	dbConfig := store.Config{
		Type:       getEnv("DB_TYPE", "sqlite"),
		SQLitePath: getEnv("DB_PATH", "./replaycut.db"),
	}
	db, err := store.NewDB(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	frameSampler, err := sampler.New(logging.WithComponent("sampler"))
	if err != nil {
		log.Fatal("Failed to initialize frame sampler:", err)
	}
	client := analysis.NewClient(apiKey, logging.WithComponent("analysis"))
	ctx := context.Background()

	fmt.Printf("Sampling %d frames from %s...\n", *frameCount, *videoPath)
	frames, err := frameSampler.Sample(ctx, *videoPath, *frameCount, func(done, total int) {
		if done%10 == 0 || done == total {
			fmt.Printf("  %d/%d frames\n", done, total)
		}
	})
	if err != nil {
		log.Fatal("Failed to sample frames:", err)
	}

	fmt.Println("Analyzing frames...")
	result, err := client.AnalyzeFrames(ctx, frames)
	if err != nil {
		if analysis.IsAuthRequired(err) {
			log.Fatal("API key was rejected; check GEMINI_API_KEY")
		}
		log.Fatal("Analysis failed:", err)
	}

	fmt.Printf("\nSummary: %s\n\n", result.Summary)
	for i, h := range result.Highlights {
		fmt.Printf("%2d. [%s] %s", i+1, h.DisplayTime, h.Description)
		if h.PlayerJerseyNumber != models.UnknownJersey {
			fmt.Printf(" (#%s)", h.PlayerJerseyNumber)
		}
		fmt.Printf(" - %s, %s\n", h.ScoreType, h.Intensity)
	}

	identity := models.FileIdentity(stat.Name(), stat.Size(), stat.ModTime().UnixMilli())
	entry := store.HistoryEntry{
		Identity:  identity,
		FileName:  stat.Name(),
		CreatedAt: time.Now(),
		Result:    *result,
	}
	history := store.NewHistoryRepo(db)
	if err := history.Put(ctx, entry); err != nil {
		log.Printf("Warning: failed to save result to history: %v", err)
	} else {
		fmt.Println("\nResult saved to history.")
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
