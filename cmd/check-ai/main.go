package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/kdimtricp/replaycut/internal/store"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./replaycut.db"
	}

	fmt.Println("🔍 Checking Highlight Analysis Setup")
	fmt.Println("====================================")

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Println("⚠️  WARNING: GEMINI_API_KEY is not set!")
		fmt.Println("   Video analysis will fail until a key is provided.")
	} else {
		fmt.Println("✅ Gemini API key configured")
	}
	fmt.Println()

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		fmt.Printf("✅ ffmpeg found: %s\n", path)
	} else {
		fmt.Println("⚠️  ffmpeg not found in PATH")
		fmt.Println("   Frame sampling and clip generation will be unavailable.")
	}
	if path, err := exec.LookPath("ffprobe"); err == nil {
		fmt.Printf("✅ ffprobe found: %s\n", path)
	} else {
		fmt.Println("⚠️  ffprobe not found in PATH")
	}
	fmt.Println()

	db, err := store.NewDB(store.Config{Type: "sqlite", SQLitePath: dbPath})
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	ctx := context.Background()

	videos, err := store.NewVideoRepo(db).List(ctx)
	if err != nil {
		log.Fatal("Failed to count videos:", err)
	}
	fmt.Printf("📹 Total videos: %d\n", len(videos))

	history := store.NewHistoryRepo(db)
	historyCount, err := history.Count(ctx)
	if err != nil {
		log.Fatal("Failed to count history:", err)
	}
	fmt.Printf("🗂️  Analysis history entries: %d (max %d)\n", historyCount, store.MaxHistoryEntries)

	gallery, err := store.NewGalleryRepo(db).List(ctx)
	if err != nil {
		log.Fatal("Failed to count gallery:", err)
	}
	fmt.Printf("🎬 Saved gallery clips: %d\n\n", len(gallery))

	entries, err := history.List(ctx)
	if err != nil {
		log.Fatal("Failed to list history:", err)
	}

	fmt.Println("📊 Recent Analyses:")
	fmt.Println("-------------------")
	for _, entry := range entries {
		fmt.Printf("\n🎞️  %s (%s)\n", entry.FileName, entry.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("   Highlights: %d\n", len(entry.Result.Highlights))
		if entry.Result.Summary != "" {
			fmt.Printf("   Summary: %.100s\n", entry.Result.Summary)
		}
	}

	if len(entries) == 0 {
		fmt.Println("No analyses found yet. Upload a video to test!")
	} else {
		fmt.Printf("\n✅ Found %d cached analyses.\n", len(entries))
	}
}
