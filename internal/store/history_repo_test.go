package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kdimtricp/replaycut/internal/models"
)

func historyEntry(identity string, summary string) HistoryEntry {
	return HistoryEntry{
		Identity:  identity,
		FileName:  "game.mp4",
		CreatedAt: time.Now(),
		Result: models.AnalysisResult{
			Highlights: []models.Highlight{
				{TimestampSeconds: 45.3, DisplayTime: "00:45", Description: "Goal", ScoreType: "goal",
					Intensity: models.IntensityHigh, PlayerJerseyNumber: "7"},
			},
			Summary: summary,
		},
	}
}

func TestHistoryPutGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepo(db)
	ctx := context.Background()

	identity := models.FileIdentity("game.mp4", 1024, 1700000000)
	if err := repo.Put(ctx, historyEntry(identity, "A tight game.")); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}

	result, err := repo.Get(ctx, identity)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if result == nil {
		t.Fatal("Expected cache hit, got miss")
	}
	if result.Summary != "A tight game." {
		t.Errorf("Expected summary preserved, got %q", result.Summary)
	}
	if len(result.Highlights) != 1 || result.Highlights[0].PlayerJerseyNumber != "7" {
		t.Errorf("Expected highlights preserved verbatim, got %+v", result.Highlights)
	}
}

func TestHistoryGetMiss(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepo(db)

	result, err := repo.Get(context.Background(), "absent|0|0")
	if err != nil {
		t.Fatalf("Miss must not error: %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil on miss, got %+v", result)
	}
}

func TestHistoryPutIsIdempotentPerIdentity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepo(db)
	ctx := context.Background()

	identity := models.FileIdentity("game.mp4", 1024, 1700000000)
	if err := repo.Put(ctx, historyEntry(identity, "first")); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}
	if err := repo.Put(ctx, historyEntry(identity, "second")); err != nil {
		t.Fatalf("Failed to replace entry: %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one entry per identity, got %d", count)
	}

	result, err := repo.Get(ctx, identity)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if result.Summary != "second" {
		t.Errorf("Expected most-recently-written entry to win, got %q", result.Summary)
	}
}

func TestHistoryEvictsOldestBeyondBound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepo(db)
	ctx := context.Background()

	for i := 0; i < MaxHistoryEntries+1; i++ {
		identity := models.FileIdentity(fmt.Sprintf("game_%d.mp4", i), int64(i), 1700000000)
		if err := repo.Put(ctx, historyEntry(identity, fmt.Sprintf("summary %d", i))); err != nil {
			t.Fatalf("Failed to put entry %d: %v", i, err)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != MaxHistoryEntries {
		t.Errorf("Expected count capped at %d, got %d", MaxHistoryEntries, count)
	}

	// The single oldest entry by write order is gone, the rest remain.
	oldest := models.FileIdentity("game_0.mp4", 0, 1700000000)
	result, err := repo.Get(ctx, oldest)
	if err != nil {
		t.Fatalf("Failed to get oldest: %v", err)
	}
	if result != nil {
		t.Error("Expected oldest entry evicted")
	}

	second := models.FileIdentity("game_1.mp4", 1, 1700000000)
	result, err = repo.Get(ctx, second)
	if err != nil {
		t.Fatalf("Failed to get second entry: %v", err)
	}
	if result == nil {
		t.Error("Expected second-oldest entry retained")
	}
}

func TestHistoryReplaceMovesEntryToNewestSlot(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepo(db)
	ctx := context.Background()

	for i := 0; i < MaxHistoryEntries; i++ {
		identity := models.FileIdentity(fmt.Sprintf("game_%d.mp4", i), int64(i), 1700000000)
		if err := repo.Put(ctx, historyEntry(identity, "s")); err != nil {
			t.Fatalf("Failed to put entry %d: %v", i, err)
		}
	}

	// Rewriting the oldest identity makes it newest; a subsequent insert
	// then evicts game_1, not game_0.
	first := models.FileIdentity("game_0.mp4", 0, 1700000000)
	if err := repo.Put(ctx, historyEntry(first, "rewritten")); err != nil {
		t.Fatalf("Failed to rewrite first entry: %v", err)
	}

	extra := models.FileIdentity("extra.mp4", 99, 1700000000)
	if err := repo.Put(ctx, historyEntry(extra, "s")); err != nil {
		t.Fatalf("Failed to put extra entry: %v", err)
	}

	if result, _ := repo.Get(ctx, first); result == nil {
		t.Error("Rewritten entry should have survived eviction")
	}
	evicted := models.FileIdentity("game_1.mp4", 1, 1700000000)
	if result, _ := repo.Get(ctx, evicted); result != nil {
		t.Error("Expected game_1 evicted as the oldest by write order")
	}
}

func TestHistoryList(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepo(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		identity := models.FileIdentity(fmt.Sprintf("game_%d.mp4", i), int64(i), 1700000000)
		if err := repo.Put(ctx, historyEntry(identity, fmt.Sprintf("summary %d", i))); err != nil {
			t.Fatalf("Failed to put entry %d: %v", i, err)
		}
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Result.Summary != "summary 2" {
		t.Errorf("Expected newest first, got %q", entries[0].Result.Summary)
	}
}
