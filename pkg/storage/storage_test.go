package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FrenchMajesty/veracious/pkg/types"
)

func sampleSnapshot(count int) types.Snapshot {
	return types.Snapshot{
		FeedAnalysis: types.FeedAnalysis{
			OverallManipulationScore: 37,
			FeedSummary:              "Mostly sports with some tax talk.",
			Topics:                   map[string]float64{"sports": 70, "economy": 30},
			PerTweet: []types.Classification{
				{PoliticalLean: types.LeanRight, ManipulationScore: 55},
			},
			PoliticalBreakdown: map[types.Lean]int{types.LeanRight: 60, types.LeanUnclear: 40},
		},
		TweetCount:  count,
		LastUpdated: 1700000000000 + int64(count),
	}
}

// openStores returns one of each store backed by a temporary directory
func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := Open(DriverSQLite, filepath.Join(dir, "veracious.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	file, err := Open(DriverFile, filepath.Join(dir, "nested", "snapshot.json"))
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}

	return map[string]Store{"file": file, "sqlite": sqlite}
}

func TestStore_LoadEmpty(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(context.Background())
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

// TestStore_SaveOverwrites tests that the latest save replaces the previous snapshot wholesale
func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, sampleSnapshot(3)); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			second := sampleSnapshot(5)
			second.FeedAnalysis.Topics = nil
			if err := store.Save(ctx, second); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got.TweetCount != 5 {
				t.Errorf("Expected tweet count 5, got %d", got.TweetCount)
			}
			if got.LastUpdated != second.LastUpdated {
				t.Errorf("Expected timestamp %d, got %d", second.LastUpdated, got.LastUpdated)
			}
			if len(got.FeedAnalysis.Topics) != 0 {
				t.Errorf("Expected topics from the first save to be gone, got %v", got.FeedAnalysis.Topics)
			}
			if got.FeedAnalysis.PoliticalBreakdown[types.LeanRight] != 60 {
				t.Errorf("Expected right=60, got %d", got.FeedAnalysis.PoliticalBreakdown[types.LeanRight])
			}
			if got.FeedAnalysis.OverallManipulationScore != 37 {
				t.Errorf("Expected overall score 37, got %d", got.FeedAnalysis.OverallManipulationScore)
			}
		})
	}
}

// TestFileStore_Format tests that the file uses the popup's field names
func TestFileStore_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewFileStore(path)
	if err := store.Save(context.Background(), sampleSnapshot(1)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	for _, key := range []string{`"feedAnalysis"`, `"tweetCount"`, `"lastUpdated"`, `"political_breakdown"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Expected file to contain %s", key)
		}
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be renamed away")
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := NewFileStore(path).Load(context.Background())
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("redis", "localhost"); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
