package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sotachaser/sotad/pkg/spots"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "sotad-store-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := NewStore(filepath.Join(tempDir, "test.db"), 100)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestPreferences(t *testing.T) {
	store := newTestStore(t)

	t.Run("Defaults When Unset", func(t *testing.T) {
		if got := store.GetFloat(PrefMinFreqMHz, DefaultMinFreqMHz); got != 7.0 {
			t.Errorf("Expected default min 7.0, got %f", got)
		}
		if got := store.GetFloat(PrefMaxFreqMHz, DefaultMaxFreqMHz); got != 28.0 {
			t.Errorf("Expected default max 28.0, got %f", got)
		}
	})

	t.Run("Set And Get Roundtrip", func(t *testing.T) {
		if err := store.SetFloat(PrefMinFreqMHz, 10.1); err != nil {
			t.Fatalf("SetFloat failed: %v", err)
		}
		if got := store.GetFloat(PrefMinFreqMHz, DefaultMinFreqMHz); got != 10.1 {
			t.Errorf("Expected 10.1, got %f", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := store.SetFloat(PrefMinFreqMHz, 3.5); err != nil {
			t.Fatalf("SetFloat failed: %v", err)
		}
		if got := store.GetFloat(PrefMinFreqMHz, DefaultMinFreqMHz); got != 3.5 {
			t.Errorf("Expected 3.5 after overwrite, got %f", got)
		}
	})
}

func TestSaveSpots(t *testing.T) {
	store := newTestStore(t)

	batch := []spots.Spot{
		{Timestamp: "2026-08-23T14:02:11Z", Callsign: "HB9BIN/P", Summit: "HB/ZH-015", FrequencyMHz: 14.062, Mode: "CW"},
		{Timestamp: "2026-08-23T13:58:40Z", Callsign: "W0MNA", Summit: "W0C/FR-004", FrequencyMHz: 7.032, Mode: "CW"},
	}

	t.Run("Insert", func(t *testing.T) {
		inserted, err := store.SaveSpots(batch)
		if err != nil {
			t.Fatalf("SaveSpots failed: %v", err)
		}
		if inserted != 2 {
			t.Errorf("Expected 2 inserted, got %d", inserted)
		}
	})

	t.Run("Duplicates Are Skipped", func(t *testing.T) {
		inserted, err := store.SaveSpots(batch)
		if err != nil {
			t.Fatalf("SaveSpots failed: %v", err)
		}
		if inserted != 0 {
			t.Errorf("Expected 0 inserted on duplicate batch, got %d", inserted)
		}

		count, err := store.SpotCount()
		if err != nil {
			t.Fatalf("SpotCount failed: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 stored spots, got %d", count)
		}
	})

	t.Run("Recent Spots Newest First", func(t *testing.T) {
		list, err := store.RecentSpots(10)
		if err != nil {
			t.Fatalf("RecentSpots failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("Expected 2 spots, got %d", len(list))
		}
		if list[0].Callsign != "W0MNA" {
			t.Errorf("Expected newest insert first, got %s", list[0].Callsign)
		}
	})
}

func TestCleanup(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "sotad-store-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	store, err := NewStore(filepath.Join(tempDir, "small.db"), 3)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	batch := []spots.Spot{
		{Timestamp: "2026-08-23T10:00:00Z", Callsign: "A1AAA", FrequencyMHz: 7.0},
		{Timestamp: "2026-08-23T11:00:00Z", Callsign: "B2BBB", FrequencyMHz: 7.1},
		{Timestamp: "2026-08-23T12:00:00Z", Callsign: "C3CCC", FrequencyMHz: 7.2},
		{Timestamp: "2026-08-23T13:00:00Z", Callsign: "D4DDD", FrequencyMHz: 7.3},
		{Timestamp: "2026-08-23T14:00:00Z", Callsign: "E5EEE", FrequencyMHz: 7.4},
	}
	if _, err := store.SaveSpots(batch); err != nil {
		t.Fatalf("SaveSpots failed: %v", err)
	}

	count, err := store.SpotCount()
	if err != nil {
		t.Fatalf("SpotCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected history trimmed to 3 spots, got %d", count)
	}

	list, err := store.RecentSpots(10)
	if err != nil {
		t.Fatalf("RecentSpots failed: %v", err)
	}
	if list[0].Callsign != "E5EEE" {
		t.Errorf("Expected newest spot retained, got %s", list[0].Callsign)
	}
}
