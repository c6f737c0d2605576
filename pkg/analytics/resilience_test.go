package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// brokenStore returns a store whose path can never be opened: the path is a
// directory, so sqlite fails on first use. This simulates the
// storage-unavailable taxonomy without touching the happy path.
func brokenStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "promptdeck-broken-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	dbPath := filepath.Join(tmpDir, "analytics.db")
	if err := os.Mkdir(dbPath, 0o755); err != nil {
		t.Fatalf("failed to create blocking dir: %v", err)
	}
	return NewStore(dbPath)
}

func TestTotalityOnBrokenStore(t *testing.T) {
	s := brokenStore(t)

	// Writes are dropped silently.
	s.LogEvent(EventPromptApplied, WithPrompt("a.md"), WithProject("/proj/a"))

	// Every read returns its documented zero value instead of raising.
	if stats := s.PromptStats("a.md"); stats.TimesUsed != 0 || stats.HasRating() {
		t.Errorf("PromptStats on broken store: expected zero value, got %+v", stats)
	}
	if all := s.AllPromptStats(); len(all) != 0 {
		t.Errorf("AllPromptStats on broken store: expected empty map, got %v", all)
	}
	if overall := s.OverallStats(); overall != (OverallStats{}) {
		t.Errorf("OverallStats on broken store: expected zero value, got %+v", overall)
	}
	if events := s.Events(Filter{}); events != nil {
		t.Errorf("Events on broken store: expected nil, got %v", events)
	}
	if recent := s.RecentActivity(10); recent != nil {
		t.Errorf("RecentActivity on broken store: expected nil, got %v", recent)
	}
	if pending := s.PendingFeedback(time.Hour, 3); pending != nil {
		t.Errorf("PendingFeedback on broken store: expected nil, got %v", pending)
	}
}

func TestStoreRecoversWhenPathBecomesWritable(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "promptdeck-recover-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	dbPath := filepath.Join(tmpDir, "missing", "analytics.db")
	s := NewStore(dbPath)

	// Parent directory does not exist yet: the write is dropped.
	s.LogEvent(EventPromptCreated, WithPrompt("a.md"))
	if events := s.Events(Filter{}); len(events) != 0 {
		t.Fatalf("expected no events while path is unavailable, got %d", len(events))
	}

	// Connections are per call, so fixing the path fixes the store.
	if err := os.Mkdir(filepath.Dir(dbPath), 0o755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	s.LogEvent(EventPromptCreated, WithPrompt("a.md"))
	if events := s.Events(Filter{}); len(events) != 1 {
		t.Errorf("expected 1 event after recovery, got %d", len(events))
	}
}
