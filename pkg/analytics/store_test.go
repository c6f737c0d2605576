package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "promptdeck-analytics-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })
	return NewStore(filepath.Join(tmpDir, "analytics.db"))
}

func TestStoreSchema(t *testing.T) {
	s := newTestStore(t)

	db, err := s.open()
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer db.Close()

	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='events'").Scan(&tableName)
	if err != nil {
		t.Fatalf("failed to query sqlite_master for events table: %v", err)
	}

	rows, err := db.Query("PRAGMA index_list('events')")
	if err != nil {
		t.Fatalf("failed to query index_list: %v", err)
	}
	defer rows.Close()

	foundKindIndex := false
	foundPromptIndex := false
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			t.Logf("scanning index row failed: %v", err)
			continue
		}
		if name == "idx_events_kind" {
			foundKindIndex = true
		}
		if name == "idx_events_prompt" {
			foundPromptIndex = true
		}
	}
	if !foundKindIndex {
		t.Errorf("idx_events_kind not found")
	}
	if !foundPromptIndex {
		t.Errorf("idx_events_prompt not found")
	}
}

func TestAppendOnly(t *testing.T) {
	s := newTestStore(t)

	s.LogEvent(EventPromptCreated, WithPrompt("api-service.md"))
	s.LogEvent(EventPromptApplied, WithPrompt("api-service.md"), WithProject("/proj/a"))
	s.LogEvent(EventProjectOpened, WithProject("/proj/a"))

	events := s.Events(Filter{})
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	before := make(map[int64]Event, len(events))
	for _, ev := range events {
		before[ev.ID] = ev
	}

	// Subsequent appends must not change prior events.
	s.LogEvent(EventPromptViewed, WithPrompt("api-service.md"))

	events = s.Events(Filter{})
	if len(events) != 4 {
		t.Fatalf("expected 4 events after append, got %d", len(events))
	}
	for _, got := range events {
		want, ok := before[got.ID]
		if !ok {
			continue // the new event
		}
		if got.Kind != want.Kind || got.PromptRef != want.PromptRef ||
			got.ProjectRef != want.ProjectRef || !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("prior event changed after append: before %+v, after %+v", want, got)
		}
	}
}

func TestLogEventEmptyKindDropped(t *testing.T) {
	s := newTestStore(t)

	s.LogEvent("")
	s.LogEvent(EventPromptCreated, WithPrompt("x.md"))

	if got := len(s.Events(Filter{})); got != 1 {
		t.Errorf("expected the empty-kind event to be dropped, got %d events", got)
	}
}

func TestQueryOrdersByTimestampNotID(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	// Appended out of chronological order: producers may backfill.
	s.LogEvent(EventProjectOpened, WithProject("/proj/b"), WithTimestamp(now))
	s.LogEvent(EventProjectOpened, WithProject("/proj/a"), WithTimestamp(now.Add(-48*time.Hour)))
	s.LogEvent(EventProjectOpened, WithProject("/proj/c"), WithTimestamp(now.Add(-time.Hour)))

	events := s.Events(Filter{Descending: true})
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	wantOrder := []string{"/proj/b", "/proj/c", "/proj/a"}
	for i, want := range wantOrder {
		if events[i].ProjectRef != want {
			t.Errorf("position %d: expected %s, got %s", i, want, events[i].ProjectRef)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	s := newTestStore(t)

	s.LogEvent(EventPromptApplied, WithPrompt("a.md"), WithProject("/proj/a"))
	s.LogEvent(EventPromptApplied, WithPrompt("b.md"), WithProject("/proj/b"))
	s.LogEvent(EventPromptEdited, WithPrompt("a.md"))
	s.LogEvent(EventFeedbackGiven, WithPrompt("a.md"), WithProject("/proj/a"), WithMeta("rating", 4))

	if got := len(s.Events(Filter{PromptRef: "a.md"})); got != 3 {
		t.Errorf("prompt filter: expected 3 events, got %d", got)
	}
	if got := len(s.Events(Filter{Kinds: []EventKind{EventPromptApplied}})); got != 2 {
		t.Errorf("kind filter: expected 2 events, got %d", got)
	}
	if got := len(s.Events(Filter{Kinds: []EventKind{EventPromptApplied, EventPromptEdited}})); got != 3 {
		t.Errorf("kind set filter: expected 3 events, got %d", got)
	}
	if got := len(s.Events(Filter{ProjectRef: "/proj/b"})); got != 1 {
		t.Errorf("project filter: expected 1 event, got %d", got)
	}
	if got := len(s.Events(Filter{Limit: 2})); got != 2 {
		t.Errorf("limit: expected 2 events, got %d", got)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)

	s.LogEvent(EventFeedbackGiven,
		WithPrompt("a.md"), WithProject("/proj/a"),
		WithMeta("rating", 3), WithMeta("project_name", "Proj A"))

	events := s.Events(Filter{Kinds: []EventKind{EventFeedbackGiven}})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	meta := events[0].Meta
	if rating, ok := meta.Int("rating"); !ok || rating != 3 {
		t.Errorf("expected rating 3, got %v (ok=%v)", rating, ok)
	}
	if name, ok := meta.String("project_name"); !ok || name != "Proj A" {
		t.Errorf("expected project_name 'Proj A', got %q (ok=%v)", name, ok)
	}
	if _, ok := meta.Int("missing"); ok {
		t.Errorf("missing key should not resolve")
	}
}

func TestMalformedMetadataDegradesToNil(t *testing.T) {
	s := newTestStore(t)

	s.LogEvent(EventPromptApplied, WithPrompt("a.md"), WithProject("/proj/a"))

	db, err := s.open()
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	_, err = db.Exec(
		"INSERT INTO events (timestamp, kind, prompt_ref, meta) VALUES (?, ?, ?, ?)",
		formatTimestamp(time.Now()), string(EventPromptEdited), "a.md", "{not json",
	)
	db.Close()
	if err != nil {
		t.Fatalf("failed to insert corrupt row: %v", err)
	}

	events := s.Events(Filter{PromptRef: "a.md"})
	if len(events) != 2 {
		t.Fatalf("corrupt metadata must not abort the query: expected 2 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Kind == EventPromptEdited && ev.Meta != nil {
			t.Errorf("corrupt metadata should degrade to nil, got %v", ev.Meta)
		}
	}

	// Aggregations over the table must survive the corrupt row too.
	stats := s.PromptStats("a.md")
	if stats.TimesUsed != 1 || stats.EditCount != 1 {
		t.Errorf("unexpected stats over corrupt row: %+v", stats)
	}
}
