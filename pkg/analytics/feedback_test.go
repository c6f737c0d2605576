package analytics

import (
	"testing"
	"time"
)

func TestPendingFeedbackExclusion(t *testing.T) {
	s := newTestStore(t)

	applied := time.Now().Add(-2 * time.Hour)
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/proj/a"), WithTimestamp(applied))
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/proj/b"), WithTimestamp(applied))

	pending := s.PendingFeedback(DefaultFeedbackAge, 3)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}

	// Skipping resolves exactly the matching (prompt, project) pair.
	s.LogEvent(EventFeedbackSkipped, WithPrompt("p.md"), WithProject("/proj/a"))

	pending = s.PendingFeedback(DefaultFeedbackAge, 3)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending entry after skip, got %d", len(pending))
	}
	if pending[0].ProjectRef != "/proj/b" {
		t.Errorf("expected /proj/b to remain pending, got %s", pending[0].ProjectRef)
	}

	// Rating resolves the remaining pair.
	s.LogEvent(EventFeedbackGiven, WithPrompt("p.md"), WithProject("/proj/b"), WithMeta("rating", 4))

	if pending = s.PendingFeedback(DefaultFeedbackAge, 3); len(pending) != 0 {
		t.Errorf("expected no pending entries after rating, got %d", len(pending))
	}
}

func TestPendingFeedbackAgeCutoff(t *testing.T) {
	s := newTestStore(t)

	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/proj/young"),
		WithTimestamp(time.Now().Add(-30*time.Minute)))
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/proj/old"),
		WithTimestamp(time.Now().Add(-2*time.Hour)))

	pending := s.PendingFeedback(time.Hour, 3)
	if len(pending) != 1 {
		t.Fatalf("expected only the old application, got %d entries", len(pending))
	}
	if pending[0].ProjectRef != "/proj/old" {
		t.Errorf("expected /proj/old, got %s", pending[0].ProjectRef)
	}
}

func TestPendingFeedbackOrderAndLimit(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/proj/a"), WithTimestamp(now.Add(-5*time.Hour)))
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/proj/b"), WithTimestamp(now.Add(-3*time.Hour)))
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/proj/c"), WithTimestamp(now.Add(-4*time.Hour)))

	pending := s.PendingFeedback(time.Hour, 2)
	if len(pending) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(pending))
	}
	if pending[0].ProjectRef != "/proj/b" || pending[1].ProjectRef != "/proj/c" {
		t.Errorf("expected newest-applied first (/proj/b, /proj/c), got (%s, %s)",
			pending[0].ProjectRef, pending[1].ProjectRef)
	}
}

func TestPendingFeedbackDisplayName(t *testing.T) {
	s := newTestStore(t)

	applied := time.Now().Add(-2 * time.Hour)
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/home/me/code/named"),
		WithTimestamp(applied), WithMeta("project_name", "My Big Idea"))
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithProject("/home/me/code/bare-project"),
		WithTimestamp(applied.Add(-time.Minute)))

	pending := s.PendingFeedback(DefaultFeedbackAge, 3)
	if len(pending) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(pending))
	}
	if pending[0].DisplayName != "My Big Idea" {
		t.Errorf("expected metadata name, got %q", pending[0].DisplayName)
	}
	if pending[1].DisplayName != "bare-project" {
		t.Errorf("expected path-derived name, got %q", pending[1].DisplayName)
	}
}

func TestPendingFeedbackIgnoresIncompletePairs(t *testing.T) {
	s := newTestStore(t)

	applied := time.Now().Add(-2 * time.Hour)
	// Applications without both refs can never be resolved, so they are
	// never askable.
	s.LogEvent(EventPromptApplied, WithPrompt("p.md"), WithTimestamp(applied))
	s.LogEvent(EventPromptApplied, WithProject("/proj/a"), WithTimestamp(applied))

	if pending := s.PendingFeedback(DefaultFeedbackAge, 3); len(pending) != 0 {
		t.Errorf("expected no pending entries, got %d", len(pending))
	}
}
