package analytics

import (
	"time"
)

// EventKind tags an event. The vocabulary is open: producers may log kinds
// not listed here without a schema migration.
type EventKind string

const (
	EventPromptCreated     EventKind = "prompt_created"
	EventPromptEdited      EventKind = "prompt_edited"
	EventPromptApplied     EventKind = "prompt_applied"
	EventPromptViewed      EventKind = "prompt_viewed"
	EventPromptDeleted     EventKind = "prompt_deleted"
	EventVariableInserted  EventKind = "variable_inserted"
	EventHistoryRestored   EventKind = "history_restored"
	EventProjectCreated    EventKind = "project_created"
	EventProjectOpened     EventKind = "project_opened"
	EventProjectArchived   EventKind = "project_archived"
	EventProjectUnarchived EventKind = "project_unarchived"
	EventProjectDeleted    EventKind = "project_deleted"
	EventFeedbackGiven     EventKind = "feedback_given"
	EventFeedbackSkipped   EventKind = "feedback_skipped"
)

// Metadata is the open-ended per-event payload. Its shape varies by kind
// (feedback_given carries "rating" and "project_name", prompt_edited carries
// "diff_chars"), so consumers look keys up defensively instead of assuming a
// fixed schema.
type Metadata map[string]any

// Int returns the integer value for key, tolerating the float64 that
// encoding/json produces for numbers.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// String returns the string value for key.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

// Strings returns the string-slice value for key, tolerating the []any that
// encoding/json produces for arrays. Non-string elements are skipped.
func (m Metadata) Strings(key string) ([]string, bool) {
	switch v := m[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// Event is one immutable record in the ledger. ID is assigned by the store
// and used only for storage ordering: producers may backfill historical
// timestamps, so append order is not timestamp order and every time-based
// query goes through Timestamp instead.
type Event struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       EventKind `json:"kind"`
	PromptRef  string    `json:"prompt_ref,omitempty"`
	ProjectRef string    `json:"project_ref,omitempty"`
	Meta       Metadata  `json:"meta,omitempty"`
}

// Filter selects events for a query. Zero fields are ignored.
type Filter struct {
	Kinds      []EventKind
	PromptRef  string
	ProjectRef string
	From       time.Time
	To         time.Time
	Limit      int
	Descending bool // newest first by timestamp
}

// PromptStats are the per-prompt aggregates, recomputed on every query.
// AvgRating is meaningful only when RatingCount > 0; a prompt with no
// ratings has RatingCount == 0, which is distinct from an average of zero.
type PromptStats struct {
	TimesUsed   int       `json:"times_used"`
	LastUsed    time.Time `json:"last_used,omitzero"` // zero when never applied
	AvgRating   float64   `json:"avg_rating,omitempty"`
	RatingCount int       `json:"rating_count"`
	EditCount   int       `json:"edit_count"`
	Projects    []string  `json:"projects,omitempty"` // distinct project refs
}

// HasRating reports whether at least one rating contributed to AvgRating.
func (s PromptStats) HasRating() bool { return s.RatingCount > 0 }

// OverallStats are the portfolio-wide aggregates. AvgRating follows the same
// RatingCount convention as PromptStats.
type OverallStats struct {
	ProjectsCreated    int     `json:"projects_created"`
	PromptApplications int     `json:"prompt_applications"`
	UniquePromptsUsed  int     `json:"unique_prompts_used"`
	MostUsedPrompt     string  `json:"most_used_prompt,omitempty"` // tie-break unspecified
	AvgRating          float64 `json:"avg_rating,omitempty"`
	RatingCount        int     `json:"rating_count"`
	EventsLast30Days   int     `json:"events_last_30_days"`
}

// HasRating reports whether any feedback_given event carried a rating.
func (s OverallStats) HasRating() bool { return s.RatingCount > 0 }

// PendingFeedback is a prompt application that crossed the minimum-age
// threshold without a feedback_given or feedback_skipped resolution for the
// same (prompt, project) pair.
type PendingFeedback struct {
	PromptRef   string    `json:"prompt_ref"`
	ProjectRef  string    `json:"project_ref"`
	DisplayName string    `json:"display_name"`
	AppliedAt   time.Time `json:"applied_at"`
}
