package analytics

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"
)

// DefaultFeedbackAge is how long after a prompt application the feedback
// prompt becomes askable, giving the user time to actually try the result.
const DefaultFeedbackAge = time.Hour

// PendingFeedback returns prompt applications older than minAge for which no
// feedback_given or feedback_skipped event exists with the same
// (prompt_ref, project_ref) pair. Resolution is permanent once logged,
// regardless of the resolving event's own timestamp. Results are ordered
// newest-applied first and capped at limit. Returns nil when the store is
// unreadable: a failure to compute "what needs feedback" must not block the
// UI from rendering.
func (s *Store) PendingFeedback(minAge time.Duration, limit int) []PendingFeedback {
	return fallback(s, "pending_feedback", nil, func() ([]PendingFeedback, error) {
		return s.pendingFeedback(minAge, limit)
	})
}

func (s *Store) pendingFeedback(minAge time.Duration, limit int) ([]PendingFeedback, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cutoff := formatTimestamp(time.Now().Add(-minAge))

	rows, err := db.Query(`
		SELECT e.prompt_ref, e.project_ref, e.timestamp, e.meta
		FROM events e
		WHERE e.kind = ?
		  AND e.prompt_ref IS NOT NULL
		  AND e.project_ref IS NOT NULL
		  AND e.timestamp < ?
		  AND NOT EXISTS (
		      SELECT 1 FROM events f
		      WHERE f.kind = ?
		        AND f.prompt_ref = e.prompt_ref
		        AND f.project_ref = e.project_ref
		  )
		  AND NOT EXISTS (
		      SELECT 1 FROM events s
		      WHERE s.kind = ?
		        AND s.prompt_ref = e.prompt_ref
		        AND s.project_ref = e.project_ref
		  )
		ORDER BY e.timestamp DESC
		LIMIT ?`,
		string(EventPromptApplied), cutoff,
		string(EventFeedbackGiven), string(EventFeedbackSkipped),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending feedback: %w", err)
	}
	defer rows.Close()

	var pending []PendingFeedback
	for rows.Next() {
		var promptRef, projectRef, ts string
		var rawMeta sql.NullString
		if err := rows.Scan(&promptRef, &projectRef, &ts, &rawMeta); err != nil {
			return nil, fmt.Errorf("failed to scan pending feedback row: %w", err)
		}

		name, ok := parseMeta(rawMeta).String("project_name")
		if !ok || name == "" {
			name = filepath.Base(projectRef)
		}

		pending = append(pending, PendingFeedback{
			PromptRef:   promptRef,
			ProjectRef:  projectRef,
			DisplayName: name,
			AppliedAt:   parseTimestamp(ts),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending feedback: %w", err)
	}
	return pending, nil
}
