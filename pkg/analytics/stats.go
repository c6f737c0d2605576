package analytics

import (
	"database/sql"
	"fmt"
	"time"
)

// activityWindow is the rolling window OverallStats counts recent events
// over.
const activityWindow = 30 * 24 * time.Hour

// PromptStats computes the usage aggregates for a single prompt. A prompt
// with no events (or an unreadable store) yields the zero PromptStats.
func (s *Store) PromptStats(promptRef string) PromptStats {
	return fallback(s, "prompt_stats", PromptStats{}, func() (PromptStats, error) {
		return s.promptStats(promptRef)
	})
}

func (s *Store) promptStats(promptRef string) (PromptStats, error) {
	db, err := s.open()
	if err != nil {
		return PromptStats{}, err
	}
	defer db.Close()

	var stats PromptStats

	// Times used + last used
	var lastUsed sql.NullString
	err = db.QueryRow(
		"SELECT COUNT(*), MAX(timestamp) FROM events WHERE kind = ? AND prompt_ref = ?",
		string(EventPromptApplied), promptRef,
	).Scan(&stats.TimesUsed, &lastUsed)
	if err != nil {
		return PromptStats{}, fmt.Errorf("failed to count applications: %w", err)
	}
	if lastUsed.Valid {
		stats.LastUsed = parseTimestamp(lastUsed.String)
	}

	// Distinct projects this prompt was applied to
	rows, err := db.Query(
		"SELECT DISTINCT project_ref FROM events WHERE kind = ? AND prompt_ref = ? AND project_ref IS NOT NULL",
		string(EventPromptApplied), promptRef,
	)
	if err != nil {
		return PromptStats{}, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return PromptStats{}, fmt.Errorf("failed to scan project ref: %w", err)
		}
		stats.Projects = append(stats.Projects, project)
	}
	if err := rows.Err(); err != nil {
		return PromptStats{}, fmt.Errorf("failed to iterate projects: %w", err)
	}

	// Average feedback rating
	var avg sql.NullFloat64
	err = db.QueryRow(
		"SELECT ROUND(AVG(CAST(json_extract(meta, '$.rating') AS REAL)), 1), COUNT(*) "+
			"FROM events WHERE kind = ? AND prompt_ref = ? AND json_extract(meta, '$.rating') IS NOT NULL",
		string(EventFeedbackGiven), promptRef,
	).Scan(&avg, &stats.RatingCount)
	if err != nil {
		return PromptStats{}, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg.Valid {
		stats.AvgRating = avg.Float64
	} else {
		stats.RatingCount = 0
	}

	// Edit count
	err = db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE kind = ? AND prompt_ref = ?",
		string(EventPromptEdited), promptRef,
	).Scan(&stats.EditCount)
	if err != nil {
		return PromptStats{}, fmt.Errorf("failed to count edits: %w", err)
	}

	return stats, nil
}

// AllPromptStats computes PromptStats for every prompt with at least one
// associated event, grouped in one pass per aggregate instead of a query
// loop. Prompts absent from the map have the zero stats; callers supply the
// default. Returns an empty map when the store is unreadable.
func (s *Store) AllPromptStats() map[string]PromptStats {
	return fallback(s, "all_prompt_stats", map[string]PromptStats{}, func() (map[string]PromptStats, error) {
		return s.allPromptStats()
	})
}

func (s *Store) allPromptStats() (map[string]PromptStats, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stats := make(map[string]PromptStats)

	// Usage counts and last used
	err = groupQuery(db,
		"SELECT prompt_ref, COUNT(*), MAX(timestamp) FROM events "+
			"WHERE kind = ? AND prompt_ref IS NOT NULL GROUP BY prompt_ref",
		[]any{string(EventPromptApplied)},
		func(rows *sql.Rows) error {
			var ref, lastUsed string
			var count int
			if err := rows.Scan(&ref, &count, &lastUsed); err != nil {
				return err
			}
			st := stats[ref]
			st.TimesUsed = count
			st.LastUsed = parseTimestamp(lastUsed)
			stats[ref] = st
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to group applications: %w", err)
	}

	// Ratings
	err = groupQuery(db,
		"SELECT prompt_ref, ROUND(AVG(CAST(json_extract(meta, '$.rating') AS REAL)), 1), COUNT(*) "+
			"FROM events WHERE kind = ? AND prompt_ref IS NOT NULL "+
			"AND json_extract(meta, '$.rating') IS NOT NULL GROUP BY prompt_ref",
		[]any{string(EventFeedbackGiven)},
		func(rows *sql.Rows) error {
			var ref string
			var avg sql.NullFloat64
			var count int
			if err := rows.Scan(&ref, &avg, &count); err != nil {
				return err
			}
			st := stats[ref]
			if avg.Valid {
				st.AvgRating = avg.Float64
				st.RatingCount = count
			}
			stats[ref] = st
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to group ratings: %w", err)
	}

	// Edit counts
	err = groupQuery(db,
		"SELECT prompt_ref, COUNT(*) FROM events "+
			"WHERE kind = ? AND prompt_ref IS NOT NULL GROUP BY prompt_ref",
		[]any{string(EventPromptEdited)},
		func(rows *sql.Rows) error {
			var ref string
			var count int
			if err := rows.Scan(&ref, &count); err != nil {
				return err
			}
			st := stats[ref]
			st.EditCount = count
			stats[ref] = st
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to group edits: %w", err)
	}

	// Distinct projects per prompt
	err = groupQuery(db,
		"SELECT DISTINCT prompt_ref, project_ref FROM events "+
			"WHERE kind = ? AND prompt_ref IS NOT NULL AND project_ref IS NOT NULL",
		[]any{string(EventPromptApplied)},
		func(rows *sql.Rows) error {
			var ref, project string
			if err := rows.Scan(&ref, &project); err != nil {
				return err
			}
			st := stats[ref]
			st.Projects = append(st.Projects, project)
			stats[ref] = st
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to group projects: %w", err)
	}

	return stats, nil
}

func groupQuery(db *sql.DB, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := db.Query(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// OverallStats computes the portfolio aggregates. An unreadable store
// yields the zero OverallStats.
func (s *Store) OverallStats() OverallStats {
	return fallback(s, "overall_stats", OverallStats{}, func() (OverallStats, error) {
		return s.overallStats()
	})
}

func (s *Store) overallStats() (OverallStats, error) {
	db, err := s.open()
	if err != nil {
		return OverallStats{}, err
	}
	defer db.Close()

	var stats OverallStats

	err = db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE kind = ?", string(EventProjectCreated),
	).Scan(&stats.ProjectsCreated)
	if err != nil {
		return OverallStats{}, fmt.Errorf("failed to count projects created: %w", err)
	}

	err = db.QueryRow(
		"SELECT COUNT(*), COUNT(DISTINCT prompt_ref) FROM events WHERE kind = ?",
		string(EventPromptApplied),
	).Scan(&stats.PromptApplications, &stats.UniquePromptsUsed)
	if err != nil {
		return OverallStats{}, fmt.Errorf("failed to count applications: %w", err)
	}

	// Most-applied prompt; when counts tie the winner is whichever row
	// SQLite returns first (unspecified, documented as such).
	var mostUsed sql.NullString
	err = db.QueryRow(
		"SELECT prompt_ref FROM events WHERE kind = ? AND prompt_ref IS NOT NULL "+
			"GROUP BY prompt_ref ORDER BY COUNT(*) DESC LIMIT 1",
		string(EventPromptApplied),
	).Scan(&mostUsed)
	if err != nil && err != sql.ErrNoRows {
		return OverallStats{}, fmt.Errorf("failed to find most used prompt: %w", err)
	}
	stats.MostUsedPrompt = mostUsed.String

	var avg sql.NullFloat64
	err = db.QueryRow(
		"SELECT ROUND(AVG(CAST(json_extract(meta, '$.rating') AS REAL)), 1), COUNT(*) "+
			"FROM events WHERE kind = ? AND json_extract(meta, '$.rating') IS NOT NULL",
		string(EventFeedbackGiven),
	).Scan(&avg, &stats.RatingCount)
	if err != nil {
		return OverallStats{}, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg.Valid {
		stats.AvgRating = avg.Float64
	} else {
		stats.RatingCount = 0
	}

	cutoff := formatTimestamp(time.Now().Add(-activityWindow))
	err = db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE timestamp > ?", cutoff,
	).Scan(&stats.EventsLast30Days)
	if err != nil {
		return OverallStats{}, fmt.Errorf("failed to count recent events: %w", err)
	}

	return stats, nil
}

// RecentActivity returns the newest events by timestamp, truncated to
// limit. Returns nil when the store is unreadable.
func (s *Store) RecentActivity(limit int) []Event {
	return fallback(s, "recent_activity", nil, func() ([]Event, error) {
		return s.queryEvents(Filter{Descending: true, Limit: limit})
	})
}
