package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timestampLayout is the fixed-width RFC3339 form every row is written with.
// Constant width and a trailing Z keep lexicographic order on the TEXT
// column identical to chronological order, so SQL can sort and range-filter
// on timestamp directly.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Store is the append-only analytics ledger. It holds only the database
// path: each append or query opens, uses, and releases its own connection,
// so no in-process locking is needed and a damaged file degrades that one
// call instead of wedging the whole app.
//
// Every public method is total. Write failures are dropped, read failures
// return the documented zero value; telemetry must never block or crash the
// primary workflow.
type Store struct {
	path string
}

// NewStore creates a store backed by the SQLite file at path. The file and
// schema are created lazily on first use. Callers decide the path; the
// ~/.promptdeck default lives at the composition point, not here.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// open establishes a connection, enables WAL mode, and ensures the schema.
func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// WAL so same-process readers are not blocked by a writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return db, nil
}

// migrate creates the events table and its indexes if they don't exist.
func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		kind TEXT NOT NULL,
		prompt_ref TEXT,
		project_ref TEXT,
		meta TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);

	CREATE INDEX IF NOT EXISTS idx_events_prompt ON events(prompt_ref);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

// EventOption customises a single LogEvent call.
type EventOption func(*eventRecord)

type eventRecord struct {
	ts         time.Time
	promptRef  string
	projectRef string
	meta       Metadata
}

// WithPrompt associates the event with a prompt by filename-like identifier.
func WithPrompt(ref string) EventOption {
	return func(r *eventRecord) { r.promptRef = ref }
}

// WithProject associates the event with a project by path-like identifier.
func WithProject(ref string) EventOption {
	return func(r *eventRecord) { r.projectRef = ref }
}

// WithTimestamp overrides the wall-clock timestamp, e.g. to backfill
// historical events.
func WithTimestamp(t time.Time) EventOption {
	return func(r *eventRecord) { r.ts = t }
}

// WithMeta attaches one metadata key. May be repeated.
func WithMeta(key string, value any) EventOption {
	return func(r *eventRecord) {
		if r.meta == nil {
			r.meta = Metadata{}
		}
		r.meta[key] = value
	}
}

// LogEvent appends one event to the ledger. It never fails loudly: any
// storage error is logged at debug level, counted, and discarded.
func (s *Store) LogEvent(kind EventKind, opts ...EventOption) {
	s.swallow("log_event", func() error {
		rec := eventRecord{ts: time.Now()}
		for _, opt := range opts {
			opt(&rec)
		}
		return s.append(kind, rec)
	})
}

func (s *Store) append(kind EventKind, rec eventRecord) error {
	if kind == "" {
		return fmt.Errorf("event kind must not be empty")
	}

	var meta sql.NullString
	if len(rec.meta) > 0 {
		raw, err := json.Marshal(rec.meta)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		meta = sql.NullString{String: string(raw), Valid: true}
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(
		"INSERT INTO events (timestamp, kind, prompt_ref, project_ref, meta) VALUES (?, ?, ?, ?, ?)",
		formatTimestamp(rec.ts),
		string(kind),
		nullable(rec.promptRef),
		nullable(rec.projectRef),
		meta,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	EventsAppended.WithLabelValues(string(kind)).Inc()
	return nil
}

// Events returns the events matching filter, or nil if the store is
// unreadable.
func (s *Store) Events(filter Filter) []Event {
	return fallback(s, "events", nil, func() ([]Event, error) {
		return s.queryEvents(filter)
	})
}

func (s *Store) queryEvents(filter Filter) ([]Event, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var sb strings.Builder
	sb.WriteString("SELECT id, timestamp, kind, prompt_ref, project_ref, meta FROM events")
	var where []string
	var args []any

	if len(filter.Kinds) == 1 {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kinds[0]))
	} else if len(filter.Kinds) > 1 {
		placeholders := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		where = append(where, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.PromptRef != "" {
		where = append(where, "prompt_ref = ?")
		args = append(args, filter.PromptRef)
	}
	if filter.ProjectRef != "" {
		where = append(where, "project_ref = ?")
		args = append(args, filter.ProjectRef)
	}
	if !filter.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTimestamp(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "timestamp < ?")
		args = append(args, formatTimestamp(filter.To))
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if filter.Descending {
		sb.WriteString(" ORDER BY timestamp DESC")
	} else {
		sb.WriteString(" ORDER BY timestamp ASC")
	}
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		ev                    Event
		ts, kind              string
		promptRef, projectRef sql.NullString
		meta                  sql.NullString
	)
	if err := rows.Scan(&ev.ID, &ts, &kind, &promptRef, &projectRef, &meta); err != nil {
		return Event{}, fmt.Errorf("failed to scan event row: %w", err)
	}
	ev.Timestamp = parseTimestamp(ts)
	ev.Kind = EventKind(kind)
	ev.PromptRef = promptRef.String
	ev.ProjectRef = projectRef.String
	ev.Meta = parseMeta(meta)
	return ev, nil
}

// parseMeta decodes the JSON metadata blob. A malformed blob degrades to nil
// for that row only; it never aborts the surrounding query.
func parseMeta(raw sql.NullString) Metadata {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
		return nil
	}
	return meta
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp is tolerant of rows written by older builds with plain
// RFC3339. An unparseable timestamp yields the zero time rather than an
// error.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// swallow enforces the write-side totality contract in one place: the
// wrapped operation's error is logged, counted, and dropped.
func (s *Store) swallow(op string, fn func() error) {
	if err := fn(); err != nil {
		slog.Debug("analytics degraded", "op", op, "error", err)
		DegradedOps.WithLabelValues(op).Inc()
	}
}

// fallback enforces the read-side totality contract: on error the documented
// zero value is returned instead.
func fallback[T any](s *Store, op string, zero T, fn func() (T, error)) T {
	v, err := fn()
	if err != nil {
		slog.Debug("analytics degraded", "op", op, "error", err)
		DegradedOps.WithLabelValues(op).Inc()
		return zero
	}
	return v
}
