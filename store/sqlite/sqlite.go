/*
Package sqlite provides a SQLite-backed implementation of calendar.Store.

PURPOSE:
  Persists calendars, categories, events and replication run records. The
  browser editor used to keep everything in local storage; this store is
  the server-side replacement.

KEY TABLES:
  calendars:        One row per calendar (range, type)
  categories:       Per-calendar labels, system flag
  events:           Single-day entries, metadata as JSON
  replication_runs: Audit trail of applied replications

ORDERING:
  Events are listed by date, then by rowid. Upserts keep the rowid, so
  same-day events keep their insertion order across edits. The replication
  engine relies on this for its stable tie-break.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection so that
  ":memory:" databases are shared by every query.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on.
  Deleting a calendar cascades to its categories and events.

USAGE:
  store, err := sqlite.New("./data/calendars.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - calendar/store.go: Interface definition
  - calendar/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

// Store implements calendar.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		color TEXT,
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (calendar_id, id)
	);

	CREATE TABLE IF NOT EXISTS events (
		calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		category_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		date TEXT NOT NULL,
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		metadata TEXT,
		UNIQUE (calendar_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_calendar_date
		ON events(calendar_id, date);

	CREATE TABLE IF NOT EXISTS replication_runs (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		placed_count INTEGER NOT NULL,
		unplaced_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALENDARS
// =============================================================================

func (s *Store) SaveCalendar(ctx context.Context, cal calendar.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO calendars (id, name, type, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			end_date = excluded.end_date
	`

	createdAt := cal.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		string(cal.ID), cal.Name, string(cal.Type),
		cal.Range.Start.String(), cal.Range.End.String(),
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetCalendar(ctx context.Context, id calendar.CalendarID) (*calendar.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, type, start_date, end_date, created_at FROM calendars WHERE id = ?",
		string(id),
	)
	cal, err := scanCalendar(row)
	if err == sql.ErrNoRows {
		return nil, calendar.ErrCalendarNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cal, nil
}

func (s *Store) ListCalendars(ctx context.Context) ([]calendar.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, type, start_date, end_date, created_at FROM calendars ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calendars []calendar.Calendar
	for rows.Next() {
		cal, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, cal)
	}
	return calendars, rows.Err()
}

func (s *Store) DeleteCalendar(ctx context.Context, id calendar.CalendarID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM calendars WHERE id = ?", string(id))
	return affectedOrNotFound(res, err, calendar.ErrCalendarNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalendar(row rowScanner) (calendar.Calendar, error) {
	var cal calendar.Calendar
	var id, calType, start, end, createdAt string
	if err := row.Scan(&id, &cal.Name, &calType, &start, &end, &createdAt); err != nil {
		return cal, err
	}
	cal.ID = calendar.CalendarID(id)
	cal.Type = calendar.Type(calType)
	cal.Range.Start, _ = calendar.ParseDate(start)
	cal.Range.End, _ = calendar.ParseDate(end)
	cal.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return cal, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) SaveCategory(ctx context.Context, cat calendar.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO categories (calendar_id, id, name, color, is_system)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(calendar_id, id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			is_system = excluded.is_system
	`
	_, err := s.db.ExecContext(ctx, query,
		string(cat.CalendarID), string(cat.ID), cat.Name, nullString(cat.Color), cat.IsSystem,
	)
	if isForeignKeyError(err) {
		return calendar.ErrCalendarNotFound
	}
	return err
}

func (s *Store) GetCategory(ctx context.Context, calID calendar.CalendarID, id calendar.CategoryID) (*calendar.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT calendar_id, id, name, color, is_system FROM categories WHERE calendar_id = ? AND id = ?",
		string(calID), string(id),
	)
	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, calendar.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *Store) ListCategories(ctx context.Context, calID calendar.CalendarID) ([]calendar.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT calendar_id, id, name, color, is_system FROM categories WHERE calendar_id = ? ORDER BY name",
		string(calID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []calendar.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

func (s *Store) DeleteCategory(ctx context.Context, calID calendar.CalendarID, id calendar.CategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM categories WHERE calendar_id = ? AND id = ?",
		string(calID), string(id),
	)
	return affectedOrNotFound(res, err, calendar.ErrCategoryNotFound)
}

func scanCategory(row rowScanner) (calendar.Category, error) {
	var cat calendar.Category
	var calID, id string
	var color sql.NullString
	if err := row.Scan(&calID, &id, &cat.Name, &color, &cat.IsSystem); err != nil {
		return cat, err
	}
	cat.CalendarID = calendar.CalendarID(calID)
	cat.ID = calendar.CategoryID(id)
	cat.Color = color.String
	return cat, nil
}

// =============================================================================
// EVENTS
// =============================================================================

const upsertEvent = `
	INSERT INTO events (calendar_id, id, category_id, title, description, date, is_system, metadata)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(calendar_id, id) DO UPDATE SET
		category_id = excluded.category_id,
		title = excluded.title,
		description = excluded.description,
		date = excluded.date,
		is_system = excluded.is_system,
		metadata = excluded.metadata
`

func (s *Store) SaveEvent(ctx context.Context, ev calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveEvent(ctx, s.db, ev)
}

// SaveEvents persists multiple events atomically.
func (s *Store) SaveEvents(ctx context.Context, evs []calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range evs {
		if err := s.saveEvent(ctx, tx, ev); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) saveEvent(ctx context.Context, db interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, ev calendar.Event) error {
	var metadata sql.NullString
	if len(ev.Metadata) > 0 {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		metadata = sql.NullString{String: string(b), Valid: true}
	}

	_, err := db.ExecContext(ctx, upsertEvent,
		string(ev.CalendarID), string(ev.ID), nullString(string(ev.CategoryID)),
		ev.Title, nullString(ev.Description), ev.Date.String(), ev.IsSystem, metadata,
	)
	if isForeignKeyError(err) {
		return calendar.ErrCalendarNotFound
	}
	return err
}

func (s *Store) GetEvent(ctx context.Context, calID calendar.CalendarID, id calendar.EventID) (*calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT calendar_id, id, category_id, title, description, date, is_system, metadata
		FROM events WHERE calendar_id = ? AND id = ?`,
		string(calID), string(id),
	)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, calendar.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *Store) ListEvents(ctx context.Context, calID calendar.CalendarID) ([]calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT calendar_id, id, category_id, title, description, date, is_system, metadata
		FROM events WHERE calendar_id = ?
		ORDER BY date ASC, rowid ASC`,
		string(calID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []calendar.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) DeleteEvent(ctx context.Context, calID calendar.CalendarID, id calendar.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM events WHERE calendar_id = ? AND id = ?",
		string(calID), string(id),
	)
	return affectedOrNotFound(res, err, calendar.ErrEventNotFound)
}

func scanEvent(row rowScanner) (calendar.Event, error) {
	var ev calendar.Event
	var calID, id, date string
	var categoryID, description, metadata sql.NullString
	if err := row.Scan(&calID, &id, &categoryID, &ev.Title, &description, &date, &ev.IsSystem, &metadata); err != nil {
		return ev, err
	}
	ev.CalendarID = calendar.CalendarID(calID)
	ev.ID = calendar.EventID(id)
	ev.CategoryID = calendar.CategoryID(categoryID.String)
	ev.Description = description.String
	ev.Date, _ = calendar.ParseDate(date)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &ev.Metadata); err != nil {
			return ev, fmt.Errorf("decode metadata for event %s: %w", id, err)
		}
	}
	return ev, nil
}

// =============================================================================
// REPLICATION RUNS
// =============================================================================

func (s *Store) SaveReplicationRun(ctx context.Context, run calendar.ReplicationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replication_runs (id, source_id, target_id, strategy, placed_count, unplaced_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.SourceID), string(run.TargetID), run.Strategy,
		run.PlacedCount, run.UnplacedCount, run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListReplicationRuns returns runs newest first.
func (s *Store) ListReplicationRuns(ctx context.Context) ([]calendar.ReplicationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, target_id, strategy, placed_count, unplaced_count, created_at
		FROM replication_runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []calendar.ReplicationRun
	for rows.Next() {
		var run calendar.ReplicationRun
		var sourceID, targetID, createdAt string
		if err := rows.Scan(&run.ID, &sourceID, &targetID, &run.Strategy,
			&run.PlacedCount, &run.UnplacedCount, &createdAt); err != nil {
			return nil, err
		}
		run.SourceID = calendar.CalendarID(sourceID)
		run.TargetID = calendar.CalendarID(targetID)
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func affectedOrNotFound(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

var _ calendar.Store = (*Store)(nil)
