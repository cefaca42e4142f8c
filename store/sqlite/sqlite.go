/*
Package sqlite provides the SQLite-backed persistence for the alert engine.

PURPOSE:
  Two concerns live here:
    1. Calendar sources - the per-year JSON override records uploaded by
       operators. The factory Loader reads these before falling back to
       built-in presets or the synthesized rule.
    2. Alert log - an append-only record of every dispatched alert. The
       scheduler consults it for once-per-day-per-offset duplicate
       suppression; the engine itself stays stateless.

APPEND-ONLY ENFORCEMENT:
  The alert log has no UPDATE or DELETE path. A wrong alert is corrected
  by operators reading the audit trail, not by rewriting history.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block,
  a single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/opex.db")   // ":memory:" for tests
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - factory/calendar.go: SourceStore consumer
  - api/scheduler.go: Alert log producer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements factory.SourceStore and the alert log using SQLite.
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
	-- Per-year calendar source records (JSON, operator-managed)
	CREATE TABLE IF NOT EXISTS calendar_sources (
		year INTEGER PRIMARY KEY,
		source_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Alert log (append-only audit trail; no UPDATE/DELETE path)
	CREATE TABLE IF NOT EXISTS alert_log (
		id TEXT PRIMARY KEY,
		alert_type TEXT NOT NULL,
		event_kind TEXT NOT NULL,
		event_date TEXT NOT NULL,
		offset_days INTEGER NOT NULL,
		effective_date TEXT NOT NULL,
		fired_on TEXT NOT NULL,
		message TEXT,
		created_at TEXT NOT NULL
	);

	-- Duplicate suppression lookup (hot path on every scheduler tick)
	CREATE INDEX IF NOT EXISTS idx_alert_log_dedup
		ON alert_log(alert_type, event_kind, event_date, offset_days, fired_on);
	CREATE INDEX IF NOT EXISTS idx_alert_log_created
		ON alert_log(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALENDAR SOURCES
// =============================================================================

// SaveSource upserts the source JSON for a year.
func (s *Store) SaveSource(ctx context.Context, year int, sourceJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_sources (year, source_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET
			source_json = excluded.source_json,
			updated_at = excluded.updated_at`,
		year, sourceJSON, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save source for %d: %w", year, err)
	}
	return nil
}

// GetSource returns the source JSON for a year. found=false means the
// store is healthy but holds no record for the year.
func (s *Store) GetSource(ctx context.Context, year int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sourceJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT source_json FROM calendar_sources WHERE year = ?`, year).Scan(&sourceJSON)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get source for %d: %w", year, err)
	}
	return sourceJSON, true, nil
}

// ListSourceYears returns the years with a stored source, ascending.
func (s *Store) ListSourceYears(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT year FROM calendar_sources ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("failed to list source years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// DeleteSource removes a year's source record. The built-in preset (if
// any) becomes visible again on the next reload.
func (s *Store) DeleteSource(ctx context.Context, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM calendar_sources WHERE year = ?`, year)
	return err
}

// =============================================================================
// ALERT LOG
// =============================================================================

// AlertRecord is one dispatched alert.
type AlertRecord struct {
	ID            string
	AlertType     string // "offset" or "weekly"
	EventKind     string
	EventDate     string // ISO-8601 date of the event (window start for weekly)
	OffsetDays    int
	EffectiveDate string // weekend-normalized date the alert was for
	FiredOn       string // ISO-8601 date of the tick that fired it
	Message       string
	CreatedAt     time.Time
}

// LogAlert appends one record. There is deliberately no update path.
func (s *Store) LogAlert(ctx context.Context, rec AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_log
			(id, alert_type, event_kind, event_date, offset_days, effective_date, fired_on, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AlertType, rec.EventKind, rec.EventDate, rec.OffsetDays,
		rec.EffectiveDate, rec.FiredOn, rec.Message, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to log alert: %w", err)
	}
	return nil
}

// WasAlertLogged reports whether an equivalent alert was already logged
// on the given tick date. The scheduler uses this to keep each
// (event, offset) pair to one alert per day.
func (s *Store) WasAlertLogged(ctx context.Context, alertType, eventKind, eventDate string, offsetDays int, firedOn string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM alert_log
		WHERE alert_type = ? AND event_kind = ? AND event_date = ?
		  AND offset_days = ? AND fired_on = ?`,
		alertType, eventKind, eventDate, offsetDays, firedOn).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check alert log: %w", err)
	}
	return count > 0, nil
}

// ListAlerts returns the most recent alerts, newest first.
func (s *Store) ListAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, alert_type, event_kind, event_date, offset_days, effective_date, fired_on, message, created_at
		FROM alert_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var rec AlertRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.AlertType, &rec.EventKind, &rec.EventDate,
			&rec.OffsetDays, &rec.EffectiveDate, &rec.FiredOn, &rec.Message, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}
