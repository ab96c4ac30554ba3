// Package store handles SQLite persistence of analyzed sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/neurosense/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite access for session history.
type Store struct {
	db *sql.DB
}

var (
	_ model.HistoryProvider = (*Store)(nil)
	_ model.HistoryRecorder = (*Store)(nil)
)

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL,
			event_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			speed REAL NOT NULL,
			consistency REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_patterns (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			PRIMARY KEY (session_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// NewRecord builds a history record for an analyzed session.
func NewRecord(source string, eventCount int, durationMs float64, metrics model.TypingMetrics, now time.Time) model.SessionRecord {
	return model.SessionRecord{
		ID:            uuid.NewString(),
		CreatedAt:     now.UTC(),
		Source:        source,
		EventCount:    eventCount,
		DurationMs:    int64(durationMs),
		TypingMetrics: metrics,
	}
}

// InsertSession stores an analyzed session and its pattern labels.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (err error) {
	if rec.ID == "" {
		return errors.New("session id is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, source, event_count, duration_ms, speed, consistency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.UTC().Format(timeLayout),
		rec.Source,
		rec.EventCount,
		rec.DurationMs,
		rec.Speed,
		rec.Consistency,
	); err != nil {
		return err
	}

	if len(rec.Pattern) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO session_patterns (session_id, position, label) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, label := range rec.Pattern {
			if _, err = stmt.ExecContext(ctx, rec.ID, i, label); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ListSessions returns stored sessions oldest first, filtered by q.
func (s *Store) ListSessions(ctx context.Context, q model.HistoryQuery) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if q.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, q.Source)
	}
	if q.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, q.Since.UTC().Format(timeLayout))
	}
	// A negative LIMIT means no limit in SQLite.
	limit := -1
	if q.Last > 0 {
		limit = q.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT s.id, s.created_at, s.source, s.event_count, s.duration_ms, s.speed, s.consistency, p.label
		FROM (
			SELECT rowid AS seq, id, created_at, source, event_count, duration_ms, speed, consistency
			FROM sessions
			WHERE %s
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) AS s
		LEFT JOIN session_patterns AS p ON p.session_id = s.id
		ORDER BY s.created_at ASC, s.seq ASC, p.position ASC`, strings.Join(clauses, " AND "))
	return s.querySessions(ctx, query, args...)
}

// GetSession returns one stored session or model.ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (model.SessionRecord, error) {
	records, err := s.querySessions(ctx,
		`SELECT s.id, s.created_at, s.source, s.event_count, s.duration_ms, s.speed, s.consistency, p.label
		 FROM sessions AS s
		 LEFT JOIN session_patterns AS p ON p.session_id = s.id
		 WHERE s.id = ?
		 ORDER BY p.position ASC`, id)
	if err != nil {
		return model.SessionRecord{}, err
	}
	if len(records) == 0 {
		return model.SessionRecord{}, model.ErrNotFound
	}
	return records[0], nil
}

// querySessions runs a sessions query joined with pattern labels. Rows of one
// session must be adjacent and ordered by label position.
func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]model.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var createdAt string
		var label sql.NullString
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Source, &rec.EventCount, &rec.DurationMs, &rec.Speed, &rec.Consistency, &label); err != nil {
			return nil, err
		}
		if n := len(records); n > 0 && records[n-1].ID == rec.ID {
			if label.Valid {
				records[n-1].Pattern = append(records[n-1].Pattern, label.String)
			}
			continue
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for session %s: %w", rec.ID, err)
		}
		rec.CreatedAt = parsed
		rec.Pattern = []string{}
		if label.Valid {
			rec.Pattern = append(rec.Pattern, label.String)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
