package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/onenight/partyclient/internal/connection"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS frames (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	direction  TEXT    NOT NULL,
	action     TEXT    NOT NULL,
	payload    BLOB    NOT NULL,
	at_ms      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS frames_session_idx ON frames (session_id, id);
`

// SQLiteStore journals frames to a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens path, which may be ":memory:".
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: SQLite has a single writer, and each ":memory:"
	// connection would otherwise be a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create frames table: %w", err)
	}
	return nil
}

// WriteFrames inserts frames in a single transaction.
func (s *SQLiteStore) WriteFrames(ctx context.Context, frames []connection.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO frames (session_id, direction, action, payload, at_ms) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range frames {
		if _, err := stmt.ExecContext(ctx, f.SessionID, string(f.Direction), f.Action, f.Payload, toMillis(f.At)); err != nil {
			return fmt.Errorf("insert frame: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Recent returns the newest matching frames, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, f Filter) ([]connection.Frame, error) {
	query := `SELECT session_id, direction, action, payload, at_ms FROM frames`
	var (
		where []string
		args  []any
	)
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limitOf(f))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []connection.Frame
	for rows.Next() {
		var (
			fr   connection.Frame
			dir  string
			atMs int64
		)
		if err := rows.Scan(&fr.SessionID, &dir, &fr.Action, &fr.Payload, &atMs); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		fr.Direction = connection.Direction(dir)
		fr.At = fromMillis(atMs)
		frames = append(frames, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}

	reverse(frames)
	return frames, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
