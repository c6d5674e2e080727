package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/socratic-labs/tutor/core/protocol"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL REFERENCES sessions(id),
	role           TEXT NOT NULL,
	raw_text       TEXT NOT NULL,
	sanitized_text TEXT NOT NULL DEFAULT '',
	intent         TEXT NOT NULL DEFAULT '',
	verdict        TEXT NOT NULL DEFAULT '',
	reason         TEXT NOT NULL DEFAULT '',
	rule_id        TEXT NOT NULL DEFAULT '',
	was_modified   INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`

// sqliteStore persists conversations to a SQLite database. Turn-pair
// atomicity comes from wrapping each Append in one transaction.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed Store at path.
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One pooled connection: writers queue instead of failing with
	// SQLITE_BUSY, and the pragmas below bind to every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) NewSession(ctx context.Context) (Session, error) {
	meta := Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at) VALUES (?, ?)",
		meta.ID, meta.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return meta, nil
}

func (s *sqliteStore) Append(ctx context.Context, sessionID string, turns ...protocol.Turn) error {
	if err := validateTurns(sessionID, turns); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)",
		sessionID, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}

	for _, turn := range turns {
		ts := turn.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns
			 (session_id, role, raw_text, sanitized_text, intent, verdict, reason, rule_id, was_modified, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, string(turn.Role), turn.RawText, turn.SanitizedText,
			string(turn.Intent), string(turn.Policy.Verdict), turn.Policy.Reason,
			turn.Policy.RuleID, turn.WasModified, ts.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("%w: %v", ErrAppendFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	return nil
}

func (s *sqliteStore) LoadHistory(ctx context.Context, sessionID string, limit int) ([]protocol.Turn, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sessions WHERE id = ?", sessionID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if exists == 0 {
		return nil, ErrSessionNotFound
	}

	query := `SELECT role, raw_text, sanitized_text, intent, verdict, reason, rule_id, was_modified, created_at
	          FROM turns WHERE session_id = ? ORDER BY id ASC`
	args := []any{sessionID}
	if limit > 0 {
		query = `SELECT role, raw_text, sanitized_text, intent, verdict, reason, rule_id, was_modified, created_at
		         FROM (SELECT * FROM turns WHERE session_id = ? ORDER BY id DESC LIMIT ?)
		         ORDER BY id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var turns []protocol.Turn
	for rows.Next() {
		var turn protocol.Turn
		var role, intent, verdict, createdAt string
		if err := rows.Scan(&role, &turn.RawText, &turn.SanitizedText, &intent,
			&verdict, &turn.Policy.Reason, &turn.Policy.RuleID, &turn.WasModified, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.SessionID = sessionID
		turn.Role = protocol.Role(role)
		turn.Intent = protocol.Intent(intent)
		turn.Policy.Verdict = protocol.Verdict(verdict)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			turn.Timestamp = ts
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (s *sqliteStore) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, created_at FROM sessions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var meta Session
		var createdAt string
		if err := rows.Scan(&meta.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			meta.CreatedAt = ts
		}
		sessions = append(sessions, meta)
	}
	return sessions, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
