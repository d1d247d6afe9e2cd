package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		scam_confidence INTEGER NOT NULL DEFAULT 0,
		intelligence_json TEXT NOT NULL,
		agent_notes TEXT NOT NULL DEFAULT '',
		scam_detected INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL,
		last_updated INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_position ON sessions(position);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_updated ON sessions(last_updated);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSession retrieves a session by its id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, status, messages_json, scam_confidence,
		       intelligence_json, agent_notes, scam_detected, last_updated
		FROM sessions WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return sess, nil
}

// UpsertSession creates or replaces a session record.
func (s *SQLiteStore) UpsertSession(ctx context.Context, session *domain.Session) error {
	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	intelJSON, err := json.Marshal(session.Intelligence)
	if err != nil {
		return fmt.Errorf("marshal intelligence: %w", err)
	}

	// position orders List output by insertion; an update keeps the
	// original position. scam_detected is OR-ed so the flag never reverts.
	query := `
	INSERT INTO sessions (id, status, messages_json, scam_confidence,
		intelligence_json, agent_notes, scam_detected, position, last_updated)
	VALUES (?, ?, ?, ?, ?, ?, ?,
		(SELECT COALESCE(MAX(position), 0) + 1 FROM sessions), ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		messages_json = excluded.messages_json,
		scam_confidence = excluded.scam_confidence,
		intelligence_json = excluded.intelligence_json,
		agent_notes = excluded.agent_notes,
		scam_detected = sessions.scam_detected OR excluded.scam_detected,
		last_updated = excluded.last_updated`

	scamDetected := 0
	if session.ScamDetected {
		scamDetected = 1
	}

	_, err = s.db.ExecContext(ctx, query,
		session.ID, string(session.Status), string(messagesJSON),
		session.ScamConfidence, string(intelJSON), session.AgentNotes,
		scamDetected, session.LastUpdated.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// ListSessions returns all sessions in insertion order. Rows that fail to
// decode are logged and skipped so one corrupt record cannot take down the
// dashboard.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	query := `
		SELECT id, status, messages_json, scam_confidence,
		       intelligence_json, agent_notes, scam_detected, last_updated
		FROM sessions ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			slog.Error("Skipping undecodable session row", "error", err)
			continue
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// CountSessions returns the number of stored sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// CleanupExpiredSessions removes sessions not updated within ttl.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_updated < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var sess domain.Session
	var status, messagesJSON, intelJSON string
	var scamDetected int
	var lastUpdated int64

	err := row.Scan(
		&sess.ID, &status, &messagesJSON, &sess.ScamConfidence,
		&intelJSON, &sess.AgentNotes, &scamDetected, &lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(messagesJSON), &sess.Messages); err != nil {
		return nil, fmt.Errorf("decode messages for %s: %w", sess.ID, err)
	}
	if err := json.Unmarshal([]byte(intelJSON), &sess.Intelligence); err != nil {
		return nil, fmt.Errorf("decode intelligence for %s: %w", sess.ID, err)
	}

	sess.Status = domain.Status(status)
	sess.ScamDetected = scamDetected != 0
	sess.LastUpdated = time.UnixMilli(lastUpdated)
	return &sess, nil
}
