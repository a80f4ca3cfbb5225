// Package store provides storage backends for DebtBridge.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; the directory is created
// if it does not exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddTurn(sessionID string, t models.Turn) error {
	_, err := s.db.Exec(`INSERT INTO turns (session_id, role, body, time) VALUES (?, ?, ?, ?)`,
		sessionID, t.Role, t.Body, t.Time)
	if err != nil {
		slog.Error("SQLiteStore AddTurn failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to insert turn for %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLiteStore) GetTurns(sessionID string) ([]models.Turn, error) {
	rows, err := s.db.Query(`SELECT role, body, time FROM turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore GetTurns query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.Role, &t.Body, &t.Time); err != nil {
			slog.Error("SQLiteStore GetTurns scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	return turns, nil
}

func (s *SQLiteStore) SaveSession(sess models.Session) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sessions (id, channel, phone_number, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Channel, nilIfEmpty(sess.PhoneNumber), sess.Status, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, channel, phone_number, status, created_at, updated_at FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

func (s *SQLiteStore) FindSessionByPhone(phone string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, channel, phone_number, status, created_at, updated_at FROM sessions
		WHERE phone_number = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		phone, models.SessionStatusActive)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore FindSessionByPhone failed", "error", err)
		return nil, fmt.Errorf("failed to find session by phone: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) ListSessions() ([]models.Session, error) {
	rows, err := s.db.Query(`SELECT id, channel, phone_number, status, created_at, updated_at FROM sessions ORDER BY created_at`)
	if err != nil {
		slog.Error("SQLiteStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (s *SQLiteStore) DeleteSession(id string) error {
	for _, q := range []string{
		`DELETE FROM turns WHERE session_id = ?`,
		`DELETE FROM session_states WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := s.db.Exec(q, id); err != nil {
			slog.Error("SQLiteStore DeleteSession failed", "error", err, "sessionID", id)
			return fmt.Errorf("failed to delete session %s: %w", id, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveSessionState(sessionID string, state models.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		slog.Error("SQLiteStore SaveSessionState marshal failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to marshal state for %s: %w", sessionID, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO session_states (session_id, step_index, state_data, updated_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, state.StepIndex, string(data), time.Now().UTC())
	if err != nil {
		slog.Error("SQLiteStore SaveSessionState failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to save state for %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSessionState(sessionID string) (*models.ConversationState, error) {
	var data string
	err := s.db.QueryRow(`SELECT state_data FROM session_states WHERE session_id = ?`, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSessionState failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to get state for %s: %w", sessionID, err)
	}
	return unmarshalState(sessionID, data)
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
