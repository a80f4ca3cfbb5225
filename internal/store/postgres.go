// Package store provides storage backends for DebtBridge.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AddTurn(sessionID string, t models.Turn) error {
	_, err := s.db.Exec(`INSERT INTO turns (session_id, role, body, time) VALUES ($1, $2, $3, $4)`,
		sessionID, t.Role, t.Body, t.Time)
	if err != nil {
		slog.Error("PostgresStore AddTurn failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to insert turn for %s: %w", sessionID, err)
	}
	return nil
}

func (s *PostgresStore) GetTurns(sessionID string) ([]models.Turn, error) {
	rows, err := s.db.Query(`SELECT role, body, time FROM turns WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		slog.Error("PostgresStore GetTurns query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.Role, &t.Body, &t.Time); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	return turns, nil
}

func (s *PostgresStore) SaveSession(sess models.Session) error {
	_, err := s.db.Exec(`INSERT INTO sessions (id, channel, phone_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET channel = $2, phone_number = $3, status = $4, updated_at = $6`,
		sess.ID, sess.Channel, nilIfEmpty(sess.PhoneNumber), sess.Status, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, channel, phone_number, status, created_at, updated_at FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

func (s *PostgresStore) FindSessionByPhone(phone string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, channel, phone_number, status, created_at, updated_at FROM sessions
		WHERE phone_number = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1`,
		phone, models.SessionStatusActive)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore FindSessionByPhone failed", "error", err)
		return nil, fmt.Errorf("failed to find session by phone: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) ListSessions() ([]models.Session, error) {
	rows, err := s.db.Query(`SELECT id, channel, phone_number, status, created_at, updated_at FROM sessions ORDER BY created_at`)
	if err != nil {
		slog.Error("PostgresStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (s *PostgresStore) DeleteSession(id string) error {
	for _, q := range []string{
		`DELETE FROM turns WHERE session_id = $1`,
		`DELETE FROM session_states WHERE session_id = $1`,
		`DELETE FROM sessions WHERE id = $1`,
	} {
		if _, err := s.db.Exec(q, id); err != nil {
			slog.Error("PostgresStore DeleteSession failed", "error", err, "sessionID", id)
			return fmt.Errorf("failed to delete session %s: %w", id, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveSessionState(sessionID string, state models.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		slog.Error("PostgresStore SaveSessionState marshal failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to marshal state for %s: %w", sessionID, err)
	}
	_, err = s.db.Exec(`INSERT INTO session_states (session_id, step_index, state_data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET step_index = $2, state_data = $3, updated_at = $4`,
		sessionID, state.StepIndex, string(data), time.Now().UTC())
	if err != nil {
		slog.Error("PostgresStore SaveSessionState failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to save state for %s: %w", sessionID, err)
	}
	return nil
}

func (s *PostgresStore) GetSessionState(sessionID string) (*models.ConversationState, error) {
	var data string
	err := s.db.QueryRow(`SELECT state_data FROM session_states WHERE session_id = $1`, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSessionState failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to get state for %s: %w", sessionID, err)
	}
	return unmarshalState(sessionID, data)
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
