package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanSession scans a Session from a single sql.Row.
func scanSession(row *sql.Row) (*models.Session, error) {
	var sess models.Session
	var phone sql.NullString
	err := row.Scan(&sess.ID, &sess.Channel, &phone, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sess.PhoneNumber = phone.String
	return &sess, nil
}

// collectSessions drains sql.Rows of session records.
func collectSessions(rows *sql.Rows) ([]models.Session, error) {
	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		var phone sql.NullString
		if err := rows.Scan(&sess.ID, &sess.Channel, &phone, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session failed: %w", err)
		}
		sess.PhoneNumber = phone.String
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows failed: %w", err)
	}
	return sessions, nil
}

// unmarshalState decodes a cached conversation state snapshot. A corrupt
// snapshot is logged and treated as absent; the engine rebuilds from the
// transcript anyway.
func unmarshalState(sessionID, data string) (*models.ConversationState, error) {
	var state models.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		slog.Error("store unmarshalState failed, discarding snapshot", "error", err, "sessionID", sessionID)
		return nil, nil
	}
	if state.Retries == nil {
		state.Retries = make(map[models.SlotKind]int)
	}
	return &state, nil
}
