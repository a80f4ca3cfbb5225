package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/debtbridge/DebtBridge/internal/events"
	"github.com/debtbridge/DebtBridge/internal/models"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var req models.SessionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.createSessionHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	if req.Channel == "" {
		req.Channel = "web"
	}

	var phone string
	if req.Channel == "sms" {
		phone = nonDigits.ReplaceAllString(req.PhoneNumber, "")
		if len(phone) < 6 {
			slog.Warn("Server.createSessionHandler: invalid phone number", "phone", req.PhoneNumber)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("A valid phone number is required for sms sessions"))
			return
		}
	}

	now := time.Now()
	sess := models.Session{
		ID:          uuid.New().String(),
		Channel:     req.Channel,
		PhoneNumber: phone,
		Status:      models.SessionStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.st.SaveSession(sess); err != nil {
		slog.Error("Server.createSessionHandler: failed to save session", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}

	slog.Info("Server.createSessionHandler: session created", "sessionID", sess.ID, "channel", sess.Channel)
	writeJSONResponse(w, http.StatusCreated, models.Success(sess))
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.st.ListSessions()
	if err != nil {
		slog.Error("Server.listSessionsHandler: failed to list sessions", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list sessions"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sessions))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.st.GetSession(id)
	if err != nil {
		slog.Error("Server.getSessionHandler: lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if sess == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess))
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.st.GetSession(id)
	if err != nil {
		slog.Error("Server.deleteSessionHandler: lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if sess == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	if err := s.st.DeleteSession(id); err != nil {
		slog.Error("Server.deleteSessionHandler: delete failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}
	slog.Info("Server.deleteSessionHandler: session deleted", "sessionID", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

// turnRequestBody is the turn endpoint payload. The transcript is never
// accepted from the client; the stored transcript is the ground truth.
type turnRequestBody struct {
	Utterance     string        `json:"utterance"`
	DeclaredStep  int           `json:"declared_step,omitempty"`
	DeclaredSlots *models.Slots `json:"declared_slots,omitempty"`
}

func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id := chi.URLParam(r, "id")

	sess, err := s.st.GetSession(id)
	if err != nil {
		slog.Error("Server.turnHandler: session lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if sess == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	var body turnRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("Server.turnHandler: failed to decode JSON", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	transcript, err := s.st.GetTurns(id)
	if err != nil {
		slog.Error("Server.turnHandler: failed to load transcript", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load transcript"))
		return
	}

	req := models.TurnRequest{
		Utterance:     body.Utterance,
		Transcript:    transcript,
		DeclaredStep:  body.DeclaredStep,
		DeclaredSlots: body.DeclaredSlots,
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.turnHandler: validation failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	prior, err := s.st.GetSessionState(id)
	if err != nil {
		slog.Warn("Server.turnHandler: state lookup failed, resyncing from transcript", "error", err, "sessionID", id)
		prior = nil
	}

	out, state := s.eng.ProcessTurn(r.Context(), req, prior)

	now := time.Now().Unix()
	if err := s.st.AddTurn(id, models.Turn{Role: models.RoleUser, Body: body.Utterance, Time: now}); err != nil {
		slog.Error("Server.turnHandler: failed to record user turn", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to record turn"))
		return
	}
	if err := s.st.AddTurn(id, models.Turn{Role: models.RoleAssistant, Body: out.Reply, Time: now}); err != nil {
		slog.Error("Server.turnHandler: failed to record assistant turn", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to record turn"))
		return
	}
	if err := s.st.SaveSessionState(id, state); err != nil {
		slog.Warn("Server.turnHandler: failed to cache state", "error", err, "sessionID", id)
	}

	sess.UpdatedAt = time.Now()
	if out.NextStep >= s.scripts.Current().LastIndex() && out.Slots.FreeText != "" {
		sess.Status = models.SessionStatusCompleted
	}
	if err := s.st.SaveSession(*sess); err != nil {
		slog.Warn("Server.turnHandler: failed to update session", "error", err, "sessionID", id)
	}

	s.pub.PublishTurn(events.TurnEvent{
		SessionID: id,
		Channel:   sess.Channel,
		StepIndex: out.NextStep,
		Slots:     out.Slots,
		Time:      now,
	})

	writeJSONResponse(w, http.StatusOK, models.Success(out))
}

func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.st.GetSession(id)
	if err != nil {
		slog.Error("Server.transcriptHandler: lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if sess == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	turns, err := s.st.GetTurns(id)
	if err != nil {
		slog.Error("Server.transcriptHandler: failed to load transcript", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load transcript"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(turns))
}

// resetSessionHandler clears a session's transcript and cached state so the
// conversation restarts from the first step.
func (s *Server) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.st.GetSession(id)
	if err != nil {
		slog.Error("Server.resetSessionHandler: lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if sess == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	// Deleting the session drops its transcript and state; re-saving keeps
	// the same session ID with a fresh lifecycle.
	if err := s.st.DeleteSession(id); err != nil {
		slog.Error("Server.resetSessionHandler: reset failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reset session"))
		return
	}
	sess.Status = models.SessionStatusActive
	sess.UpdatedAt = time.Now()
	if err := s.st.SaveSession(*sess); err != nil {
		slog.Error("Server.resetSessionHandler: failed to re-save session", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reset session"))
		return
	}

	slog.Info("Server.resetSessionHandler: session reset", "sessionID", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session reset", sess))
}
