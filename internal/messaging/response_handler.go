package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debtbridge/DebtBridge/internal/engine"
	"github.com/debtbridge/DebtBridge/internal/events"
	"github.com/debtbridge/DebtBridge/internal/models"
	"github.com/debtbridge/DebtBridge/internal/store"
)

// ResponseAction handles a single inbound message from a recipient. from is
// the canonical phone number, body the message text.
type ResponseAction func(ctx context.Context, from string, body string) error

// ResponseHandler routes inbound SMS responses. A per-recipient hook takes
// precedence when registered; everything else runs the dialogue engine
// against the stored transcript for that phone number.
type ResponseHandler struct {
	service Service
	st      store.Store
	eng     *engine.Engine
	pub     *events.Publisher

	mu    sync.RWMutex
	hooks map[string]ResponseAction
}

// NewResponseHandler creates a ResponseHandler. pub may be nil to disable
// event publishing.
func NewResponseHandler(service Service, st store.Store, eng *engine.Engine, pub *events.Publisher) *ResponseHandler {
	return &ResponseHandler{
		service: service,
		st:      st,
		eng:     eng,
		pub:     pub,
		hooks:   make(map[string]ResponseAction),
	}
}

// RegisterHook registers an action for a recipient, replacing any existing
// hook for the same number.
func (h *ResponseHandler) RegisterHook(recipient string, action ResponseAction) error {
	canonical, err := h.service.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		return fmt.Errorf("failed to canonicalize recipient %s: %w", recipient, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks[canonical] = action
	slog.Debug("ResponseHandler.RegisterHook: hook registered", "recipient", canonical)
	return nil
}

// UnregisterHook removes the hook for a recipient if one exists.
func (h *ResponseHandler) UnregisterHook(recipient string) {
	canonical, err := h.service.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		slog.Warn("ResponseHandler.UnregisterHook: invalid recipient", "recipient", recipient, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.hooks, canonical)
}

// IsHookRegistered reports whether a hook exists for the recipient.
func (h *ResponseHandler) IsHookRegistered(recipient string) bool {
	canonical, err := h.service.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.hooks[canonical]
	return ok
}

// Start consumes the service's Responses channel until ctx is cancelled or
// the channel closes.
func (h *ResponseHandler) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case resp, ok := <-h.service.Responses():
				if !ok {
					return
				}
				if err := h.ProcessResponse(ctx, resp); err != nil {
					slog.Error("ResponseHandler: failed to process response", "error", err, "from", resp.From)
				}
			}
		}
	}()
}

// ProcessResponse dispatches one inbound message: to a registered hook when
// present, otherwise to the dialogue engine.
func (h *ResponseHandler) ProcessResponse(ctx context.Context, resp models.Response) error {
	canonical, err := h.service.ValidateAndCanonicalizeRecipient(resp.From)
	if err != nil {
		return fmt.Errorf("failed to canonicalize sender %s: %w", resp.From, err)
	}

	h.mu.RLock()
	action, ok := h.hooks[canonical]
	h.mu.RUnlock()

	if ok {
		slog.Debug("ResponseHandler.ProcessResponse: running hook", "from", canonical)
		return action(ctx, canonical, resp.Body)
	}
	return h.runDialogue(ctx, canonical, resp.Body)
}

// runDialogue advances the stored conversation for a phone number and sends
// the engine's reply back over SMS. A session is created on first contact.
func (h *ResponseHandler) runDialogue(ctx context.Context, phone string, body string) error {
	sess, err := h.st.FindSessionByPhone(phone)
	if err != nil {
		return fmt.Errorf("failed to look up session for %s: %w", phone, err)
	}
	if sess == nil {
		now := time.Now()
		sess = &models.Session{
			ID:          uuid.New().String(),
			Channel:     "sms",
			PhoneNumber: phone,
			Status:      models.SessionStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := h.st.SaveSession(*sess); err != nil {
			return fmt.Errorf("failed to create session for %s: %w", phone, err)
		}
		slog.Info("ResponseHandler.runDialogue: new SMS session", "sessionID", sess.ID)
	}

	transcript, err := h.st.GetTurns(sess.ID)
	if err != nil {
		return fmt.Errorf("failed to load transcript for session %s: %w", sess.ID, err)
	}
	prior, err := h.st.GetSessionState(sess.ID)
	if err != nil {
		slog.Warn("ResponseHandler.runDialogue: state lookup failed, resyncing from transcript", "error", err, "sessionID", sess.ID)
		prior = nil
	}

	req := models.TurnRequest{Utterance: body, Transcript: transcript}
	if prior != nil {
		req.DeclaredStep = prior.StepIndex
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid inbound turn from %s: %w", phone, err)
	}

	out, state := h.eng.ProcessTurn(ctx, req, prior)

	now := time.Now().Unix()
	if err := h.st.AddTurn(sess.ID, models.Turn{Role: models.RoleUser, Body: body, Time: now}); err != nil {
		return fmt.Errorf("failed to record user turn for session %s: %w", sess.ID, err)
	}
	if err := h.st.AddTurn(sess.ID, models.Turn{Role: models.RoleAssistant, Body: out.Reply, Time: now}); err != nil {
		return fmt.Errorf("failed to record assistant turn for session %s: %w", sess.ID, err)
	}
	if err := h.st.SaveSessionState(sess.ID, state); err != nil {
		slog.Warn("ResponseHandler.runDialogue: failed to cache state", "error", err, "sessionID", sess.ID)
	}

	if err := h.service.SendMessage(ctx, phone, out.Reply); err != nil {
		return fmt.Errorf("failed to send reply to %s: %w", phone, err)
	}

	h.pub.PublishTurn(events.TurnEvent{
		SessionID: sess.ID,
		Channel:   sess.Channel,
		StepIndex: out.NextStep,
		Slots:     out.Slots,
		Time:      now,
	})
	return nil
}
