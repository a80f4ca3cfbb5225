// Package events publishes turn-processed notifications over NATS for
// downstream consumers (analytics, adviser dashboards). Publishing is strictly
// best-effort: a missing or unreachable broker degrades to a no-op and never
// blocks a dialogue turn.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/debtbridge/DebtBridge/internal/models"
	"github.com/debtbridge/DebtBridge/internal/util"
)

// SubjectTurnProcessed is the NATS subject for completed dialogue turns.
const SubjectTurnProcessed = "debtbridge.turn.processed"

// TurnEvent is emitted after every processed turn.
type TurnEvent struct {
	// ID is a correlation handle for consumers; PublishTurn fills it in
	// when left empty.
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Channel   string       `json:"channel"`
	StepIndex int          `json:"step_index"`
	Slots     models.Slots `json:"slots"`
	Time      int64        `json:"time"`
}

// Publisher emits turn events. A nil Publisher and a Publisher without a
// connection are both valid and publish nothing.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to the NATS server at url. An empty url returns a
// disabled publisher rather than an error so deployments without a broker
// need no special casing.
func NewPublisher(url string) (*Publisher, error) {
	if url == "" {
		slog.Info("events.NewPublisher: no NATS URL configured, event publishing disabled")
		return &Publisher{}, nil
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(util.ParseIntEnv("NATS_MAX_RECONNECTS", 60)),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("events: nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("events: nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc}, nil
}

// PublishTurn emits a turn event. Failures are logged and swallowed.
func (p *Publisher) PublishTurn(ev TurnEvent) {
	if p == nil || p.conn == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = util.GenerateTurnID()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("events.PublishTurn: marshal failed", "error", err, "sessionID", ev.SessionID)
		return
	}
	if err := p.conn.Publish(SubjectTurnProcessed, payload); err != nil {
		slog.Warn("events.PublishTurn: publish failed", "error", err, "sessionID", ev.SessionID)
	}
}

// Close releases the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
