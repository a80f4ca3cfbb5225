package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// MockService is an in-memory Service implementation for tests. Sent
// messages are recorded, and inbound messages can be injected with
// SimulateInbound.
type MockService struct {
	receipts  chan models.Receipt
	responses chan models.Response
	mu        sync.RWMutex
	stopped   bool

	Sent []SentMessage
	Err  error
}

func NewMockService() *MockService {
	return &MockService{
		receipts:  make(chan models.Receipt, DefaultChannelBufferSize),
		responses: make(chan models.Response, DefaultChannelBufferSize),
	}
}

func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q", recipient)
	}
	return canonical, nil
}

func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrServiceStopped
	}
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMessage{To: to, Body: body})
	select {
	case m.receipts <- models.Receipt{To: to, Status: models.MessageStatusSent, Time: time.Now().Unix()}:
	default:
	}
	return nil
}

func (m *MockService) Start(ctx context.Context) error { return nil }

func (m *MockService) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	m.stopped = true
	close(m.receipts)
	close(m.responses)
	return nil
}

func (m *MockService) Receipts() <-chan models.Receipt {
	return m.receipts
}

func (m *MockService) Responses() <-chan models.Response {
	return m.responses
}

// SimulateInbound injects an inbound message as if it arrived via webhook.
func (m *MockService) SimulateInbound(from, body string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stopped {
		return
	}
	m.responses <- models.Response{From: from, Body: body, Time: time.Now().Unix()}
}

// SentBodies returns the bodies of all sent messages.
func (m *MockService) SentBodies() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bodies := make([]string, len(m.Sent))
	for i, sm := range m.Sent {
		bodies[i] = sm.Body
	}
	return bodies
}
