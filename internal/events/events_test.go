package events

import "testing"

func TestDisabledPublisherIsSafe(t *testing.T) {
	p, err := NewPublisher("")
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	// Must not panic or block.
	p.PublishTurn(TurnEvent{SessionID: "s1", StepIndex: 2})
	p.Close()
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	p.PublishTurn(TurnEvent{SessionID: "s1"})
	p.Close()
}
