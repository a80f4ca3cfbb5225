package interrupt

import (
	"testing"

	"github.com/debtbridge/DebtBridge/internal/faq"
)

func TestClassifyReset(t *testing.T) {
	c := New(faq.Default())
	for _, u := range []string{"reset", "Restart", "start again", "START OVER"} {
		out := c.Classify(u, Input{})
		if !out.Handled || out.Kind != KindReset {
			t.Errorf("Classify(%q) = %+v, want reset", u, out)
		}
	}
}

func TestClassifyAckOnly(t *testing.T) {
	c := New(faq.Default())

	for _, u := range []string{"ok", "sure", "", "   "} {
		out := c.Classify(u, Input{})
		if !out.Handled || out.Kind != KindAckOnly {
			t.Errorf("Classify(%q) = %+v, want ack_only", u, out)
		}
	}

	// On a step that is waiting for a yes/no, "ok" is the answer.
	out := c.Classify("ok", Input{ExpectAffirmation: true})
	if out.Handled {
		t.Errorf("bare ack with ExpectAffirmation should pass through, got %+v", out)
	}
}

func TestClassifyGreeting(t *testing.T) {
	c := New(faq.Default())

	out := c.Classify("hello!", Input{})
	if !out.Handled || out.Kind != KindSmallTalk || out.Reply == "" {
		t.Fatalf("greeting: got %+v", out)
	}

	// Varied remark on repeat.
	again := c.Classify("hello!", Input{Seed: 1})
	if again.Reply == out.Reply {
		t.Error("repeated greeting should get a varied remark")
	}

	// Greeting carrying debt vocabulary is on topic.
	if out := c.Classify("hi, I owe a lot of money", Input{}); out.Handled {
		t.Errorf("greeting with debt content should pass through, got %+v", out)
	}
}

func TestClassifySmallTalkCapturesName(t *testing.T) {
	c := New(faq.Default())

	out := c.Classify("hi there, my name is Priya", Input{})
	if !out.Handled || out.Kind != KindSmallTalk {
		t.Fatalf("got %+v", out)
	}
	if out.Name != "Priya" {
		t.Errorf("volunteered name = %q, want Priya", out.Name)
	}

	// Once the name is known it is not re-captured.
	out = c.Classify("hi there, my name is Priya", Input{NameKnown: true})
	if out.Name != "" {
		t.Errorf("name should not be captured again, got %q", out.Name)
	}

	// A long greeting with substance but no name introduction still falls
	// through to extraction.
	out = c.Classify("hi there I was wondering about something else entirely", Input{})
	if out.Handled {
		t.Errorf("long greeting with substance should pass through, got %+v", out)
	}
}

func TestClassifyHowAreYou(t *testing.T) {
	c := New(faq.Default())
	out := c.Classify("how are you today?", Input{})
	if !out.Handled || out.Kind != KindSmallTalk {
		t.Fatalf("got %+v", out)
	}
}

func TestClassifyOffTopic(t *testing.T) {
	c := New(faq.Default())
	for _, u := range []string{"are you a robot?", "who made you?", "what can you do"} {
		out := c.Classify(u, Input{})
		if !out.Handled || out.Kind != KindOffTopic || out.Reply == "" {
			t.Errorf("Classify(%q) = %+v, want off_topic", u, out)
		}
	}
}

func TestClassifyFAQ(t *testing.T) {
	c := New(faq.Default())
	out := c.Classify("is this service free?", Input{})
	if !out.Handled || out.Kind != KindFAQ || out.Reply == "" {
		t.Fatalf("FAQ question: got %+v", out)
	}
}

func TestClassifyPassThrough(t *testing.T) {
	c := New(faq.Default())
	for _, u := range []string{
		"I owe about £3,000 on credit cards",
		"my landlord is threatening eviction",
		"Bob Smith",
	} {
		if out := c.Classify(u, Input{}); out.Handled {
			t.Errorf("Classify(%q) = %+v, want pass-through", u, out)
		}
	}
}

func TestClassifyNilKnowledgeBase(t *testing.T) {
	c := New(nil)
	if out := c.Classify("is this service free?", Input{}); out.Handled {
		t.Errorf("nil kb should skip FAQ stage, got %+v", out)
	}
}
