package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/debtbridge/DebtBridge/internal/faq"
	"github.com/debtbridge/DebtBridge/internal/genai"
	"github.com/debtbridge/DebtBridge/internal/interrupt"
	"github.com/debtbridge/DebtBridge/internal/models"
	"github.com/debtbridge/DebtBridge/internal/script"
)

func newTestEngine(gen genai.ClientInterface) *Engine {
	return New(Static(script.DefaultScript()), interrupt.New(faq.Default()), gen)
}

// conversation drives an engine the way the API layer does: it appends the
// user turn and the reply to the transcript and round-trips the state.
type conversation struct {
	engine     *Engine
	transcript []models.Turn
	state      *models.ConversationState
}

func (c *conversation) say(t *testing.T, utterance string) models.TurnResponse {
	t.Helper()
	resp, state := c.engine.ProcessTurn(context.Background(), models.TurnRequest{
		Utterance:  utterance,
		Transcript: c.transcript,
	}, c.state)
	if utterance != "" {
		c.transcript = append(c.transcript, models.Turn{Role: models.RoleUser, Body: utterance})
	}
	c.transcript = append(c.transcript, models.Turn{Role: models.RoleAssistant, Body: resp.Reply})
	c.state = &state
	return resp
}

func TestFreshSessionOpeningLine(t *testing.T) {
	e := newTestEngine(nil)
	resp, state := e.ProcessTurn(context.Background(), models.TurnRequest{}, nil)

	if resp.NextStep != 0 || state.StepIndex != 0 {
		t.Errorf("fresh session step = %d", resp.NextStep)
	}
	if !strings.Contains(resp.Reply, "what should I call you") {
		t.Errorf("opening line = %q", resp.Reply)
	}
	if strings.Contains(resp.Reply, "[UI:") {
		t.Errorf("directive tag leaked into reply: %q", resp.Reply)
	}
	if resp.Directives["widget"] != "chat_intro" {
		t.Errorf("directives = %v", resp.Directives)
	}
}

func TestHappyPathAdvancesOneStepPerTurn(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "") // opening

	resp := c.say(t, "my name is Bob")
	if resp.NextStep != 1 {
		t.Fatalf("after name: step = %d, want 1", resp.NextStep)
	}
	if !strings.Contains(resp.Reply, "Thanks Bob") {
		t.Errorf("prompt should address Bob, got %q", resp.Reply)
	}

	resp = c.say(t, "I'm drowning in credit card debt")
	if resp.NextStep != 2 || resp.Slots.Concern == "" {
		t.Fatalf("after concern: %+v", resp)
	}

	resp = c.say(t, "I lost my job last year and it spiralled")
	if resp.NextStep != 3 {
		t.Fatalf("after issue: step = %d, want 3", resp.NextStep)
	}
	if resp.Directives["widget"] != "amount_helper" {
		t.Errorf("amounts step directives = %v", resp.Directives)
	}

	resp = c.say(t, "I pay £600 and could afford £200")
	if resp.NextStep != 4 {
		t.Fatalf("after amounts: step = %d, want 4", resp.NextStep)
	}
	if resp.Slots.PayingAmount != 600 || resp.Slots.AffordableAmount != 200 {
		t.Errorf("amounts = %v/%v", resp.Slots.PayingAmount, resp.Slots.AffordableAmount)
	}

	resp = c.say(t, "not really")
	if resp.NextStep != 5 {
		t.Fatalf("after urgency: step = %d, want 5", resp.NextStep)
	}

	resp = c.say(t, "yes that sounds good")
	if resp.NextStep != 6 {
		t.Fatalf("after acknowledgement: step = %d, want 6", resp.NextStep)
	}
	if resp.Directives["popup"] != "portal_signup" {
		t.Errorf("consent step directives = %v", resp.Directives)
	}

	resp = c.say(t, "yes, go ahead")
	if resp.NextStep != 7 || resp.Slots.ConsentGiven != models.ConsentGiven {
		t.Fatalf("after consent: %+v", resp)
	}
	if !strings.Contains(resp.Reply, "Bob") {
		t.Errorf("terminal prompt should address Bob, got %q", resp.Reply)
	}
}

func TestPartialAmountsAccumulateAcrossTurns(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")
	c.say(t, "credit card debt everywhere")
	c.say(t, "an unexpected medical bill started it")

	resp := c.say(t, "I pay about £600 a month")
	if resp.NextStep != 3 {
		t.Fatalf("one amount should stay on step 3, got %d", resp.NextStep)
	}
	if !strings.Contains(resp.Reply, "afford") {
		t.Errorf("re-ask should target the missing amount, got %q", resp.Reply)
	}

	resp = c.say(t, "maybe 200")
	if resp.NextStep != 4 {
		t.Fatalf("second amount should complete the step, got %d", resp.NextStep)
	}
	if resp.Slots.PayingAmount != 600 || resp.Slots.AffordableAmount != 200 {
		t.Errorf("amounts = %v/%v, want 600/200", resp.Slots.PayingAmount, resp.Slots.AffordableAmount)
	}
}

func TestLivenessForceAdvanceAtCap(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")

	// RetryCap unsatisfying answers re-ask; the next one force-advances.
	for i := 0; i < models.RetryCap; i++ {
		resp := c.say(t, "blah blah blah blah")
		if resp.NextStep != 0 {
			t.Fatalf("attempt %d: step = %d, want 0", i, resp.NextStep)
		}
	}
	resp := c.say(t, "blah blah blah blah")
	if resp.NextStep != 1 {
		t.Fatalf("after cap: step = %d, want force-advance to 1", resp.NextStep)
	}
	// Degraded identity renders the neutral address.
	if !strings.Contains(resp.Reply, "Thanks there") {
		t.Errorf("placeholder prompt = %q", resp.Reply)
	}
}

func TestReasksEscalateAndNeverRepeatVerbatim(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")

	seen := map[string]bool{}
	var last string
	for i := 0; i < models.RetryCap; i++ {
		resp := c.say(t, "blah blah blah blah")
		if resp.Reply == last {
			t.Fatalf("attempt %d repeated verbatim: %q", i, resp.Reply)
		}
		seen[resp.Reply] = true
		last = resp.Reply
	}
	if len(seen) != models.RetryCap {
		t.Errorf("expected %d distinct re-asks, got %d", models.RetryCap, len(seen))
	}
}

func TestNonRepetitionWithSingleReask(t *testing.T) {
	// A step with one scripted re-ask would naively repeat itself; the engine
	// must vary the second occurrence.
	sc := &script.Script{
		Name: "single-reask",
		Steps: []script.Step{
			{Index: 0, Slot: models.SlotUrgency, Prompt: "Anything urgent going on?",
				Reask: []string{"Any enforcement or priority bills behind?"}},
			{Index: 1, Slot: models.SlotFreeText, Prompt: "Anything else?"},
		},
	}
	c := &conversation{engine: New(Static(sc), interrupt.New(nil), nil)}
	c.say(t, "")

	first := c.say(t, "hmm let me think")
	second := c.say(t, "hmm let me think")
	if second.Reply == first.Reply {
		t.Fatalf("second re-ask repeated verbatim: %q", second.Reply)
	}
	if Fingerprint(second.Reply) == Fingerprint(first.Reply) {
		t.Error("second re-ask should carry a different fingerprint")
	}
}

func TestAcknowledgementDoesNotConsumeStep(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")

	before := c.state.Retries[models.SlotConcern]
	resp := c.say(t, "ok")
	if resp.NextStep != 1 {
		t.Fatalf("ack advanced the step: %d", resp.NextStep)
	}
	if c.state.Retries[models.SlotConcern] != before {
		t.Error("ack should not touch retry counters")
	}
	if !strings.Contains(resp.Reply, "worrying you most") {
		t.Errorf("ack should re-emit the current prompt, got %q", resp.Reply)
	}
}

func TestCourtesyWordDoesNotFillHintlessSlot(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")
	c.say(t, "I'm behind on my credit cards")

	// The issue step has no keyword hints, so anything that reaches its
	// extractor is accepted. "thanks" must be absorbed before extraction.
	resp := c.say(t, "thanks")
	if resp.NextStep != 2 {
		t.Fatalf("step advanced on bare acknowledgement: %d", resp.NextStep)
	}
	if resp.Slots.Issue != "" {
		t.Errorf("issue slot consumed by acknowledgement word: %q", resp.Slots.Issue)
	}
}

func TestAffirmationAnswersConsentInsteadOfDetour(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")
	c.say(t, "debts are piling up")
	c.say(t, "a divorce started it")
	c.say(t, "600 and 200")
	c.say(t, "no")
	resp := c.say(t, "ok")
	if resp.NextStep != 6 {
		t.Fatalf("bare ok on acknowledgement step should answer it, step = %d", resp.NextStep)
	}
	if resp.Slots.Acknowledged != "yes" {
		t.Errorf("acknowledged = %q", resp.Slots.Acknowledged)
	}
}

func TestDeclinedConsentStillAdvances(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")
	c.say(t, "debts are piling up")
	c.say(t, "a divorce started it")
	c.say(t, "600 and 200")
	c.say(t, "no")
	c.say(t, "yes")

	resp := c.say(t, "I'd rather not")
	if resp.NextStep != 7 {
		t.Fatalf("declined consent should advance, step = %d", resp.NextStep)
	}
	if resp.Slots.ConsentGiven != models.ConsentDeclined {
		t.Errorf("consent = %q", resp.Slots.ConsentGiven)
	}
}

func TestResetClearsEverything(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")
	c.say(t, "credit cards")

	resp := c.say(t, "reset")
	if resp.NextStep != 0 {
		t.Fatalf("reset step = %d, want 0", resp.NextStep)
	}
	if resp.Slots.Name != "" || resp.Slots.Concern != "" {
		t.Errorf("reset should clear slots, got %+v", resp.Slots)
	}
	if !strings.Contains(resp.Reply, "what should I call you") {
		t.Errorf("reset should re-emit the opening line, got %q", resp.Reply)
	}
}

func TestResetSticksOnFollowingTurns(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")
	c.say(t, "credit cards")
	c.say(t, "reset")

	// Resync must not re-find pre-reset prompts in the transcript and jump
	// the dialogue past the opening slots again.
	resp := c.say(t, "Alice")
	if resp.Slots.Name != "Alice" {
		t.Errorf("post-reset name = %q, want Alice", resp.Slots.Name)
	}
	if resp.NextStep != 1 {
		t.Errorf("post-reset step = %d, want 1; reply=%q", resp.NextStep, resp.Reply)
	}
	if resp.Slots.Concern != "" {
		t.Errorf("pre-reset concern leaked through: %q", resp.Slots.Concern)
	}

	resp = c.say(t, "my energy bills keep climbing")
	if resp.NextStep != 2 {
		t.Errorf("step after concern = %d, want 2", resp.NextStep)
	}
}

func TestFAQDetourKeepsStep(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")

	resp := c.say(t, "is this service free?")
	if resp.NextStep != 1 {
		t.Fatalf("FAQ detour advanced the step: %d", resp.NextStep)
	}
	if !strings.Contains(resp.Reply, "free") {
		t.Errorf("reply should carry the FAQ answer, got %q", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "worrying you most") {
		t.Errorf("reply should re-emit the current prompt, got %q", resp.Reply)
	}
}

func TestSmallTalkCapturesVolunteeredName(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")

	resp := c.say(t, "hi there, my name is actually Robert")
	if resp.Slots.Name != "Bob" {
		t.Errorf("known name should not be overwritten, got %q", resp.Slots.Name)
	}

	// On a fresh conversation the greeting's volunteered name is kept.
	c2 := &conversation{engine: newTestEngine(nil)}
	c2.say(t, "")
	c2.say(t, "Priya")
	c2.say(t, "money worries with my loans")
	resp = c2.say(t, "hello, how are you?")
	if resp.NextStep != 2 {
		t.Errorf("small talk advanced the step: %d", resp.NextStep)
	}
}

func TestPriorStateIsNotMutated(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")

	prior := *c.state
	priorRetries := make(map[models.SlotKind]int)
	for k, v := range prior.Retries {
		priorRetries[k] = v
	}

	// An unsatisfying name reply bumps the retry counter in the returned
	// state only; the caller's copy must stay untouched.
	c.say(t, "ummm")
	if len(prior.Retries) != len(priorRetries) {
		t.Fatalf("prior retry map mutated: %v", prior.Retries)
	}
	for k, v := range priorRetries {
		if prior.Retries[k] != v {
			t.Errorf("prior retry counter for %s changed to %d", k, prior.Retries[k])
		}
	}
	if c.state.Retries[models.SlotName] != 1 {
		t.Errorf("returned state retry = %d, want 1", c.state.Retries[models.SlotName])
	}
}

func TestIdempotentUnderRetry(t *testing.T) {
	e := newTestEngine(nil)
	sc := script.DefaultScript()
	transcript := []models.Turn{
		{Role: models.RoleAssistant, Body: renderPrompt(sc.Step(0), models.Slots{})},
	}
	req := models.TurnRequest{Utterance: "my name is Bob", Transcript: transcript}

	first, firstState := e.ProcessTurn(context.Background(), req, nil)
	second, secondState := e.ProcessTurn(context.Background(), req, nil)
	if first.Reply != second.Reply || first.NextStep != second.NextStep {
		t.Errorf("retry diverged: %+v vs %+v", first, second)
	}
	if firstState.StepIndex != secondState.StepIndex {
		t.Errorf("state diverged: %d vs %d", firstState.StepIndex, secondState.StepIndex)
	}
}

func TestForgedDeclaredStateCannotSkipGates(t *testing.T) {
	e := newTestEngine(nil)
	sc := script.DefaultScript()
	// Transcript shows the conversation is really on step 1.
	transcript := []models.Turn{
		{Role: models.RoleAssistant, Body: renderPrompt(sc.Step(0), models.Slots{})},
		{Role: models.RoleUser, Body: "Bob"},
		{Role: models.RoleAssistant, Body: renderPrompt(sc.Step(1), models.Slots{Name: "Bob"})},
	}

	// Caller claims step 0: resync corrects forward to 1, not back.
	resp, _ := e.ProcessTurn(context.Background(), models.TurnRequest{
		Utterance:    "the card debt mostly",
		Transcript:   transcript,
		DeclaredStep: 0,
	}, nil)
	if resp.NextStep != 2 {
		t.Errorf("declared-behind turn should run step 1 and advance to 2, got %d", resp.NextStep)
	}
}

func TestGatingClampJumpsToFloor(t *testing.T) {
	sc := &script.Script{
		Name: "gated",
		Steps: []script.Step{
			{Index: 0, Slot: models.SlotName, Prompt: "What's your name?"},
			{Index: 1, Slot: models.SlotConsent, MinIndex: 3, Prompt: "Can I share your details?"},
			{Index: 2, Slot: models.SlotConcern, Prompt: "What's worrying you?"},
			{Index: 3, Slot: models.SlotConsent, Prompt: "Ready to proceed?"},
			{Index: 4, Slot: models.SlotFreeText, Prompt: "Anything else?"},
		},
	}
	c := &conversation{engine: New(Static(sc), interrupt.New(nil), nil)}
	c.say(t, "")
	resp := c.say(t, "Bob")
	if resp.NextStep != 3 {
		t.Fatalf("gated step should clamp forward to its floor, got %d", resp.NextStep)
	}
}

func TestTerminalStepNeverAdvances(t *testing.T) {
	c := &conversation{engine: newTestEngine(nil)}
	c.say(t, "")
	c.say(t, "Bob")
	c.say(t, "debts are piling up")
	c.say(t, "a divorce started it")
	c.say(t, "600 and 200")
	c.say(t, "no")
	c.say(t, "yes")
	c.say(t, "yes, go ahead")

	resp := c.say(t, "please tell them I work nights")
	if resp.NextStep != 7 {
		t.Fatalf("terminal step advanced: %d", resp.NextStep)
	}
	if resp.Slots.FreeText == "" {
		t.Error("terminal free text should still be captured")
	}

	again := c.say(t, "that's all")
	if again.NextStep != 7 {
		t.Errorf("terminal step advanced on repeat: %d", again.NextStep)
	}
}

type fakeGen struct {
	reply string
	err   error
	calls int
}

func (f *fakeGen) Generate(ctx context.Context, utterance string, history []models.Turn, promptHint string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestGeneratorRewritesDetourRemark(t *testing.T) {
	gen := &fakeGen{reply: "Ha, good one. Anyway."}
	c := &conversation{engine: newTestEngine(gen)}
	c.say(t, "")
	c.say(t, "Bob")

	resp := c.say(t, "tell me a joke")
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}
	if !strings.Contains(resp.Reply, "Ha, good one.") {
		t.Errorf("generated remark missing: %q", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "worrying you most") {
		t.Errorf("scripted prompt must still follow: %q", resp.Reply)
	}
}

func TestGeneratorFailureFallsBackToScript(t *testing.T) {
	gen := &fakeGen{err: errors.New("unavailable")}
	c := &conversation{engine: newTestEngine(gen)}
	c.say(t, "")
	c.say(t, "Bob")

	resp := c.say(t, "tell me a joke")
	if resp.NextStep != 1 {
		t.Fatalf("detour advanced the step: %d", resp.NextStep)
	}
	if !strings.Contains(resp.Reply, "worrying you most") {
		t.Errorf("fallback should keep scripted text, got %q", resp.Reply)
	}
}
