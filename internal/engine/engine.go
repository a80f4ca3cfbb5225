// Package engine implements the dialogue progression state machine: one user
// utterance in, one reply out, with the transcript as the sole source of truth
// for position. The engine owns no storage; callers append both turns and
// round-trip the advisory conversation state.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/debtbridge/DebtBridge/internal/directive"
	"github.com/debtbridge/DebtBridge/internal/extract"
	"github.com/debtbridge/DebtBridge/internal/genai"
	"github.com/debtbridge/DebtBridge/internal/interrupt"
	"github.com/debtbridge/DebtBridge/internal/models"
	"github.com/debtbridge/DebtBridge/internal/script"
)

// recentHistoryLength is how many trailing turns accompany a generation call.
const recentHistoryLength = 4

// wrapUpMessage is the short terminal reply used once the final step has
// already been answered.
const wrapUpMessage = "Thanks {name}, I've noted that for the adviser. That's everything for now, they'll be in touch soon."

// ScriptSource supplies the current script. The loader satisfies it for
// hot-reloaded file scripts; Static wraps a fixed one.
type ScriptSource interface {
	Current() *script.Script
}

type staticSource struct{ s *script.Script }

func (s staticSource) Current() *script.Script { return s.s }

// Static returns a ScriptSource that always serves the given script.
func Static(s *script.Script) ScriptSource { return staticSource{s: s} }

// Engine is the dialogue progression engine. It is stateless across turns and
// safe for concurrent use by independent sessions.
type Engine struct {
	scripts    ScriptSource
	classifier *interrupt.Classifier
	gen        genai.ClientInterface
}

// New creates an Engine. gen may be nil to disable generated phrasing; every
// path then uses scripted text.
func New(scripts ScriptSource, classifier *interrupt.Classifier, gen genai.ClientInterface) *Engine {
	return &Engine{scripts: scripts, classifier: classifier, gen: gen}
}

// ProcessTurn runs one dialogue turn. prior is the caller's cached state from
// the previous round-trip and may be nil, stale, or forged: the step index is
// revalidated against the transcript, so only the retry counters and prompt
// fingerprint are ever taken on trust. The returned state supersedes prior.
//
// ProcessTurn is a pure function of (transcript, utterance, prior) and is
// therefore safely retryable with identical inputs.
func (e *Engine) ProcessTurn(ctx context.Context, req models.TurnRequest, prior *models.ConversationState) (models.TurnResponse, models.ConversationState) {
	sc := e.scripts.Current()

	state := models.NewConversationState()
	if prior != nil {
		// Clone so bumping retry counters never mutates the caller's copy.
		state = prior.Clone()
	}
	if req.DeclaredSlots != nil {
		state.Slots = state.Slots.Merge(*req.DeclaredSlots)
	}

	// A fresh session emits the opening line verbatim, exactly once.
	if len(req.Transcript) == 0 {
		state.StepIndex = 0
		return e.respond(sc.Step(0), state)
	}

	declared := req.DeclaredStep
	if prior != nil && prior.StepIndex > declared {
		declared = prior.StepIndex
	}
	idx := resyncIndex(sc, req.Transcript, declared)
	state.StepIndex = idx
	step := sc.Step(idx)

	expectAffirmation := step.Slot == models.SlotAcknowledgement || step.Slot == models.SlotConsent
	out := e.classifier.Classify(req.Utterance, interrupt.Input{
		NameKnown:         state.Slots.Name != "",
		ExpectAffirmation: expectAffirmation,
		Seed:              len(req.Transcript),
	})
	if out.Handled {
		return e.handleInterrupt(ctx, out, req, sc, step, state)
	}

	if idx >= sc.LastIndex() {
		return e.terminalTurn(req.Utterance, step, state)
	}

	res := extract.Run(step.Slot, req.Utterance, extract.Context{
		Retry:   state.RetryCount(step.Slot),
		Current: state.Slots,
		Hints:   step.Hints,
	})
	state.Slots = state.Slots.Merge(res.Slots)

	if res.Satisfied {
		state.ResetRetry(step.Slot)
		state.StepIndex = nextIndex(sc, idx)
		return e.respond(sc.Step(state.StepIndex), state)
	}

	if state.RetryCount(step.Slot) < models.RetryCap {
		retry := state.BumpRetry(step.Slot)
		reply := reaskText(step, res.Hint, retry-1)
		reply = varyReply(reply, state.LastPromptFingerprint)
		return e.respondText(reply, state)
	}

	// Retry cap reached: degrade the slot to its placeholder value and
	// force-advance so the dialogue can never wedge on one step.
	slog.Info("Engine.ProcessTurn: retry cap reached, force-advancing",
		"step", idx, "slot", step.Slot)
	state.Slots = state.Slots.Merge(placeholderSlots(step.Slot))
	state.ResetRetry(step.Slot)
	state.StepIndex = nextIndex(sc, idx)
	return e.respond(sc.Step(state.StepIndex), state)
}

// nextIndex advances exactly one step, then applies the gating clamp: a step
// whose floor is above the computed index jumps forward to the floor.
func nextIndex(sc *script.Script, idx int) int {
	next := idx + 1
	if next > sc.LastIndex() {
		return sc.LastIndex()
	}
	if floor := sc.Step(next).MinIndex; floor > next {
		next = floor
		if next > sc.LastIndex() {
			next = sc.LastIndex()
		}
	}
	return next
}

func (e *Engine) handleInterrupt(ctx context.Context, out interrupt.Outcome, req models.TurnRequest, sc *script.Script, step script.Step, state models.ConversationState) (models.TurnResponse, models.ConversationState) {
	switch out.Kind {
	case interrupt.KindReset:
		fresh := models.NewConversationState()
		return e.respond(sc.Step(0), fresh)
	case interrupt.KindAckOnly:
		// Re-emit the current prompt unchanged. Does not consume the step and
		// does not touch retry counters.
		return e.respond(step, state)
	default:
		if out.Name != "" && state.Slots.Name == "" {
			state.Slots.Name = out.Name
		}
		remark := e.maybeGenerate(ctx, req.Utterance, req.Transcript, out.Reply)
		reply := remark + " " + renderPrompt(step, state.Slots)
		return e.respondText(reply, state)
	}
}

// terminalTurn handles turns after the last step has been reached: the slot is
// still captured if the reply satisfies it, but the index never advances.
func (e *Engine) terminalTurn(utterance string, step script.Step, state models.ConversationState) (models.TurnResponse, models.ConversationState) {
	res := extract.Run(step.Slot, utterance, extract.Context{Current: state.Slots, Hints: step.Hints})
	if res.Satisfied {
		state.Slots = state.Slots.Merge(res.Slots)
		return e.respondText(renderPrompt(script.Step{Prompt: wrapUpMessage}, state.Slots), state)
	}
	return e.respond(step, state)
}

// maybeGenerate asks the optional generator for a conversational rendering of
// scripted. Any failure silently falls back to the scripted text.
func (e *Engine) maybeGenerate(ctx context.Context, utterance string, transcript []models.Turn, scripted string) string {
	if e.gen == nil {
		return scripted
	}
	history := transcript
	if len(history) > recentHistoryLength {
		history = history[len(history)-recentHistoryLength:]
	}
	generated, err := e.gen.Generate(ctx, utterance, history, scripted)
	if err != nil {
		slog.Debug("Engine.maybeGenerate: generator unavailable, using scripted text", "error", err)
		return scripted
	}
	return generated
}

// reaskText picks the re-ask phrasing for the given retry ordinal: an
// extractor-supplied hint wins, then the step's scripted variants in
// escalation order, then the original prompt.
func reaskText(step script.Step, hint string, ordinal int) string {
	if hint != "" {
		return hint
	}
	if len(step.Reask) > 0 {
		if ordinal >= len(step.Reask) {
			ordinal = len(step.Reask) - 1
		}
		return step.Reask[ordinal]
	}
	return step.Prompt
}

// placeholderSlots is the documented degraded value per slot kind used on
// force-advance. Consent degrades to declined: sharing never happens by
// default.
func placeholderSlots(kind models.SlotKind) models.Slots {
	switch kind {
	case models.SlotName:
		return models.Slots{}
	case models.SlotConcern:
		return models.Slots{Concern: "unspecified"}
	case models.SlotIssue:
		return models.Slots{Issue: "unspecified"}
	case models.SlotUrgency:
		return models.Slots{UrgencyNote: "unknown"}
	case models.SlotAcknowledgement:
		return models.Slots{Acknowledged: "unanswered"}
	case models.SlotConsent:
		return models.Slots{ConsentGiven: models.ConsentDeclined}
	default:
		// Amounts and free text stay unset; an adviser collects them later.
		return models.Slots{}
	}
}

// renderPrompt substitutes the {name} placeholder. Without a captured name the
// neutral address "there" keeps the sentence natural.
func renderPrompt(step script.Step, slots models.Slots) string {
	name := slots.Name
	if name == "" {
		name = extract.PlaceholderName
	}
	return strings.ReplaceAll(step.Prompt, "{name}", name)
}

func (e *Engine) respond(step script.Step, state models.ConversationState) (models.TurnResponse, models.ConversationState) {
	return e.respondText(renderPrompt(step, state.Slots), state)
}

func (e *Engine) respondText(reply string, state models.ConversationState) (models.TurnResponse, models.ConversationState) {
	clean, dirs := directive.Parse(reply)
	state.LastPromptFingerprint = Fingerprint(clean)
	return models.TurnResponse{
		Reply:      clean,
		NextStep:   state.StepIndex,
		Slots:      state.Slots,
		Directives: dirs,
	}, state
}
