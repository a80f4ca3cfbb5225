// Package extract implements the slot extractors: independent, pure functions that
// map a raw utterance to either an extracted slot value or a "not satisfied" signal
// plus a re-prompt hint.
//
// Extractors are registered per slot kind, mirroring how prompt generators register
// per prompt type elsewhere in the codebase, so the engine dispatches through one
// common interface and each heuristic is unit-testable in isolation.
package extract

import (
	"log/slog"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// Context carries the per-turn inputs an extractor may consult besides the
// utterance itself. Extractors are pure functions of (utterance, Context).
type Context struct {
	// Retry is the number of unsatisfying attempts already made for this slot.
	Retry int
	// Current holds the slots extracted so far; the amounts extractor accumulates
	// into partially filled amount slots across turns.
	Current models.Slots
	// Hints is the step's keyword hint list, a weak relevance signal.
	Hints []string
}

// Result is an extractor's verdict for one utterance.
type Result struct {
	// Satisfied reports whether the slot question has been answered.
	Satisfied bool
	// Slots carries the extracted values to merge into the conversation state.
	// Partial progress (e.g. one of two amounts) may be present even when
	// Satisfied is false.
	Slots models.Slots
	// Hint optionally overrides the step's scripted re-ask phrasing, e.g. the
	// escalating responses to a profane name attempt. Empty means "use the script".
	Hint string
}

// Extractor maps an utterance to a Result for one slot kind.
type Extractor interface {
	Extract(utterance string, ctx Context) Result
}

var registry = make(map[models.SlotKind]Extractor)

// Register associates a SlotKind with an Extractor implementation.
func Register(kind models.SlotKind, ex Extractor) {
	registry[kind] = ex
}

// Get retrieves the Extractor for a given slot kind.
func Get(kind models.SlotKind) (Extractor, bool) {
	ex, ok := registry[kind]
	return ex, ok
}

// Run finds and runs the extractor for the slot kind. An unknown kind is treated
// as free text so a misconfigured script degrades instead of wedging the dialogue.
func Run(kind models.SlotKind, utterance string, ctx Context) Result {
	if ex, ok := Get(kind); ok {
		return ex.Extract(utterance, ctx)
	}
	slog.Warn("extract.Run: no extractor registered for slot kind, treating as free text", "kind", kind)
	return (&TextExtractor{}).Extract(utterance, ctx)
}

// Register default extractors.
func init() {
	Register(models.SlotName, &NameExtractor{})
	Register(models.SlotConcern, &TextExtractor{Field: models.SlotConcern})
	Register(models.SlotIssue, &TextExtractor{Field: models.SlotIssue})
	Register(models.SlotFreeText, &TextExtractor{Field: models.SlotFreeText})
	Register(models.SlotAmounts, &AmountsExtractor{})
	Register(models.SlotUrgency, &UrgencyExtractor{})
	Register(models.SlotAcknowledgement, &AffirmationExtractor{Kind: models.SlotAcknowledgement})
	Register(models.SlotConsent, &AffirmationExtractor{Kind: models.SlotConsent})
}
