package extract

import (
	"strings"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// MinTextLength is the minimum trimmed length a free-text answer must have to
// count as substantive.
const MinTextLength = 3

// TextExtractor accepts any substantive free-text reply and stores it in the
// slot named by Field. It is also the fallback for unregistered slot kinds.
type TextExtractor struct {
	Field models.SlotKind
}

// Extract implements Extractor.
func (e *TextExtractor) Extract(utterance string, ctx Context) Result {
	trimmed := strings.TrimSpace(utterance)
	if len(trimmed) < MinTextLength {
		return Result{}
	}
	if !matchesHints(trimmed, ctx.Hints) {
		return Result{}
	}

	var slots models.Slots
	switch e.Field {
	case models.SlotConcern:
		slots.Concern = trimmed
	case models.SlotIssue:
		slots.Issue = trimmed
	default:
		slots.FreeText = trimmed
	}
	return Result{Satisfied: true, Slots: slots}
}

// matchesHints reports whether the text contains at least one hint keyword.
// Steps without hints accept any non-trivial text.
func matchesHints(text string, hints []string) bool {
	if len(hints) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, h := range hints {
		if strings.Contains(lower, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

