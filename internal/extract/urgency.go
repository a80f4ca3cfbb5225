package extract

import (
	"strings"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// urgencyNegatives satisfy the urgency question with "none": the participant
// has no pressing deadline.
var urgencyNegatives = map[string]bool{
	"no": true, "nope": true, "nah": true, "none": true, "nothing": true,
	"not really": true, "no nothing": true, "nothing urgent": true,
	"not that i know of": true, "dont think so": true, "don't think so": true,
	"i dont think so": true, "i don't think so": true,
}

// urgencyMarkers indicate enforcement or deadline pressure anywhere in the
// reply.
var urgencyMarkers = []string{
	"bailiff", "court", "ccj", "default", "defaulted", "missed payment",
	"missed payments", "eviction", "evicted", "arrears", "summons",
	"enforcement", "debt collector", "collectors", "repossess", "cut off",
	"disconnection", "disconnect", "arrest", "priority bill", "rent arrears",
	"final notice", "final demand", "deadline", "overdue",
	"urgent", "tomorrow", "this week",
}

// UrgencyExtractor records whether the participant faces time pressure. Both a
// negative reply and a recognised marker satisfy the step; the answer's content
// differs but either way the question has been answered.
type UrgencyExtractor struct{}

// Extract implements Extractor.
func (e *UrgencyExtractor) Extract(utterance string, ctx Context) Result {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	if lower == "" {
		return Result{}
	}

	normalized := strings.Trim(lower, ".,!?")
	if urgencyNegatives[normalized] {
		return Result{Satisfied: true, Slots: models.Slots{UrgencyNote: "none"}}
	}

	for _, marker := range urgencyMarkers {
		if strings.Contains(lower, marker) {
			return Result{Satisfied: true, Slots: models.Slots{UrgencyFlag: true, UrgencyNote: marker}}
		}
	}
	return Result{}
}
