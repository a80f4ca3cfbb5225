package extract

import (
	"strings"

	"github.com/debtbridge/DebtBridge/internal/models"
)

var affirmatives = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "y": true,
	"ok": true, "okay": true, "sure": true, "fine": true, "alright": true,
	"all right": true, "sounds good": true, "go ahead": true, "go on": true,
	"of course": true, "definitely": true, "absolutely": true, "please": true,
	"yes please": true, "ok sure": true, "got it": true, "understood": true,
	"makes sense": true, "that works": true, "lets do it": true,
	"let's do it": true, "im in": true, "i'm in": true, "happy to": true,
	"i agree": true, "agreed": true, "thats fine": true, "that's fine": true,
}

// courtesyAcks are closing remarks that acknowledge without answering
// anything. They are kept out of affirmatives so "thanks" can never stand in
// for consent; the interrupt classifier treats them as bare acknowledgements
// and re-emits the pending prompt.
var courtesyAcks = map[string]bool{
	"thanks": true, "thank you": true, "thanks a lot": true, "many thanks": true,
	"ty": true, "ta": true, "cheers": true, "cool": true, "nice": true,
	"great": true, "lovely": true, "fair enough": true, "good to know": true,
	"i see": true, "right": true, "noted": true,
}

var negatives = map[string]bool{
	"no": true, "nope": true, "nah": true, "n": true, "no thanks": true,
	"no thank you": true, "not really": true, "rather not": true,
	"id rather not": true, "i'd rather not": true, "not now": true,
	"not yet": true, "maybe later": true, "dont want to": true,
	"don't want to": true, "no way": true, "not interested": true,
}

// AffirmationExtractor handles acknowledgement and consent steps. A decline is
// a complete answer, not a failure: both a yes and a no satisfy the step, so a
// participant who declines still moves forward rather than being re-asked into
// agreement.
type AffirmationExtractor struct {
	Kind models.SlotKind
}

// Extract implements Extractor.
func (e *AffirmationExtractor) Extract(utterance string, ctx Context) Result {
	normalized := normalizeAffirmation(utterance)
	if normalized == "" {
		return Result{}
	}

	positive, ok := classifyAffirmation(normalized)
	if !ok {
		return Result{}
	}

	var slots models.Slots
	if e.Kind == models.SlotConsent {
		if positive {
			slots.ConsentGiven = models.ConsentGiven
		} else {
			slots.ConsentGiven = models.ConsentDeclined
		}
	} else {
		if positive {
			slots.Acknowledged = "yes"
		} else {
			slots.Acknowledged = "declined"
		}
	}
	return Result{Satisfied: true, Slots: slots}
}

func normalizeAffirmation(utterance string) string {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	lower = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?':
			return -1
		}
		return r
	}, lower)
	return strings.Join(strings.Fields(lower), " ")
}

// classifyAffirmation checks negatives first so phrases like "no thanks" are
// not caught by a leading-word affirmative scan.
func classifyAffirmation(normalized string) (positive, ok bool) {
	if negatives[normalized] {
		return false, true
	}
	if affirmatives[normalized] {
		return true, true
	}
	// Longer replies still count when they open with a clear yes or no.
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return false, false
	}
	switch words[0] {
	case "no", "nope", "nah":
		return false, true
	case "yes", "yeah", "yep", "yup", "sure", "okay", "ok", "absolutely", "definitely":
		return true, true
	}
	return false, false
}

// IsBareAcknowledgement reports whether the utterance is a standalone
// affirmative or courtesy remark with no other content, e.g. "ok", "sure",
// "thanks". The interrupt classifier uses it to re-emit the current prompt
// instead of advancing when no answer is actually expected.
func IsBareAcknowledgement(utterance string) bool {
	normalized := normalizeAffirmation(utterance)
	return affirmatives[normalized] || courtesyAcks[normalized]
}
