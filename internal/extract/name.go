package extract

import (
	"regexp"
	"strings"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// PlaceholderName is the degraded identity used when the retry cap is reached
// without a usable name; the script's {name} placeholder renders naturally with it.
const PlaceholderName = "there"

// leadInPattern captures up to two tokens after an explicit name lead-in phrase.
var leadInPattern = regexp.MustCompile(`(?i)\b(?:my name is|my name's|name is|call me|i am|i'm|im|it's|its|this is)\s+([A-Za-z][A-Za-z'-]*)(?:\s+([A-Za-z][A-Za-z'-]*))?`)

var alphaToken = regexp.MustCompile(`^[A-Za-z][A-Za-z'-]*$`)

// nameStopwords are tokens that can follow a lead-in phrase or arrive as a short
// reply without being anyone's name.
var nameStopwords = map[string]bool{
	"yes": true, "no": true, "ok": true, "okay": true, "yeah": true, "yep": true,
	"nah": true, "hi": true, "hello": true, "hey": true, "thanks": true,
	"thank": true, "please": true, "dunno": true, "nothing": true, "none": true,
	"what": true, "why": true, "who": true, "how": true, "help": true,
	"sorry": true, "fine": true, "good": true, "bad": true, "not": true,
	"really": true, "maybe": true, "sure": true, "right": true, "well": true,
	"just": true, "very": true, "here": true, "struggling": true, "trying": true,
	"looking": true, "going": true, "worried": true, "scared": true,
	"anonymous": true, "nobody": true, "been": true, "being": true,
	"um": true, "umm": true, "ummm": true, "uh": true, "er": true,
	"erm": true, "hmm": true, "hmmm": true, "eh": true,
	"a": true, "an": true, "the": true, "so": true, "too": true, "all": true,
	"still": true, "getting": true, "feeling": true, "having": true,
	"currently": true, "honestly": true, "actually": true, "about": true,
	"by": true, "way": true, "and": true, "but": true, "with": true,
	"for": true, "from": true, "in": true, "on": true, "at": true,
	"of": true, "to": true,
}

// nameProfanity triggers the escalating re-ask sequence instead of a plain retry.
var nameProfanity = map[string]bool{
	"fuck": true, "fucking": true, "shit": true, "crap": true, "dick": true,
	"arse": true, "ass": true, "bastard": true, "bollocks": true, "piss": true,
	"wanker": true, "twat": true, "prick": true,
}

// nameDebtVocab rejects debt-domain words that would otherwise pass as short
// alphabetic replies, e.g. answering the name question with "Debt".
var nameDebtVocab = map[string]bool{
	"debt": true, "debts": true, "loan": true, "loans": true, "money": true,
	"credit": true, "broke": true, "skint": true, "bankrupt": true,
	"bankruptcy": true, "bailiff": true, "bailiffs": true, "overdraft": true,
	"mortgage": true, "rent": true, "bills": true,
}

// profanityReasks escalate with distinct phrasing per retry. The cap on retries,
// not this list, is what guarantees the dialogue moves on.
var profanityReasks = []string{
	"Let's keep things friendly. What should I actually call you?",
	"I understand this is stressful, but I do need something to call you. A first name is fine.",
	"One more try: any name at all works, even a nickname.",
}

// NameExtractor extracts the participant's name. It only ever looks at explicit
// lead-in phrases or short standalone replies; it never scans inside long free
// text for a name-looking substring, which avoids capturing words like
// "Struggling" out of "I've been struggling".
type NameExtractor struct{}

// Extract implements Extractor.
func (e *NameExtractor) Extract(utterance string, ctx Context) Result {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return Result{}
	}

	if name, ok := NameFromLeadIn(trimmed); ok {
		return Result{Satisfied: true, Slots: models.Slots{Name: name}}
	}

	tokens := strings.Fields(trimmed)
	if containsProfanity(tokens) {
		return Result{Hint: profanityReasks[min(ctx.Retry, len(profanityReasks)-1)]}
	}

	// A short, purely alphabetic reply counts as a name only while the engine is
	// actively expecting one, which is the only mode this extractor runs in.
	if name, ok := nameFromShortReply(tokens); ok {
		return Result{Satisfied: true, Slots: models.Slots{Name: name}}
	}

	return Result{}
}

// NameFromLeadIn extracts a name introduced by an explicit lead-in phrase
// ("my name is", "call me", ...). Exposed for the small-talk classifier, which
// opportunistically captures volunteered names.
func NameFromLeadIn(text string) (string, bool) {
	m := leadInPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	first := strings.ToLower(m[1])
	if nameStopwords[first] || nameProfanity[first] || nameDebtVocab[first] {
		return "", false
	}
	name := titleCase(m[1])
	if m[2] != "" {
		second := strings.ToLower(m[2])
		if !nameStopwords[second] && !nameProfanity[second] && !nameDebtVocab[second] {
			name += " " + titleCase(m[2])
		}
	}
	return name, true
}

func nameFromShortReply(tokens []string) (string, bool) {
	if len(tokens) == 0 || len(tokens) > 3 {
		return "", false
	}
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		cleaned := strings.Trim(tok, ".,!?")
		if !alphaToken.MatchString(cleaned) {
			return "", false
		}
		lower := strings.ToLower(cleaned)
		if nameStopwords[lower] || nameProfanity[lower] || nameDebtVocab[lower] {
			return "", false
		}
		parts = append(parts, titleCase(cleaned))
	}
	return strings.Join(parts, " "), true
}

func containsProfanity(tokens []string) bool {
	for _, tok := range tokens {
		if nameProfanity[strings.ToLower(strings.Trim(tok, ".,!?"))] {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
