// Package interrupt classifies detour utterances that should be answered
// without consuming the current dialogue step: reset commands, bare
// acknowledgements, greetings and small talk, off-topic questions about the
// agent, and FAQ lookups. The chain runs in fixed priority order before slot
// extraction; whatever it handles, the current step's prompt is re-emitted
// afterwards so the dialogue never loses its place.
package interrupt

import (
	"regexp"
	"strings"

	"github.com/debtbridge/DebtBridge/internal/extract"
	"github.com/debtbridge/DebtBridge/internal/faq"
)

// Kind identifies which classifier in the chain handled the utterance.
type Kind string

const (
	KindNone      Kind = ""
	KindReset     Kind = "reset"
	KindAckOnly   Kind = "ack_only"
	KindSmallTalk Kind = "small_talk"
	KindOffTopic  Kind = "off_topic"
	KindFAQ       Kind = "faq"
)

// Input carries the per-turn context the chain consults.
type Input struct {
	// NameKnown suppresses opportunistic name capture once the name slot is set.
	NameKnown bool
	// ExpectAffirmation disables the acknowledgement-only stage on steps where a
	// bare "ok" is the answer being waited for.
	ExpectAffirmation bool
	// Seed varies canned small-talk remarks so a repeated greeting does not get
	// a verbatim repeated reply.
	Seed int
}

// Outcome is the chain's verdict. When Handled is true the engine replies with
// Reply (possibly empty for resets and bare acks) followed by the current
// prompt, without running extraction.
type Outcome struct {
	Handled bool
	Kind    Kind
	// Reply is the detour text to place before the re-emitted prompt.
	Reply string
	// Name is a volunteered name captured during small talk, empty otherwise.
	Name string
}

var resetCommands = map[string]bool{
	"reset": true, "restart": true, "start again": true, "start over": true,
	"begin again": true,
}

// IsResetCommand reports whether the utterance is an exact restart request.
// The resynchronizer uses it to ignore transcript history from before the
// most recent reset.
func IsResetCommand(utterance string) bool {
	return resetCommands[normalize(strings.TrimSpace(utterance))]
}

var greetingPattern = regexp.MustCompile(`(?i)^(hi|hiya|hello|hey|howdy|good (morning|afternoon|evening)|yo)\b`)

var smallTalkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhow are you\b`),
	regexp.MustCompile(`(?i)\bhow's it going\b`),
	regexp.MustCompile(`(?i)\bwhat time is it\b`),
	regexp.MustCompile(`(?i)\btell me a joke\b`),
	regexp.MustCompile(`(?i)\bnice to meet you\b`),
	regexp.MustCompile(`(?i)\bwhat('s| is) the weather\b`),
}

// offTopicPattern matches interrogatives aimed at the agent itself rather than
// the participant's situation.
var offTopicPattern = regexp.MustCompile(`(?i)\b(are you (a |an )?(bot|robot|human|real|ai)|what are you|who (are|made) you|who is this|what can you do|how do you work)\b`)

// debtVocabulary blocks the greeting and off-topic classifiers: an utterance
// that mentions the participant's money trouble is on topic no matter how it
// opens.
var debtVocabulary = []string{
	"debt", "loan", "money", "owe", "afford", "pay", "credit", "bailiff",
	"arrears", "bill", "rent", "mortgage", "bankrupt", "broke", "overdraft",
	"court", "collector",
}

var smallTalkRemarks = []string{
	"I'm doing well, thanks for asking.",
	"All good here, thank you.",
	"Doing fine, thanks.",
}

var greetingRemarks = []string{
	"Hello!",
	"Hi there!",
	"Hello again!",
}

var offTopicRemarks = []string{
	"I'm DebtBridge, a digital debt adviser. Let's keep going with your situation.",
	"I'm here to help with debt questions, so let's stay focused on yours.",
}

// Classifier runs the detour chain against a knowledge base.
type Classifier struct {
	kb *faq.KnowledgeBase
}

// New returns a Classifier backed by kb. A nil kb disables the FAQ stage.
func New(kb *faq.KnowledgeBase) *Classifier {
	return &Classifier{kb: kb}
}

// Classify runs the chain in priority order and returns the first handling
// outcome, or a zero Outcome when the utterance should proceed to extraction.
func (c *Classifier) Classify(utterance string, in Input) Outcome {
	trimmed := strings.TrimSpace(utterance)
	normalized := normalize(trimmed)

	if resetCommands[normalized] {
		return Outcome{Handled: true, Kind: KindReset}
	}

	if trimmed == "" || (!in.ExpectAffirmation && extract.IsBareAcknowledgement(trimmed)) {
		return Outcome{Handled: true, Kind: KindAckOnly}
	}

	onTopic := mentionsDebt(normalized)

	if !onTopic {
		if out, ok := c.smallTalk(trimmed, normalized, in); ok {
			return out
		}
		if offTopicPattern.MatchString(trimmed) {
			return Outcome{
				Handled: true,
				Kind:    KindOffTopic,
				Reply:   offTopicRemarks[in.Seed%len(offTopicRemarks)],
			}
		}
	}

	if c.kb != nil {
		if answer, _, ok := c.kb.Match(trimmed); ok {
			return Outcome{Handled: true, Kind: KindFAQ, Reply: answer}
		}
	}

	return Outcome{}
}

func (c *Classifier) smallTalk(trimmed, normalized string, in Input) (Outcome, bool) {
	isGreeting := greetingPattern.MatchString(trimmed)
	isChat := false
	for _, p := range smallTalkPatterns {
		if p.MatchString(trimmed) {
			isChat = true
			break
		}
	}
	// A greeting that carries real content ("hi, I owe £900") is not a detour,
	// but debt vocabulary is already excluded by the caller; a long greeting
	// with substance still falls through to extraction. A name introduction
	// ("hi there, my name is Priya") is the exception: the extra words are the
	// name, not substance.
	if isGreeting && len(strings.Fields(normalized)) > 4 && !isChat {
		if _, ok := extract.NameFromLeadIn(trimmed); !ok {
			return Outcome{}, false
		}
	}
	if !isGreeting && !isChat {
		return Outcome{}, false
	}

	out := Outcome{Handled: true, Kind: KindSmallTalk}
	if isChat {
		out.Reply = smallTalkRemarks[in.Seed%len(smallTalkRemarks)]
	} else {
		out.Reply = greetingRemarks[in.Seed%len(greetingRemarks)]
	}
	if !in.NameKnown {
		if name, ok := extract.NameFromLeadIn(trimmed); ok {
			out.Name = name
		}
	}
	return out, true
}

func mentionsDebt(normalized string) bool {
	for _, w := range debtVocabulary {
		if strings.Contains(normalized, w) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	lower := strings.ToLower(s)
	lower = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' || r == '\'' {
			return r
		}
		return ' '
	}, lower)
	return strings.Join(strings.Fields(lower), " ")
}
