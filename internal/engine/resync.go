package engine

import (
	"strings"

	"github.com/debtbridge/DebtBridge/internal/directive"
	"github.com/debtbridge/DebtBridge/internal/interrupt"
	"github.com/debtbridge/DebtBridge/internal/models"
	"github.com/debtbridge/DebtBridge/internal/script"
)

// matchPrefixLength is how many normalized characters of a step's prompt must
// appear in an assistant turn for the turn to count as that step.
const matchPrefixLength = 40

// normalizeText strips directive tags, lowercases, drops punctuation, and
// collapses whitespace. Both transcript turns and script prompts go through it
// so matching is insensitive to tags, casing, and spacing.
func normalizeText(text string) string {
	clean := directive.Strip(text)
	lower := strings.ToLower(clean)
	lower = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			return r
		}
		return ' '
	}, lower)
	return strings.Join(strings.Fields(lower), " ")
}

// promptMatchKey returns the normalized prefix used to recognize a prompt
// inside an assistant turn. Placeholder segments ({name}) are skipped by
// keying on the longest literal segment, since the emitted text substitutes a
// value the script cannot predict.
func promptMatchKey(prompt string) string {
	segment := prompt
	if strings.ContainsRune(prompt, '{') {
		longest := ""
		for _, part := range splitPlaceholders(prompt) {
			if len(part) > len(longest) {
				longest = part
			}
		}
		segment = longest
	}
	norm := normalizeText(segment)
	if len(norm) > matchPrefixLength {
		norm = strings.TrimSpace(norm[:matchPrefixLength])
	}
	return norm
}

// splitPlaceholders cuts prompt text on {...} placeholders and returns the
// literal segments.
func splitPlaceholders(prompt string) []string {
	var parts []string
	rest := prompt
	for {
		open := strings.IndexRune(rest, '{')
		if open < 0 {
			parts = append(parts, rest)
			return parts
		}
		parts = append(parts, rest[:open])
		end := strings.IndexRune(rest[open:], '}')
		if end < 0 {
			return parts
		}
		rest = rest[open+end+1:]
	}
}

// resyncIndex reconciles the caller-declared step with the transcript. The
// trailing window of assistant turns is scanned for step prompt and re-ask
// fingerprints; the highest matching index wins. Resynchronization only ever
// moves the step forward of what the caller declared, never backward, so a
// truncated or out-of-order transcript cannot revert progress.
func resyncIndex(sc *script.Script, transcript []models.Turn, declared int) int {
	window := afterLastReset(transcript)
	if len(window) > models.TranscriptWindow {
		window = window[len(window)-models.TranscriptWindow:]
	}

	best := -1
	for _, turn := range window {
		if turn.Role != models.RoleAssistant {
			continue
		}
		norm := normalizeText(turn.Body)
		for _, st := range sc.Steps {
			if st.Index <= best {
				continue
			}
			if matchesStep(norm, st) {
				best = st.Index
			}
		}
	}

	if best < 0 {
		best = kindHeuristic(sc, window)
	}
	if declared > best {
		best = declared
	}
	if best < 0 {
		best = 0
	}
	if best > sc.LastIndex() {
		best = sc.LastIndex()
	}
	return best
}

// afterLastReset drops everything up to and including the most recent reset
// command, so prompts emitted before a restart can never win resync and pull
// the dialogue past the mandatory opening slots again.
func afterLastReset(transcript []models.Turn) []models.Turn {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == models.RoleUser && interrupt.IsResetCommand(transcript[i].Body) {
			return transcript[i+1:]
		}
	}
	return transcript
}

func matchesStep(normTurn string, st script.Step) bool {
	if key := promptMatchKey(st.Prompt); key != "" && strings.Contains(normTurn, key) {
		return true
	}
	for _, reask := range st.Reask {
		if key := promptMatchKey(reask); key != "" && strings.Contains(normTurn, key) {
			return true
		}
	}
	return false
}

// kindHeuristic is the coarse fallback when no fingerprint matches: classify
// the last assistant utterance's expected slot kind from its wording and map
// it to the script's first step of that kind. Returns -1 when nothing in the
// window gives a signal.
func kindHeuristic(sc *script.Script, window []models.Turn) int {
	var last string
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Role == models.RoleAssistant {
			last = normalizeText(window[i].Body)
			break
		}
	}
	if last == "" {
		return -1
	}

	checks := []struct {
		kind    models.SlotKind
		markers []string
	}{
		{models.SlotFreeText, []string{"anything else"}},
		{models.SlotConsent, []string{"share", "portal", "happy for me"}},
		{models.SlotAcknowledgement, []string{"sound ok", "next step", "helpful"}},
		{models.SlotUrgency, []string{"urgent", "bailiff", "court"}},
		{models.SlotAmounts, []string{"how much", "afford", "pay"}},
		{models.SlotIssue, []string{"how this started", "bit more"}},
		{models.SlotConcern, []string{"worrying", "worry", "troubling"}},
		{models.SlotName, []string{"your name", "call you"}},
	}
	for _, check := range checks {
		for _, marker := range check.markers {
			if strings.Contains(last, marker) {
				if idx := sc.FirstOfKind(check.kind); idx >= 0 {
					return idx
				}
			}
		}
	}
	return -1
}
