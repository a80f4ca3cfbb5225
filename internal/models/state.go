// Package models defines state management structures for DebtBridge dialogues.
package models

// RetryCap is the number of unsatisfying answers allowed for one slot before the
// engine degrades the slot to a placeholder and force-advances. A single constant:
// the liveness guarantee depends on it being finite, not on its exact value.
const RetryCap = 3

// ConversationState is the per-session dialogue position handed back and forth
// between caller and engine. It is advisory only: the engine reconstructs it from
// the transcript whenever the two disagree, so a stale, missing, or forged copy
// can never move the dialogue backwards or skip mandatory slots.
type ConversationState struct {
	StepIndex             int              `json:"step_index"`
	Slots                 Slots            `json:"slots"`
	Retries               map[SlotKind]int `json:"retries,omitempty"`
	LastPromptFingerprint string           `json:"last_prompt_fingerprint,omitempty"`
}

// NewConversationState returns a fresh state positioned at the opening step.
func NewConversationState() ConversationState {
	return ConversationState{Retries: make(map[SlotKind]int)}
}

// Clone returns a copy whose retry map is independent of the original, so the
// engine can mutate its working state without touching the caller's copy.
func (s ConversationState) Clone() ConversationState {
	retries := make(map[SlotKind]int, len(s.Retries))
	for k, v := range s.Retries {
		retries[k] = v
	}
	s.Retries = retries
	return s
}

// RetryCount returns the bounded re-ask counter for a slot kind.
func (s *ConversationState) RetryCount(kind SlotKind) int {
	if s.Retries == nil {
		return 0
	}
	return s.Retries[kind]
}

// BumpRetry increments the re-ask counter for a slot kind and returns the new value.
func (s *ConversationState) BumpRetry(kind SlotKind) int {
	if s.Retries == nil {
		s.Retries = make(map[SlotKind]int)
	}
	s.Retries[kind]++
	return s.Retries[kind]
}

// ResetRetry clears the re-ask counter for a slot kind after it is satisfied.
func (s *ConversationState) ResetRetry(kind SlotKind) {
	if s.Retries != nil {
		delete(s.Retries, kind)
	}
}
