// Package script provides the Script Store: the ordered, immutable sequence of
// step definitions the dialogue engine walks through.
//
// A script is loaded once (from YAML or from the built-in default) and treated as
// read-only configuration for the lifetime of the process; the loader may swap in a
// whole new script atomically but never mutates a published one.
package script

import (
	"fmt"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// Step is one position in the fixed script.
type Step struct {
	// Index is the canonical identity used for progression. Steps are totally
	// ordered by Index; any separate id in a source file is ignored.
	Index int `yaml:"index" json:"index"`
	// Prompt may contain [UI: ...] directive tags and the {name} placeholder.
	Prompt string `yaml:"prompt" json:"prompt"`
	// Reask holds alternate phrasings used on retries, in escalation order.
	Reask []string `yaml:"reask,omitempty" json:"reask,omitempty"`
	// Slot is the structured fact this step expects to extract.
	Slot models.SlotKind `yaml:"slot" json:"slot"`
	// Hints is a weak keyword relevance signal. Never sufficient alone to prove
	// satisfaction for the name and amounts kinds.
	Hints []string `yaml:"hints,omitempty" json:"hints,omitempty"`
	// MinIndex is a gating floor: the step may not be reached while the computed
	// index is below it. Zero means ungated.
	MinIndex int `yaml:"min_index,omitempty" json:"min_index,omitempty"`
}

// Script is an ordered, immutable sequence of steps.
type Script struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Len returns the number of steps.
func (s *Script) Len() int {
	return len(s.Steps)
}

// Step returns the step at index, clamped into the valid range. An empty script
// has no valid step and returns a zero Step.
func (s *Script) Step(index int) Step {
	if len(s.Steps) == 0 {
		return Step{}
	}
	if index < 0 {
		index = 0
	}
	if index >= len(s.Steps) {
		index = len(s.Steps) - 1
	}
	return s.Steps[index]
}

// LastIndex returns the index of the terminal step.
func (s *Script) LastIndex() int {
	if len(s.Steps) == 0 {
		return 0
	}
	return len(s.Steps) - 1
}

// FirstOfKind returns the index of the first step expecting the given slot kind,
// or -1 if the script has none.
func (s *Script) FirstOfKind(kind models.SlotKind) int {
	for _, st := range s.Steps {
		if st.Slot == kind {
			return st.Index
		}
	}
	return -1
}

// Validate checks structural invariants: at least one step, contiguous indices
// from zero, known slot kinds, non-empty prompts, and sane gating floors.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("script %q: no steps defined", s.Name)
	}
	for i, st := range s.Steps {
		if st.Index != i {
			return fmt.Errorf("script %q: step %d has index %d, indices must be contiguous from 0", s.Name, i, st.Index)
		}
		if st.Prompt == "" {
			return fmt.Errorf("script %q: step %d has an empty prompt", s.Name, i)
		}
		if !models.IsValidSlotKind(st.Slot) {
			return fmt.Errorf("script %q: step %d has unknown slot kind %q", s.Name, i, st.Slot)
		}
		if st.MinIndex < 0 || st.MinIndex > len(s.Steps)-1 {
			return fmt.Errorf("script %q: step %d has out-of-range min_index %d", s.Name, i, st.MinIndex)
		}
	}
	return nil
}
