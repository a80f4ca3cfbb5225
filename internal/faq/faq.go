// Package faq provides the small FAQ knowledge base and its scoring matcher.
//
// The matcher is deliberately cheap: exact/substring/tag/token overlap scoring over
// normalized text, with a fixed acceptance threshold. It answers common questions
// mid-script without consuming the pending slot question.
package faq

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scoring weights and the acceptance threshold.
const (
	scoreExact     = 100
	scoreSubstring = 60
	scoreTagHit    = 10
	scoreTokenHit  = 1

	// MatchThreshold is the minimum score for an entry to be returned.
	MatchThreshold = 18
)

// Entry is one question/answer pair in the knowledge base.
type Entry struct {
	Question string   `yaml:"question" json:"question"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Answer   string   `yaml:"answer" json:"answer"`
}

// KnowledgeBase is an immutable set of FAQ entries.
type KnowledgeBase struct {
	entries []Entry
}

// New creates a knowledge base over the given entries.
func New(entries []Entry) *KnowledgeBase {
	return &KnowledgeBase{entries: entries}
}

// LoadFile parses a YAML file holding a list of entries.
func LoadFile(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse faq YAML: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("faq file %q contains no entries", path)
	}
	return New(entries), nil
}

// Len returns the number of entries.
func (kb *KnowledgeBase) Len() int {
	return len(kb.entries)
}

// Match scores the utterance against every entry and returns the best answer and
// its score. ok is false when no entry reaches MatchThreshold.
func (kb *KnowledgeBase) Match(utterance string) (answer string, score int, ok bool) {
	norm := normalize(utterance)
	if norm == "" {
		return "", 0, false
	}
	tokens := tokenSet(norm)

	best := 0
	for _, e := range kb.entries {
		s := scoreEntry(e, norm, tokens)
		if s > best {
			best = s
			answer = e.Answer
		}
	}
	if best < MatchThreshold {
		return "", best, false
	}
	return answer, best, true
}

func scoreEntry(e Entry, norm string, tokens map[string]bool) int {
	q := normalize(e.Question)
	if q == "" {
		return 0
	}

	score := 0
	switch {
	case q == norm:
		score += scoreExact
	case strings.Contains(norm, q) || strings.Contains(q, norm):
		score += scoreSubstring
	}

	for _, tag := range e.Tags {
		if strings.Contains(norm, normalize(tag)) {
			score += scoreTagHit
		}
	}

	for tok := range tokenSet(q) {
		if tokens[tok] {
			score += scoreTokenHit
		}
	}
	return score
}

// normalize lowercases, strips punctuation, and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// tokenSet returns the set of tokens of length >= 3 in normalized text.
func tokenSet(norm string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(norm) {
		if len(tok) >= 3 {
			set[tok] = true
		}
	}
	return set
}
