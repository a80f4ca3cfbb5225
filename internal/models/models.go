// Package models defines the core data structures for DebtBridge.
//
// It includes types for conversation turns, slot values, and API envelopes, which are
// shared across modules.
package models

import (
	"errors"
	"time"
)

// TurnRole identifies which side of the conversation produced a turn.
type TurnRole string

const (
	// RoleUser marks a turn written by the participant.
	RoleUser TurnRole = "user"
	// RoleAssistant marks a turn emitted by the agent.
	RoleAssistant TurnRole = "assistant"
)

// SlotKind identifies the structured fact a script step expects to extract.
type SlotKind string

const (
	SlotName            SlotKind = "name"
	SlotConcern         SlotKind = "concern"
	SlotIssue           SlotKind = "issue"
	SlotAmounts         SlotKind = "amounts"
	SlotUrgency         SlotKind = "urgency"
	SlotAcknowledgement SlotKind = "acknowledgement"
	SlotConsent         SlotKind = "consent"
	SlotFreeText        SlotKind = "free-text"
)

// IsValidSlotKind checks if the given slot kind is supported.
func IsValidSlotKind(k SlotKind) bool {
	switch k {
	case SlotName, SlotConcern, SlotIssue, SlotAmounts, SlotUrgency,
		SlotAcknowledgement, SlotConsent, SlotFreeText:
		return true
	default:
		return false
	}
}

// Validation constants for input validation
const (
	// MaxUtteranceLength defines the maximum allowed length for a user utterance
	MaxUtteranceLength = 4096
	// TranscriptWindow defines how many trailing turns the resynchronizer inspects
	TranscriptWindow = 8
)

// Error variables for better error handling and testability
var (
	ErrEmptySessionID    = errors.New("session id cannot be empty")
	ErrEmptyUtterance    = errors.New("utterance cannot be empty")
	ErrUtteranceTooLong  = errors.New("utterance exceeds maximum length")
	ErrInvalidSlotKind   = errors.New("invalid slot kind")
	ErrNegativeStepIndex = errors.New("declared step index cannot be negative")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidChannel    = errors.New("channel must be web or sms")
)

// Turn represents a single message in a conversation transcript.
// Insertion order in the transcript is the sole source of truth for dialogue position.
type Turn struct {
	Role TurnRole `json:"role"`
	Body string   `json:"body"`
	Time int64    `json:"time"`
}

// Consent is a tri-state consent slot value.
type Consent string

const (
	ConsentUnset    Consent = ""
	ConsentGiven    Consent = "given"
	ConsentDeclined Consent = "declined"
)

// Slots is the partial record of structured facts extracted so far.
// Zero values mean "not yet extracted". The boolean Has* fields distinguish a
// genuine zero amount from an unset one.
type Slots struct {
	Name             string  `json:"name,omitempty"`
	Concern          string  `json:"concern,omitempty"`
	Issue            string  `json:"issue,omitempty"`
	PayingAmount     float64 `json:"paying_amount,omitempty"`
	HasPaying        bool    `json:"has_paying,omitempty"`
	AffordableAmount float64 `json:"affordable_amount,omitempty"`
	HasAffordable    bool    `json:"has_affordable,omitempty"`
	UrgencyFlag      bool    `json:"urgency_flag,omitempty"`
	UrgencyNote      string  `json:"urgency_note,omitempty"`
	Acknowledged     string  `json:"acknowledged,omitempty"` // "yes" or "declined"
	ConsentGiven     Consent `json:"consent_given,omitempty"`
	FreeText         string  `json:"free_text,omitempty"`
}

// Merge overlays the set fields of other onto s and returns the result.
func (s Slots) Merge(other Slots) Slots {
	if other.Name != "" {
		s.Name = other.Name
	}
	if other.Concern != "" {
		s.Concern = other.Concern
	}
	if other.Issue != "" {
		s.Issue = other.Issue
	}
	if other.HasPaying {
		s.PayingAmount = other.PayingAmount
		s.HasPaying = true
	}
	if other.HasAffordable {
		s.AffordableAmount = other.AffordableAmount
		s.HasAffordable = true
	}
	if other.UrgencyFlag {
		s.UrgencyFlag = true
	}
	if other.UrgencyNote != "" {
		s.UrgencyNote = other.UrgencyNote
	}
	if other.Acknowledged != "" {
		s.Acknowledged = other.Acknowledged
	}
	if other.ConsentGiven != ConsentUnset {
		s.ConsentGiven = other.ConsentGiven
	}
	if other.FreeText != "" {
		s.FreeText = other.FreeText
	}
	return s
}

// TurnRequest is the engine's inbound contract for one dialogue turn.
// DeclaredStep and DeclaredSlots come from the caller and are untrusted; the engine
// reconciles them against the transcript every turn.
type TurnRequest struct {
	Utterance     string `json:"utterance"`
	Transcript    []Turn `json:"transcript,omitempty"`
	DeclaredStep  int    `json:"declared_step,omitempty"`
	DeclaredSlots *Slots `json:"declared_slots,omitempty"`
}

// Validate performs validation on a TurnRequest.
func (r *TurnRequest) Validate() error {
	if r.Utterance == "" {
		return ErrEmptyUtterance
	}
	if len(r.Utterance) > MaxUtteranceLength {
		return ErrUtteranceTooLong
	}
	if r.DeclaredStep < 0 {
		return ErrNegativeStepIndex
	}
	return nil
}

// TurnResponse is the engine's outbound contract for one dialogue turn.
type TurnResponse struct {
	Reply      string            `json:"reply"`
	NextStep   int               `json:"next_step"`
	Slots      Slots             `json:"slots"`
	Directives map[string]string `json:"directives,omitempty"`
}

// SessionStatus represents the lifecycle status of an advice session.
type SessionStatus string

const (
	// SessionStatusActive indicates the session is still collecting answers.
	SessionStatusActive SessionStatus = "active"
	// SessionStatusCompleted indicates the script reached its terminal step.
	SessionStatusCompleted SessionStatus = "completed"
	// SessionStatusAbandoned indicates the session was closed without completing.
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// Session represents one advice conversation with one participant.
type Session struct {
	ID          string        `json:"id"`
	Channel     string        `json:"channel"`                // "web" or "sms"
	PhoneNumber string        `json:"phone_number,omitempty"` // canonical, sms channel only
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// SessionCreateRequest is the API payload for creating a session.
type SessionCreateRequest struct {
	Channel     string `json:"channel,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Validate checks the session creation payload.
func (r *SessionCreateRequest) Validate() error {
	switch r.Channel {
	case "", "web", "sms":
		return nil
	default:
		return ErrInvalidChannel
	}
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success builds an ok response carrying result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage builds an ok response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error builds an error response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
