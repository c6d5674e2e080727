// Package protocol defines the conversation types shared across the tutoring
// pipeline: roles, intents, turns, and policy decisions. Subsystems exchange
// these shapes rather than their own internal representations.
package protocol

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a session. Turns are immutable once persisted
// and written exactly once; the store appends them in strict chronological
// order and never edits in place.
//
// SanitizedText is empty until sanitization completes; for persisted
// assistant turns it is always non-empty (a placeholder stands in when the
// content was blocked or fully removed). WasModified records, for audit,
// whether sanitization changed the raw model output.
type Turn struct {
	SessionID     string         `json:"session_id"`
	Role          Role           `json:"role"`
	RawText       string         `json:"raw_text"`
	SanitizedText string         `json:"sanitized_text,omitempty"`
	Intent        Intent         `json:"intent,omitempty"`
	Policy        PolicyDecision `json:"policy"`
	WasModified   bool           `json:"was_modified,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewTurn creates a Turn with the given role and raw text, stamped now.
func NewTurn(sessionID string, role Role, rawText string) Turn {
	return Turn{
		SessionID: sessionID,
		Role:      role,
		RawText:   rawText,
		Policy:    Allowed(),
		Timestamp: time.Now().UTC(),
	}
}

// DisplayText returns the text suitable for display or prompt assembly:
// the sanitized text when present, otherwise the raw text.
func (t Turn) DisplayText() string {
	if t.SanitizedText != "" {
		return t.SanitizedText
	}
	return t.RawText
}
