// Package store provides durable conversation persistence. Turns append in
// strict chronological order and are never edited in place; a multi-turn
// Append is atomic, so an exchange is recorded completely or not at all.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/socratic-labs/tutor/core/protocol"
)

// Sentinel errors for store operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidTurn     = errors.New("invalid turn")
	ErrAppendFailed    = errors.New("append failed")
)

// Session identifies one conversation and when it began.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the conversation persistence contract. Implementations must make
// a multi-turn Append atomic at the session granularity and must not let
// appends to different sessions block each other.
type Store interface {
	// NewSession creates a session with a fresh identifier.
	NewSession(ctx context.Context) (Session, error)
	// Append records turns for a session as a single logical operation:
	// either every turn is recorded or none is. The session is created
	// implicitly on first append.
	Append(ctx context.Context, sessionID string, turns ...protocol.Turn) error
	// LoadHistory returns up to limit most recent turns, oldest first.
	// A non-positive limit returns the full history.
	LoadHistory(ctx context.Context, sessionID string, limit int) ([]protocol.Turn, error)
	// Sessions lists known sessions, most recently created first.
	Sessions(ctx context.Context) ([]Session, error)
	// Close releases backend resources.
	Close() error
}

// validateTurns enforces the persistence invariants shared by all backends:
// turns must belong to the target session and assistant turns must carry
// sanitized text.
func validateTurns(sessionID string, turns []protocol.Turn) error {
	for _, turn := range turns {
		if turn.SessionID != "" && turn.SessionID != sessionID {
			return errors.Join(ErrInvalidTurn, errors.New("turn belongs to a different session"))
		}
		if turn.Role == protocol.RoleAssistant && turn.SanitizedText == "" {
			return errors.Join(ErrInvalidTurn, errors.New("assistant turn lacks sanitized text"))
		}
	}
	return nil
}
