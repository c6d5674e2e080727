package pipeline

import (
	"time"

	"github.com/socratic-labs/tutor/core/protocol"
	"github.com/socratic-labs/tutor/provider"
)

// ErrorKind categorizes traversal failures for callers. Policy blocks are
// ordinary results, not failures, and carry no error kind.
type ErrorKind string

const (
	ErrKindNone                   ErrorKind = ""
	ErrKindProviderTimeout        ErrorKind = "provider_timeout"
	ErrKindProviderUnavailable    ErrorKind = "provider_unavailable"
	ErrKindPersistenceWriteFailed ErrorKind = "persistence_write_failed"
)

// errorKindFor maps a provider failure onto the traversal-level kind.
func errorKindFor(kind provider.ErrorKind) ErrorKind {
	switch kind {
	case provider.ErrKindTimeout:
		return ErrKindProviderTimeout
	default:
		return ErrKindProviderUnavailable
	}
}

// Result is the outcome of one Submit traversal.
//
// FinalText is what the caller should show the learner. It is set even when
// persistence failed (ErrKindPersistenceWriteFailed): the exchange happened,
// it just was not saved. On a block, FinalText carries the refusal message;
// on a provider failure it is empty.
type Result struct {
	SessionID    string                  `json:"session_id"`
	State        State                   `json:"state"`
	Trace        []State                 `json:"trace,omitempty"`
	FinalText    string                  `json:"final_text"`
	Intent       protocol.Intent         `json:"intent"`
	WasBlocked   bool                    `json:"was_blocked,omitempty"`
	WasRewritten bool                    `json:"was_rewritten,omitempty"`
	WasSanitized bool                    `json:"was_sanitized,omitempty"`
	ErrorKind    ErrorKind               `json:"error_kind,omitempty"`
	Decision     protocol.PolicyDecision `json:"decision"`
	Latency      time.Duration           `json:"latency,omitempty"`
}

// advance moves the traversal to s and records the step in Trace. Every
// consecutive Trace pair is a declared machine transition.
func (r *Result) advance(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}
