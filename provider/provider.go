// Package provider defines the model-backend capability the orchestrator
// invokes, plus the interchangeable implementations: a deterministic mock,
// an OpenAI-style HTTP adapter, and a named registry for config-driven
// selection. Backends differ only behind the Provider interface; the
// orchestrator never branches on a concrete type.
package provider

import (
	"context"
	"time"

	"github.com/socratic-labs/tutor/core/protocol"
)

// ErrorKind categorizes provider failures so callers can offer the right
// retry affordance.
type ErrorKind string

const (
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindUnavailable ErrorKind = "unavailable"
)

// ErrorInfo describes a provider failure. A nil ErrorInfo on a Response
// means the invocation succeeded.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

// Request carries everything a backend needs for one completion.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Intent       protocol.Intent
	// History is the trailing window of prior turns, oldest first.
	History []protocol.Turn
}

// Response is the uniform result shape for all backends. Exactly one of
// Text (non-empty) or Err is set.
type Response struct {
	Text    string
	Latency time.Duration
	Err     *ErrorInfo
}

// Failed reports whether the response carries an error.
func (r Response) Failed() bool {
	return r.Err != nil
}

// Provider is the single capability a model backend exposes. Invoke must
// honor ctx cancellation and deadlines, must never panic through the caller,
// and reports failure via Response.Err rather than a Go error so transport
// faults and timeouts stay distinguishable results, not crashes.
type Provider interface {
	// Name identifies the backend for logging and persistence.
	Name() string
	Invoke(ctx context.Context, req Request) Response
}

// WithTimeout wraps a provider with a hard per-invocation deadline. A wrapped
// invocation that exceeds the deadline resolves to ErrKindTimeout; the inner
// call is cancelled through its context.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	return &timeoutProvider{inner: p, timeout: timeout}
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

func (t *timeoutProvider) Name() string {
	return t.inner.Name()
}

func (t *timeoutProvider) Invoke(ctx context.Context, req Request) Response {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Response, 1)
	go func() {
		done <- t.inner.Invoke(ctx, req)
	}()

	select {
	case resp := <-done:
		return resp
	case <-ctx.Done():
		kind := ErrKindTimeout
		if ctx.Err() == context.Canceled {
			kind = ErrKindUnavailable
		}
		return Response{
			Latency: time.Since(start),
			Err:     &ErrorInfo{Kind: kind, Message: ctx.Err().Error()},
		}
	}
}
