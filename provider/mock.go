package provider

import (
	"context"
	"strings"
	"time"

	"github.com/socratic-labs/tutor/core/protocol"
)

// Canned mock responses, keyed first on intent, then on prompt keywords.
const (
	mockErrorText = "Meaning: This error indicates an exception was raised while " +
		"executing the code. Suggested steps: check the stack trace, inspect the " +
		"line and variables mentioned, and add logging or a breakpoint to " +
		"reproduce and fix the root cause."
	mockExplainCodeText = "Key parts:\n- What the code does\n- Important functions\n" +
		"- Edge cases and complexity"
	mockConceptText = "Definition: A high-level idea worth building a mental model " +
		"for. Begin with a small example, name the moving parts, and check your " +
		"understanding with one question."
	mockRecursionText = "Definition: Recursion is when a function calls itself. " +
		"Typical parts include a base case, a recursive case, and ensuring " +
		"progress toward the base case."
	mockExamText = "Practice question: walk through the idea on a small input by " +
		"hand. Hint: begin with the simplest case and build up."
	mockFallbackText = "I'm not sure how to help with that exact input - can you " +
		"provide more details?"
)

// MockOption configures a Mock provider.
type MockOption func(*Mock)

// WithDelay makes every invocation sleep for d (interruptible by ctx).
// Used to exercise timeout and cancellation paths.
func WithDelay(d time.Duration) MockOption {
	return func(m *Mock) { m.delay = d }
}

// WithCannedText overrides keyword dispatch with a fixed response.
func WithCannedText(text string) MockOption {
	return func(m *Mock) { m.canned = text }
}

// WithFailure makes every invocation fail with the given kind.
func WithFailure(kind ErrorKind, message string) MockOption {
	return func(m *Mock) { m.failure = &ErrorInfo{Kind: kind, Message: message} }
}

// Mock is a deterministic in-process backend for tests and offline use.
// Responses are selected by intent, then by prompt keywords, mirroring the
// tutoring scaffolds a live model would be prompted toward.
type Mock struct {
	delay   time.Duration
	canned  string
	failure *ErrorInfo
}

// NewMock creates a Mock provider.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Invoke(ctx context.Context, req Request) Response {
	start := time.Now()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
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

	if m.failure != nil {
		failure := *m.failure
		return Response{Latency: time.Since(start), Err: &failure}
	}

	if m.canned != "" {
		return Response{Text: m.canned, Latency: time.Since(start)}
	}

	return Response{Text: m.respond(req), Latency: time.Since(start)}
}

func (m *Mock) respond(req Request) string {
	low := strings.ToLower(req.UserPrompt)

	switch req.Intent {
	case protocol.IntentError:
		return mockErrorText
	case protocol.IntentExplainCode:
		return mockExplainCodeText
	case protocol.IntentExamMode:
		return mockExamText
	}

	switch {
	case strings.Contains(low, "traceback"), strings.Contains(low, "exception"):
		return mockErrorText
	case strings.Contains(low, "recursion"):
		return mockRecursionText
	}

	if req.Intent == protocol.IntentConcept {
		return mockConceptText
	}
	return mockFallbackText
}
