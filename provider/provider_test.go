package provider_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/socratic-labs/tutor/core/protocol"
	"github.com/socratic-labs/tutor/provider"
)

func TestMock_IntentDispatch(t *testing.T) {
	m := provider.NewMock()

	tests := []struct {
		name   string
		req    provider.Request
		expect string
	}{
		{
			"error intent",
			provider.Request{UserPrompt: "help", Intent: protocol.IntentError},
			"Meaning: This error",
		},
		{
			"explain code intent",
			provider.Request{UserPrompt: "help", Intent: protocol.IntentExplainCode},
			"Key parts:",
		},
		{
			"exam intent",
			provider.Request{UserPrompt: "help", Intent: protocol.IntentExamMode},
			"Practice question",
		},
		{
			"recursion keyword",
			provider.Request{UserPrompt: "Explain recursion", Intent: protocol.IntentConcept},
			"Recursion is when a function calls itself",
		},
		{
			"traceback keyword without intent",
			provider.Request{UserPrompt: "what is this traceback", Intent: protocol.IntentUnknown},
			"Meaning: This error",
		},
		{
			"unknown fallback",
			provider.Request{UserPrompt: "zzz", Intent: protocol.IntentUnknown},
			"not sure how to help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := m.Invoke(context.Background(), tt.req)
			if resp.Failed() {
				t.Fatalf("unexpected failure: %+v", resp.Err)
			}
			if !strings.Contains(resp.Text, tt.expect) {
				t.Errorf("response %q does not contain %q", resp.Text, tt.expect)
			}
		})
	}
}

func TestMock_Deterministic(t *testing.T) {
	m := provider.NewMock()
	req := provider.Request{UserPrompt: "Explain recursion", Intent: protocol.IntentConcept}

	first := m.Invoke(context.Background(), req)
	for i := 0; i < 5; i++ {
		if got := m.Invoke(context.Background(), req); got.Text != first.Text {
			t.Fatalf("mock response changed between calls")
		}
	}
}

func TestMock_ScriptedFailure(t *testing.T) {
	m := provider.NewMock(provider.WithFailure(provider.ErrKindUnavailable, "down for maintenance"))

	resp := m.Invoke(context.Background(), provider.Request{UserPrompt: "hi"})
	if !resp.Failed() {
		t.Fatal("expected failure")
	}
	if resp.Err.Kind != provider.ErrKindUnavailable {
		t.Errorf("got kind %v, want %v", resp.Err.Kind, provider.ErrKindUnavailable)
	}
	if resp.Text != "" {
		t.Errorf("failed response must carry empty text, got %q", resp.Text)
	}
}

func TestWithTimeout_Exceeded(t *testing.T) {
	slow := provider.NewMock(provider.WithDelay(time.Second))
	p := provider.WithTimeout(slow, 20*time.Millisecond)

	resp := p.Invoke(context.Background(), provider.Request{UserPrompt: "hi"})
	if !resp.Failed() {
		t.Fatal("expected timeout failure")
	}
	if resp.Err.Kind != provider.ErrKindTimeout {
		t.Errorf("got kind %v, want %v", resp.Err.Kind, provider.ErrKindTimeout)
	}
}

func TestWithTimeout_FastCallSucceeds(t *testing.T) {
	p := provider.WithTimeout(provider.NewMock(), time.Second)

	resp := p.Invoke(context.Background(), provider.Request{
		UserPrompt: "Explain recursion",
		Intent:     protocol.IntentConcept,
	})
	if resp.Failed() {
		t.Fatalf("unexpected failure: %+v", resp.Err)
	}
	if resp.Text == "" {
		t.Fatal("successful response must carry text")
	}
}

func TestWithTimeout_CallerCancellation(t *testing.T) {
	slow := provider.NewMock(provider.WithDelay(time.Second))
	p := provider.WithTimeout(slow, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	resp := p.Invoke(ctx, provider.Request{UserPrompt: "hi"})
	if !resp.Failed() {
		t.Fatal("cancelled invocation must resolve to a failure, not hang")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := provider.Config{Backend: "carrier-pigeon"}
	if _, err := provider.New(&cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRegistry(t *testing.T) {
	r := provider.NewRegistry()

	if err := r.Register("primary", provider.Config{Backend: "mock"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register("primary", provider.Config{Backend: "mock"}); err == nil {
		t.Fatal("duplicate registration should fail")
	}
	if err := r.Register("", provider.Config{}); err == nil {
		t.Fatal("empty name should fail")
	}

	p1, err := r.Get("primary")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	p2, err := r.Get("primary")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if p1 != p2 {
		t.Error("Get should return the cached instance")
	}

	if _, err := r.Get("missing"); err == nil {
		t.Fatal("get of unregistered provider should fail")
	}

	if err := r.Replace("primary", provider.Config{Backend: "mock", TimeoutSeconds: 5}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	p3, err := r.Get("primary")
	if err != nil {
		t.Fatalf("get after replace failed: %v", err)
	}
	if p3 == p1 {
		t.Error("Replace should invalidate the cached instance")
	}

	if got := r.List(); len(got) != 1 || got[0] != "primary" {
		t.Errorf("List = %v, want [primary]", got)
	}

	if err := r.Unregister("primary"); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	if _, err := r.Get("primary"); err == nil {
		t.Fatal("get after unregister should fail")
	}
}
