package provider_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/socratic-labs/tutor/core/protocol"
	"github.com/socratic-labs/tutor/provider"
)

func TestOpenAI_Invoke(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Think about the base case."}},
			},
		})
	}))
	defer srv.Close()

	p := provider.NewOpenAI("openai", srv.URL, "test-key", "tutor-model", 0)
	resp := p.Invoke(context.Background(), provider.Request{
		SystemPrompt: "You are a tutor.",
		UserPrompt:   "Explain recursion",
		Intent:       protocol.IntentConcept,
		History: []protocol.Turn{
			{Role: protocol.RoleUser, RawText: "earlier question"},
		},
	})

	if resp.Failed() {
		t.Fatalf("unexpected failure: %+v", resp.Err)
	}
	if resp.Text != "Think about the base case." {
		t.Errorf("got text %q", resp.Text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("got auth %q", gotAuth)
	}
	if gotBody.Model != "tutor-model" {
		t.Errorf("got model %q", gotBody.Model)
	}
	// system + one history turn + current user prompt
	if len(gotBody.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != "system" || gotBody.Messages[2].Content != "Explain recursion" {
		t.Errorf("unexpected message layout: %+v", gotBody.Messages)
	}
}

func TestOpenAI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := provider.NewOpenAI("openai", srv.URL, "k", "m", 0)
	resp := p.Invoke(context.Background(), provider.Request{UserPrompt: "hi"})

	if !resp.Failed() {
		t.Fatal("expected failure")
	}
	if resp.Err.Kind != provider.ErrKindUnavailable {
		t.Errorf("got kind %v, want %v", resp.Err.Kind, provider.ErrKindUnavailable)
	}
}

func TestOpenAI_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := provider.NewOpenAI("openai", srv.URL, "k", "m", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	resp := p.Invoke(ctx, provider.Request{UserPrompt: "hi"})
	if !resp.Failed() {
		t.Fatal("expected failure")
	}
	if resp.Err.Kind != provider.ErrKindTimeout {
		t.Errorf("got kind %v, want %v", resp.Err.Kind, provider.ErrKindTimeout)
	}
}

func TestOpenAI_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p := provider.NewOpenAI("openai", srv.URL, "k", "m", 0)
	resp := p.Invoke(context.Background(), provider.Request{UserPrompt: "hi"})

	if !resp.Failed() {
		t.Fatal("expected failure for empty completion")
	}
}
