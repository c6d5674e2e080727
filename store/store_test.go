package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/socratic-labs/tutor/core/protocol"
	"github.com/socratic-labs/tutor/store"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]store.Store {
	t.Helper()

	sqlite, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]store.Store{
		"memory": store.NewMemStore(),
		"sqlite": sqlite,
	}
}

func userTurn(sessionID, text string) protocol.Turn {
	return protocol.NewTurn(sessionID, protocol.RoleUser, text)
}

func assistantTurn(sessionID, text string) protocol.Turn {
	turn := protocol.NewTurn(sessionID, protocol.RoleAssistant, text)
	turn.SanitizedText = text
	return turn
}

func TestStore_AppendAndLoad(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess, err := s.NewSession(ctx)
			if err != nil {
				t.Fatalf("NewSession failed: %v", err)
			}

			err = s.Append(ctx, sess.ID,
				userTurn(sess.ID, "Explain recursion"),
				assistantTurn(sess.ID, "Start from the base case."),
			)
			if err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			turns, err := s.LoadHistory(ctx, sess.ID, 0)
			if err != nil {
				t.Fatalf("LoadHistory failed: %v", err)
			}
			if len(turns) != 2 {
				t.Fatalf("got %d turns, want 2", len(turns))
			}
			if turns[0].Role != protocol.RoleUser || turns[1].Role != protocol.RoleAssistant {
				t.Errorf("turn order wrong: %v then %v", turns[0].Role, turns[1].Role)
			}
			if turns[0].RawText != "Explain recursion" {
				t.Errorf("got raw text %q", turns[0].RawText)
			}
		})
	}
}

func TestStore_LoadHistoryLimit(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess, _ := s.NewSession(ctx)

			for _, text := range []string{"one", "two", "three", "four"} {
				if err := s.Append(ctx, sess.ID, userTurn(sess.ID, text)); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			turns, err := s.LoadHistory(ctx, sess.ID, 2)
			if err != nil {
				t.Fatalf("LoadHistory failed: %v", err)
			}
			if len(turns) != 2 {
				t.Fatalf("got %d turns, want 2", len(turns))
			}
			if turns[0].RawText != "three" || turns[1].RawText != "four" {
				t.Errorf("limit should keep the most recent turns oldest-first, got %q, %q",
					turns[0].RawText, turns[1].RawText)
			}
		})
	}
}

func TestStore_UnknownSession(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.LoadHistory(context.Background(), "no-such-session", 0)
			if !errors.Is(err, store.ErrSessionNotFound) {
				t.Errorf("got %v, want ErrSessionNotFound", err)
			}
		})
	}
}

// Assistant turns must never persist without sanitized text.
func TestStore_RejectsUnsanitizedAssistantTurn(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess, _ := s.NewSession(ctx)

			bad := protocol.NewTurn(sess.ID, protocol.RoleAssistant, "raw model output")
			err := s.Append(ctx, sess.ID, bad)
			if !errors.Is(err, store.ErrInvalidTurn) {
				t.Errorf("got %v, want ErrInvalidTurn", err)
			}

			// Nothing from the rejected batch may be visible.
			turns, err := s.LoadHistory(ctx, sess.ID, 0)
			if err != nil {
				t.Fatalf("LoadHistory failed: %v", err)
			}
			if len(turns) != 0 {
				t.Errorf("rejected append left %d turns behind", len(turns))
			}
		})
	}
}

// A batch with one invalid turn persists nothing, even when earlier turns in
// the batch are valid.
func TestStore_AppendAtomicity(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess, _ := s.NewSession(ctx)

			good := userTurn(sess.ID, "valid user turn")
			bad := protocol.NewTurn(sess.ID, protocol.RoleAssistant, "unsanitized")

			if err := s.Append(ctx, sess.ID, good, bad); err == nil {
				t.Fatal("expected append to fail")
			}

			turns, err := s.LoadHistory(ctx, sess.ID, 0)
			if err != nil {
				t.Fatalf("LoadHistory failed: %v", err)
			}
			if len(turns) != 0 {
				t.Errorf("failed append persisted %d turns, want 0", len(turns))
			}
		})
	}
}

func TestStore_TurnsPreservePolicyMetadata(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess, _ := s.NewSession(ctx)

			turn := userTurn(sess.ID, "write the code for me")
			turn.Intent = protocol.IntentUnknown
			turn.Policy = protocol.PolicyDecision{
				Verdict: protocol.VerdictBlock,
				Reason:  "solution request",
				RuleID:  "block-solution-request",
			}
			if err := s.Append(ctx, sess.ID, turn); err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			turns, err := s.LoadHistory(ctx, sess.ID, 0)
			if err != nil {
				t.Fatalf("LoadHistory failed: %v", err)
			}
			got := turns[0]
			if got.Policy.Verdict != protocol.VerdictBlock || got.Policy.RuleID != "block-solution-request" {
				t.Errorf("policy metadata lost: %+v", got.Policy)
			}
			if got.Intent != protocol.IntentUnknown {
				t.Errorf("intent lost: %v", got.Intent)
			}
		})
	}
}

func TestStore_ConcurrentSessions(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var wg sync.WaitGroup
			ids := make([]string, 8)
			for i := range ids {
				sess, err := s.NewSession(ctx)
				if err != nil {
					t.Fatalf("NewSession failed: %v", err)
				}
				ids[i] = sess.ID
			}

			// Cross-session appends may serialize but must never fail.
			errs := make(chan error, len(ids)*10)
			for _, id := range ids {
				wg.Add(1)
				go func(sessionID string) {
					defer wg.Done()
					for j := 0; j < 10; j++ {
						if err := s.Append(ctx, sessionID, userTurn(sessionID, "turn")); err != nil {
							errs <- err
						}
					}
				}(id)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Errorf("concurrent Append failed: %v", err)
			}

			for _, id := range ids {
				turns, err := s.LoadHistory(ctx, id, 0)
				if err != nil {
					t.Fatalf("LoadHistory failed: %v", err)
				}
				if len(turns) != 10 {
					t.Errorf("session %s has %d turns, want 10", id, len(turns))
				}
			}
		})
	}
}

func TestStore_Sessions(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				if _, err := s.NewSession(ctx); err != nil {
					t.Fatalf("NewSession failed: %v", err)
				}
			}
			sessions, err := s.Sessions(ctx)
			if err != nil {
				t.Fatalf("Sessions failed: %v", err)
			}
			if len(sessions) != 3 {
				t.Errorf("got %d sessions, want 3", len(sessions))
			}
		})
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()
	sess, _ := s.NewSession(ctx)
	if err := s.Append(ctx, sess.ID,
		userTurn(sess.ID, "Explain recursion"),
		assistantTurn(sess.ID, "Start from the base case."),
	); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "session.json")
	if err := store.Export(ctx, s, sess.ID, path); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export failed: %v", err)
	}
	var doc struct {
		SessionID string          `json:"session_id"`
		Turns     []protocol.Turn `json:"turns"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.SessionID != sess.ID || len(doc.Turns) != 2 {
		t.Errorf("unexpected export: session %q, %d turns", doc.SessionID, len(doc.Turns))
	}
}

func TestNewStore_Config(t *testing.T) {
	if _, err := store.NewStore(&store.Config{Backend: "memory"}); err != nil {
		t.Errorf("memory backend failed: %v", err)
	}

	cfg := store.Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "cfg.db")}
	s, err := store.NewStore(&cfg)
	if err != nil {
		t.Fatalf("sqlite backend failed: %v", err)
	}
	s.Close()

	if _, err := store.NewStore(&store.Config{Backend: "stone-tablet"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
