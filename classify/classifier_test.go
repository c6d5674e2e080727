package classify_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/socratic-labs/tutor/classify"
	"github.com/socratic-labs/tutor/core/protocol"
)

func newDefault(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.New(classify.DefaultRules())
	if err != nil {
		t.Fatalf("failed to build default classifier: %v", err)
	}
	return c
}

func TestClassify_DefaultRules(t *testing.T) {
	c := newDefault(t)

	tests := []struct {
		name string
		text string
		want protocol.Intent
	}{
		{"concept question", "Explain recursion", protocol.IntentConcept},
		{"concept what-is", "What is a hash table?", protocol.IntentConcept},
		{"error traceback", "What does this traceback mean?", protocol.IntentError},
		{"error segfault", "I got a segmentation fault running my program", protocol.IntentError},
		{"explain own code", "Explain my quicksort function", protocol.IntentExplainCode},
		{"code snippet", "Can you walk me through what this code snippet does", protocol.IntentExplainCode},
		{"exam request", "Quiz me on binary trees", protocol.IntentExamMode},
		{"practice request", "I want some practice problems on sorting", protocol.IntentExamMode},
		{"no match", "hello there", protocol.IntentUnknown},
		{"empty", "", protocol.IntentUnknown},
		{"whitespace only", "   \t\n  ", protocol.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// Totality: every input yields exactly one defined intent, never a panic.
func TestClassify_Total(t *testing.T) {
	c := newDefault(t)

	inputs := []string{
		"", " ", "\x00", "日本語のテキスト", "((((((((", "explain explain explain",
		"a", "\n\n\n", "SELECT * FROM users; DROP TABLE users;",
	}
	for _, in := range inputs {
		got := c.Classify(in)
		if !got.Valid() {
			t.Errorf("Classify(%q) = %q, not a defined intent", in, got)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newDefault(t)

	for i := 0; i < 10; i++ {
		if got := c.Classify("Explain recursion"); got != protocol.IntentConcept {
			t.Fatalf("classification changed between calls: got %v", got)
		}
	}
}

// Declaration order breaks ties: a rule listed first wins even when a later
// rule would also match.
func TestClassify_FirstMatchWins(t *testing.T) {
	rules := []classify.Rule{
		{ID: "first", Intent: protocol.IntentError, Patterns: []string{`(?i)recursion`}},
		{ID: "second", Intent: protocol.IntentConcept, Patterns: []string{`(?i)recursion`}},
	}
	c, err := classify.New(rules)
	if err != nil {
		t.Fatalf("failed to build classifier: %v", err)
	}

	intent, ruleID := c.Explain("explain recursion")
	if intent != protocol.IntentError {
		t.Errorf("got intent %v, want %v", intent, protocol.IntentError)
	}
	if ruleID != "first" {
		t.Errorf("got rule %q, want %q", ruleID, "first")
	}
}

func TestNew_RejectsInvalidPattern(t *testing.T) {
	_, err := classify.New([]classify.Rule{
		{ID: "bad", Intent: protocol.IntentConcept, Patterns: []string{`([unclosed`}},
	})
	if err == nil {
		t.Fatal("expected error for invalid pattern, got nil")
	}
}

func TestNew_RejectsUnknownIntent(t *testing.T) {
	_, err := classify.New([]classify.Rule{
		{ID: "bad", Intent: protocol.Intent("philosophy"), Patterns: []string{`x`}},
	})
	if err == nil {
		t.Fatal("expected error for undefined intent, got nil")
	}
}

func TestLoadPack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `version: "1"
rules:
  - id: greetings
    intent: unknown
    patterns:
      - '(?i)\b(hi|hello)\b'
  - id: concepts
    intent: concept
    patterns:
      - '(?i)\bexplain\b'
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := classify.LoadPack(path)
	if err != nil {
		t.Fatalf("LoadPack failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}

	c, err := classify.New(rules)
	if err != nil {
		t.Fatalf("failed to compile loaded rules: %v", err)
	}
	if got := c.Classify("explain pointers"); got != protocol.IntentConcept {
		t.Errorf("got %v, want %v", got, protocol.IntentConcept)
	}
}

func TestLoadPack_MissingFile(t *testing.T) {
	if _, err := classify.LoadPack(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing pack, got nil")
	}
}
