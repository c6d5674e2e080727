// Package policy implements the guardrail engine. Rules are independent
// predicate records evaluated in declaration order against a request (before
// provider invocation) or a candidate response (after sanitization). Verdicts
// combine as: first Block wins, otherwise first Rewrite wins, otherwise Allow.
package policy

import "github.com/socratic-labs/tutor/core/protocol"

// Stage scopes a rule to one side of the provider call.
type Stage string

const (
	// StagePre evaluates the raw user request, scoped to its intent.
	StagePre Stage = "pre"
	// StagePost evaluates the sanitized candidate assistant response.
	StagePost Stage = "post"
)

// Input is the turn context a rule predicate sees. The engine never mutates
// it and never reaches into the provider or the store.
type Input struct {
	Stage     Stage
	Text      string
	Intent    protocol.Intent
	SessionID string
}

// Match defines the predicates of a rule. A rule matches when every
// configured predicate holds; a rule with no predicates never matches.
type Match struct {
	// Regex matches against the input text. Compiled once at load;
	// a pattern that fails to compile makes the whole rule unevaluable
	// and it is skipped, never fatal.
	Regex string `yaml:"regex,omitempty"`
	// ContainsAny matches when any substring appears (case-insensitive).
	ContainsAny []string `yaml:"contains_any,omitempty"`
	// Intents restricts the rule to the listed intents. Empty means any.
	Intents []protocol.Intent `yaml:"intents,omitempty"`
}

// Rule is one guardrail: predicates plus the verdict to apply on match.
type Rule struct {
	ID          string           `yaml:"id"`
	Stage       Stage            `yaml:"stage,omitempty"` // empty applies to both stages
	Match       Match            `yaml:"match"`
	Verdict     protocol.Verdict `yaml:"verdict"`
	Reason      string           `yaml:"reason,omitempty"`
	Replacement string           `yaml:"replacement,omitempty"` // Rewrite verdicts only
}

// Pack is a versioned, ordered guardrail rule set.
type Pack struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}
