// Package classify maps raw learner text to one of the fixed tutoring
// intents. Classification is a total, deterministic function over an ordered
// rule table: the first rule whose pattern matches wins, and no match at all
// resolves to IntentUnknown rather than an error.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/socratic-labs/tutor/core/protocol"
)

// Rule is a single classification rule: an ordered set of patterns that,
// when any of them matches, assigns the rule's intent.
type Rule struct {
	ID       string          `yaml:"id" json:"id"`
	Intent   protocol.Intent `yaml:"intent" json:"intent"`
	Patterns []string        `yaml:"patterns" json:"patterns"`
}

type compiledRule struct {
	id       string
	intent   protocol.Intent
	patterns []*regexp.Regexp
}

// Classifier evaluates an immutable, ordered rule table. Safe for concurrent
// use; the table cannot change after construction.
type Classifier struct {
	rules []compiledRule
}

// New compiles the given rules into a Classifier. Rules are evaluated in
// declaration order. Invalid patterns or undefined intents are rejected here
// so classification itself can never fail.
func New(rules []Rule) (*Classifier, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if !r.Intent.Valid() {
			return nil, fmt.Errorf("rule %q: unknown intent %q", r.ID, r.Intent)
		}
		cr := compiledRule{id: r.ID, intent: r.Intent}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %q: invalid pattern %q: %w", r.ID, p, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		compiled = append(compiled, cr)
	}
	return &Classifier{rules: compiled}, nil
}

// Classify returns exactly one intent for any input. Empty or whitespace-only
// text classifies as IntentUnknown.
func (c *Classifier) Classify(text string) protocol.Intent {
	t := strings.TrimSpace(text)
	if t == "" {
		return protocol.IntentUnknown
	}

	for _, r := range c.rules {
		for _, re := range r.patterns {
			if re.MatchString(t) {
				return r.intent
			}
		}
	}
	return protocol.IntentUnknown
}

// Explain returns the intent together with the ID of the rule that matched.
// An empty rule ID means the fallback applied.
func (c *Classifier) Explain(text string) (protocol.Intent, string) {
	t := strings.TrimSpace(text)
	if t == "" {
		return protocol.IntentUnknown, ""
	}

	for _, r := range c.rules {
		for _, re := range r.patterns {
			if re.MatchString(t) {
				return r.intent, r.id
			}
		}
	}
	return protocol.IntentUnknown, ""
}
