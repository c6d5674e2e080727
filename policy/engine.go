package policy

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/socratic-labs/tutor/core/protocol"
	"github.com/socratic-labs/tutor/observability"
)

// Engine event types emitted through the observer.
const (
	EventRuleSkipped observability.EventType = "policy.rule.skipped"
	EventRuleMatched observability.EventType = "policy.rule.matched"
)

type compiledRule struct {
	rule       Rule
	regex      *regexp.Regexp
	compileErr error // set when the rule is unevaluable; such rules never match
}

// Engine evaluates an immutable rule set. Evaluation is deterministic and
// side-effect free apart from observer notifications. Safe for concurrent use.
type Engine struct {
	rules    []compiledRule
	observer observability.Observer
}

// NewEngine builds an Engine from a pack. Rules with patterns that fail to
// compile are retained but marked unevaluable: they are skipped at evaluation
// time and reported through the observer, so one bad rule never takes the
// pipeline down. A nil observer falls back to NoOpObserver.
func NewEngine(p *Pack, observer observability.Observer) *Engine {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	compiled := make([]compiledRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		cr := compiledRule{rule: r}
		if r.Match.Regex != "" {
			re, err := regexp.Compile(r.Match.Regex)
			if err != nil {
				cr.compileErr = err
			} else {
				cr.regex = re
			}
		}
		compiled = append(compiled, cr)
	}

	return &Engine{rules: compiled, observer: observer}
}

// Evaluate applies every rule scoped to the input's stage, in declaration
// order. The first Block verdict wins outright; otherwise the first Rewrite
// wins; otherwise the result is Allow.
func (e *Engine) Evaluate(ctx context.Context, in Input) protocol.PolicyDecision {
	var rewrite *protocol.PolicyDecision

	for _, cr := range e.rules {
		if cr.rule.Stage != "" && cr.rule.Stage != in.Stage {
			continue
		}
		if cr.compileErr != nil {
			e.observer.OnEvent(ctx, observability.Event{
				Type:      EventRuleSkipped,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "policy.Evaluate",
				Data: map[string]any{
					"rule_id": cr.rule.ID,
					"error":   cr.compileErr.Error(),
				},
			})
			continue
		}
		if !cr.matches(in) {
			continue
		}

		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventRuleMatched,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "policy.Evaluate",
			Data: map[string]any{
				"rule_id": cr.rule.ID,
				"verdict": string(cr.rule.Verdict),
				"stage":   string(in.Stage),
			},
		})

		decision := protocol.PolicyDecision{
			Verdict:     cr.rule.Verdict,
			Reason:      cr.rule.Reason,
			RuleID:      cr.rule.ID,
			Replacement: cr.rule.Replacement,
		}

		switch cr.rule.Verdict {
		case protocol.VerdictBlock:
			return decision
		case protocol.VerdictRewrite:
			if rewrite == nil {
				rewrite = &decision
			}
		}
	}

	if rewrite != nil {
		return *rewrite
	}
	return protocol.Allowed()
}

func (cr compiledRule) matches(in Input) bool {
	m := cr.rule.Match

	if len(m.Intents) > 0 {
		found := false
		for _, it := range m.Intents {
			if it == in.Intent {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if cr.regex != nil {
		return cr.regex.MatchString(in.Text)
	}

	if len(m.ContainsAny) > 0 {
		low := strings.ToLower(in.Text)
		for _, s := range m.ContainsAny {
			if strings.Contains(low, strings.ToLower(s)) {
				return true
			}
		}
		return false
	}

	// Intent-only rules match on intent alone; rules with no predicates at
	// all never match.
	return len(m.Intents) > 0
}
