package protocol

// Verdict is the outcome of a guardrail evaluation.
type Verdict string

const (
	VerdictAllow   Verdict = "allow"
	VerdictBlock   Verdict = "block"
	VerdictRewrite Verdict = "rewrite"
)

// Severity returns a numeric rank for verdict comparison. Higher is more
// restrictive: Block > Rewrite > Allow.
func (v Verdict) Severity() int {
	switch v {
	case VerdictBlock:
		return 3
	case VerdictRewrite:
		return 2
	case VerdictAllow:
		return 1
	}
	return 0
}

// PolicyDecision records the outcome of a policy evaluation against a turn.
// A Rewrite verdict carries the replacement text the orchestrator substitutes
// before continuing.
type PolicyDecision struct {
	Verdict     Verdict `json:"verdict"`
	Reason      string  `json:"reason,omitempty"`
	RuleID      string  `json:"rule_id,omitempty"`
	Replacement string  `json:"replacement,omitempty"`
}

// Allowed creates an Allow decision with no triggering rule.
func Allowed() PolicyDecision {
	return PolicyDecision{Verdict: VerdictAllow}
}

// Blocked reports whether the decision carries a Block verdict.
func (d PolicyDecision) Blocked() bool {
	return d.Verdict == VerdictBlock
}
