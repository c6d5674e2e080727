package classify

import "github.com/socratic-labs/tutor/core/protocol"

// DefaultRules returns the built-in rule table. Order is significant:
// error phrasing is checked before exam phrasing, code indicators before
// concept wording, and a generic "explain" falls through to explain-code
// as the conservative default.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:     "error-phrasing",
			Intent: protocol.IntentError,
			Patterns: []string{
				`(?i)\b(error|exception|traceback|stack trace|segmentation fault|undefined reference)\b`,
			},
		},
		{
			ID:     "exam-phrasing",
			Intent: protocol.IntentExamMode,
			Patterns: []string{
				`(?i)\b(quiz me|exam mode|test me|practice (problems|questions|exam)|mock exam|drill me)\b`,
			},
		},
		{
			ID:     "code-indicators",
			Intent: protocol.IntentExplainCode,
			Patterns: []string{
				`(?i)\b(function|method|snippet|this code|my code|my function|my method|class|module)\b`,
			},
		},
		{
			ID:     "concept-phrasing",
			Intent: protocol.IntentConcept,
			Patterns: []string{
				`(?i)\b(explain|what is|how does|teach|overview|concept|intuition)\b`,
			},
		},
		{
			ID:     "explain-phrasing",
			Intent: protocol.IntentExplainCode,
			Patterns: []string{
				`(?i)\b(walk me through|annotate|what does this)\b`,
			},
		},
	}
}
