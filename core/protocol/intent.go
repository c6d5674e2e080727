package protocol

// Intent is the closed set of help categories the tutor understands.
// Classification is total: any input maps to exactly one Intent, with
// IntentUnknown as the fallback rather than an error.
type Intent string

const (
	IntentConcept     Intent = "concept"      // "Explain recursion"
	IntentError       Intent = "error"        // "What does this traceback mean?"
	IntentExplainCode Intent = "explain_code" // "Explain my quicksort function"
	IntentExamMode    Intent = "exam_mode"    // "Quiz me on binary trees"
	IntentUnknown     Intent = "unknown"
)

// Intents lists every defined intent in declaration order.
func Intents() []Intent {
	return []Intent{
		IntentConcept,
		IntentError,
		IntentExplainCode,
		IntentExamMode,
		IntentUnknown,
	}
}

// Valid reports whether i is one of the defined intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentConcept, IntentError, IntentExplainCode, IntentExamMode, IntentUnknown:
		return true
	}
	return false
}

func (i Intent) String() string {
	return string(i)
}
