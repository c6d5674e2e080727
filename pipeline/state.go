package pipeline

// State names a stage of one request traversal. Every Submit call walks the
// machine from StateReceived to exactly one terminal state.
type State string

const (
	StateReceived          State = "received"
	StateClassified        State = "classified"
	StatePrePolicyChecked  State = "pre_policy_checked"
	StateProviderInvoked   State = "provider_invoked"
	StateSanitized         State = "sanitized"
	StatePostPolicyChecked State = "post_policy_checked"
	StatePersisted         State = "persisted"

	// Terminal states.
	StateCompleted State = "completed"
	StateBlocked   State = "blocked"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateBlocked, StateFailed:
		return true
	}
	return false
}

// transitions is the full set of legal state machine edges.
var transitions = map[State][]State{
	StateReceived:          {StateClassified},
	StateClassified:        {StatePrePolicyChecked},
	StatePrePolicyChecked:  {StateProviderInvoked, StateBlocked},
	StateProviderInvoked:   {StateSanitized, StateFailed},
	StateSanitized:         {StatePostPolicyChecked},
	StatePostPolicyChecked: {StatePersisted, StateBlocked, StateFailed},
	StatePersisted:         {StateCompleted},
}

// CanTransition reports whether the machine permits moving from one state to
// another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
