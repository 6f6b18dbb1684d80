package workflow

import (
	"fmt"
	"strings"
)

// TransitionError is returned when a requested status change is not
// allowed. Allowed always carries the declared outgoing edges so
// handlers can show the user what would have been accepted.
type TransitionError struct {
	Reason  string
	Allowed []string
}

const (
	ReasonInvalidState         = "invalid_state"
	ReasonNoTransitionsDefined = "no_transitions_defined"
	ReasonIllegalTransition    = "illegal_transition"
)

func (e *TransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s (allowed: %s)", e.Reason, strings.Join(e.Allowed, ", "))
}
