package workflow

import "sort"

// Validator answers status-lifecycle questions against a fixed Config.
// It is pure: no I/O, no mutation, safe for concurrent use.
type Validator struct {
	cfg *Config
}

func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// InitialStatus returns the status assigned to a newly created project
// in the given department. Empty string for unknown departments.
func (v *Validator) InitialStatus(d Department) string {
	return v.cfg.initialStatus[d]
}

// ValidTransitions returns the declared outgoing edges for a status,
// sorted for deterministic display. A status with no declared edges
// yields an empty slice, as does an unknown department.
func (v *Validator) ValidTransitions(d Department, current string) []string {
	table, ok := v.cfg.transitions[d]
	if !ok {
		return nil
	}
	edges := table[current]
	out := make([]string, len(edges))
	copy(out, edges)
	sort.Strings(out)
	return out
}

// Validate checks a requested status change. On failure the returned
// TransitionError carries the allowed-target set.
func (v *Validator) Validate(d Department, current, next string) error {
	table, ok := v.cfg.transitions[d]
	if !ok {
		return &TransitionError{Reason: ReasonInvalidState}
	}

	// archived and other terminal statuses land here too
	edges := table[current]
	if len(edges) == 0 {
		return &TransitionError{Reason: ReasonNoTransitionsDefined}
	}

	for _, e := range edges {
		if e == next {
			return nil
		}
	}

	return &TransitionError{Reason: ReasonIllegalTransition, Allowed: v.ValidTransitions(d, current)}
}
