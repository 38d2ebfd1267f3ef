package fsm

// Phase is the position of an attendance record in its lifecycle.
type Phase string

// Phase constants used by the attendance state machine.
const (
	PhaseNotStarted Phase = "not_started"
	PhaseCheckedIn  Phase = "checked_in"
	PhaseCompleted  Phase = "completed"
)

var transitions = map[Phase]map[Phase]struct{}{
	PhaseNotStarted: {PhaseCheckedIn: {}},
	PhaseCheckedIn:  {PhaseCompleted: {}},
	PhaseCompleted:  {},
}

// CanTransition returns whether a record may move from one phase to the next.
// Phases only move forward one step at a time.
func CanTransition(from, to Phase) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsPresent reports whether the phase grants presence.
func IsPresent(p Phase) bool {
	return p == PhaseCompleted
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}
