// Package draft holds the in-progress booking edit: the tentative date, time
// and work-item selection, and the state machine that gates submission.
package draft

// State is the lifecycle state of a booking draft.
type State string

const (
	// StateEmpty is a fresh or reset draft with nothing chosen.
	StateEmpty State = "empty"
	// StatePartial has a date or time but is not yet submittable.
	StatePartial State = "partial"
	// StateReady has date, time and at least one item, and the chosen
	// instant is eligible.
	StateReady State = "ready"
	// StateSubmitting has a single submission in flight.
	StateSubmitting State = "submitting"
	// StateSettled means the submission received a definitive response.
	StateSettled State = "settled"
)

// FSM validates draft state transitions.
type FSM struct {
	transitions map[State][]State
}

// NewFSM returns the draft lifecycle machine. Editing moves between empty,
// partial and ready as fields change; a single edit can never complete a
// draft, so empty always steps through partial. Submission is one-way into
// submitting and settles or falls back to ready on transport failure. Reset
// returns to empty from anywhere.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateEmpty:      {StatePartial, StateEmpty},
			StatePartial:    {StateEmpty, StatePartial, StateReady},
			StateReady:      {StateEmpty, StatePartial, StateReady, StateSubmitting},
			StateSubmitting: {StateSettled, StateReady, StateEmpty},
			StateSettled:    {StateEmpty},
		},
	}
}

// CanTransition checks if a transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
