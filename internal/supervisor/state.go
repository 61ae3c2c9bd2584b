// Package supervisor owns the experiment queue and the processes of the current slot.
package supervisor

// State represents where the sweep is within its slot cycle.
type State int

const (
	// StateIdle is the initial state before the first experiment is launched.
	StateIdle State = iota

	// StateRunning indicates an experiment was launched and its slot is open.
	StateRunning

	// StateDraining indicates the previous slot's processes are being killed.
	StateDraining

	// StateDone indicates the sweep finished or was cancelled.
	StateDone
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if no further events are processed in this state.
func (s State) IsTerminal() bool {
	return s == StateDone
}

// AllStates lists every state, in order.
var AllStates = []State{StateIdle, StateRunning, StateDraining, StateDone}
