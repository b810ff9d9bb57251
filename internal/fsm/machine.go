package fsm

import "github.com/dagcore/scheduler/pkg/fault"

// transitionTable, exitTable and entryTable are transcribed directly
// from original_source's detail::transition_table / exit_table /
// entry_table (scheduler.h): rows are the *current* state for
// transitionTable and exitTable, but entryTable is indexed by the
// *next* state, exactly as the source computes
// entry_table[to_index(next_state)][to_index(event)].
var transitionTable = [numStates][numEvents]State{
	StateCreated: {
		EventCreate: StateCreated, EventAdmit: StateRunnable, EventDispatch: StateError,
		EventWait: StateError, EventNotify: StateError, EventExit: StateError, EventYield: StateError,
	},
	StateRunnable: {
		EventCreate: StateError, EventAdmit: StateError, EventDispatch: StateRunning,
		EventWait: StateError, EventNotify: StateError, EventExit: StateError, EventYield: StateError,
	},
	StateRunning: {
		EventCreate: StateError, EventAdmit: StateError, EventDispatch: StateError,
		EventWait: StateWaiting, EventNotify: StateRunning, EventExit: StateTerminated, EventYield: StateRunnable,
	},
	StateWaiting: {
		EventCreate: StateError, EventAdmit: StateError, EventDispatch: StateError,
		EventWait: StateError, EventNotify: StateRunnable, EventExit: StateError, EventYield: StateWaiting,
	},
	StateTerminated: {
		EventCreate: StateError, EventAdmit: StateError, EventDispatch: StateError,
		EventWait: StateError, EventNotify: StateError, EventExit: StateError, EventYield: StateError,
	},
	StateError: {
		EventCreate: StateError, EventAdmit: StateError, EventDispatch: StateError,
		EventWait: StateError, EventNotify: StateError, EventExit: StateError, EventYield: StateError,
	},
}

var exitTable = [numStates][numEvents]Action{
	StateCreated: {
		EventCreate: ActionNone, EventAdmit: ActionStopCreate, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
	StateRunnable: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionStopRunnable,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
	StateRunning: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionStopRunning, EventNotify: ActionNone, EventExit: ActionStopRunning, EventYield: ActionStopRunning,
	},
	StateWaiting: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionStopWaiting, EventExit: ActionNone, EventYield: ActionNone,
	},
	StateTerminated: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
	StateError: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
}

// entryTable is indexed by the *destination* state of the transition.
var entryTable = [numStates][numEvents]Action{
	StateCreated: {
		EventCreate: ActionCreate, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
	StateRunnable: {
		EventCreate: ActionNone, EventAdmit: ActionMakeRunnable, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionMakeRunnable, EventExit: ActionNone, EventYield: ActionMakeRunnable,
	},
	StateRunning: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionMakeRunning,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
	StateWaiting: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionMakeWaiting, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
	StateTerminated: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionTerminate, EventYield: ActionNone,
	},
	StateError: {
		EventCreate: ActionNone, EventAdmit: ActionNone, EventDispatch: ActionNone,
		EventWait: ActionNone, EventNotify: ActionNone, EventExit: ActionNone, EventYield: ActionNone,
	},
}

// Machine holds no mutable state of its own: it is a pure lookup over
// the transition table, fired while the caller (the scheduler) holds
// whatever lock makes the (state, event) pair atomic for one node.
// Keeping Machine stateless lets one Machine value be shared by every
// node in a run.
type Machine struct {
	component string
}

// New constructs a Machine; component names the caller for fault
// messages (e.g. "scheduler").
func New(component string) *Machine {
	return &Machine{component: component}
}

// Fire looks up the transition for (current, event) and returns the
// next state plus the exit action (run before the state is updated)
// and the entry action (run after). It never mutates a node; the
// caller applies next and invokes the two actions via Dispatch (see
// actions.go).
func (m *Machine) Fire(current State, event Event) (next State, exit, entry Action, err error) {
	if int(current) < 0 || int(current) >= numStates {
		return StateError, ActionNone, ActionNone, fault.NewLogicFault(m.component, "unknown state %v", current)
	}
	if int(event) < 0 || int(event) >= numEvents {
		return StateError, ActionNone, ActionNone, fault.NewLogicFault(m.component, "unknown event %v", event)
	}

	next = transitionTable[current][event]
	if next == StateError {
		return StateError, ActionNone, ActionNone, fault.NewLogicFault(
			m.component, "invalid transition: state=%v event=%v", current, event)
	}

	exit = exitTable[current][event]
	entry = entryTable[next][event]
	return next, exit, entry, nil
}
