package fsm

import "github.com/dagcore/scheduler/pkg/fault"

// Policy receives the entry/exit action callbacks fired by Dispatch,
// mirroring the CRTP policy methods
// (on_create/on_stop_create/on_make_runnable/...) that
// SchedulerStateMachine::event() dispatches to in
// original_source/experimental/tiledb/common/dag/execution/scheduler.h.
// T is the node-handle type the actions apply to.
type Policy[T any] interface {
	OnCreate(node T)
	OnStopCreate(node T)
	OnMakeRunnable(node T)
	OnStopRunnable(node T)
	OnMakeRunning(node T)
	OnStopRunning(node T)
	OnMakeWaiting(node T)
	OnStopWaiting(node T)
	OnTerminate(node T)
}

// Dispatch invokes the Policy method corresponding to action, or does
// nothing for ActionNone. An action outside the recognized enum raises
// a LogicFault (§4.D "Failure").
func Dispatch[T any](component string, action Action, policy Policy[T], node T) error {
	switch action {
	case ActionNone:
		// no-op
	case ActionCreate:
		policy.OnCreate(node)
	case ActionStopCreate:
		policy.OnStopCreate(node)
	case ActionMakeRunnable:
		policy.OnMakeRunnable(node)
	case ActionStopRunnable:
		policy.OnStopRunnable(node)
	case ActionMakeRunning:
		policy.OnMakeRunning(node)
	case ActionStopRunning:
		policy.OnStopRunning(node)
	case ActionMakeWaiting:
		policy.OnMakeWaiting(node)
	case ActionStopWaiting:
		policy.OnStopWaiting(node)
	case ActionTerminate:
		policy.OnTerminate(node)
	default:
		return fault.NewLogicFault(component, "unrecognized action %v", action)
	}
	return nil
}

// NopPolicy implements Policy[T] with no-op callbacks, useful for
// tests that exercise the transition table without caring about
// side-effects.
type NopPolicy[T any] struct{}

func (NopPolicy[T]) OnCreate(T)       {}
func (NopPolicy[T]) OnStopCreate(T)   {}
func (NopPolicy[T]) OnMakeRunnable(T) {}
func (NopPolicy[T]) OnStopRunnable(T) {}
func (NopPolicy[T]) OnMakeRunning(T)  {}
func (NopPolicy[T]) OnStopRunning(T)  {}
func (NopPolicy[T]) OnMakeWaiting(T)  {}
func (NopPolicy[T]) OnStopWaiting(T)  {}
func (NopPolicy[T]) OnTerminate(T)    {}
