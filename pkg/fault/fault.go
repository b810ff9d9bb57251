// Package fault defines the error taxonomy shared by the mover, thread
// pool, state machine and scheduler packages: configuration errors,
// logic faults, channel-closure sentinels and task failures.
package fault

import "fmt"

// ErrStopped is returned by a Mover's Push/TryPush invoked after
// Shutdown; Pop/TryPop report a stopped Mover through their ok result.
var ErrStopped = &ChannelClosure{Reason: "stopped"}

// ErrDrained is returned by a Mover's Push/TryPush after Drain; Pop/TryPop
// report a drained, empty Mover through their ok result.
var ErrDrained = &ChannelClosure{Reason: "drained"}

// ChannelClosure is the "expected" error: it signals end-of-stream on a
// channel, not a bug. Node bodies translate it into an exit event.
type ChannelClosure struct {
	Reason string
}

func (e *ChannelClosure) Error() string {
	return "channel closed: " + e.Reason
}

// ConfigError reports invalid construction parameters, e.g. a pool size
// out of range. It is raised at construction time, never mid-run.
type ConfigError struct {
	Component string
	Message   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Component, e.Message)
}

// NewConfigError builds a ConfigError for the named component.
func NewConfigError(component, format string, args ...any) error {
	return &ConfigError{Component: component, Message: fmt.Sprintf(format, args...)}
}

// LogicFault is an unrecoverable programming error: an invalid
// state/event combination, an unrecognized action enumerant, or a
// double submission of a node. The caller must not attempt to recover;
// the fault propagates out of the call that raised it.
type LogicFault struct {
	Component string
	Message   string
}

func (e *LogicFault) Error() string {
	return fmt.Sprintf("%s: logic fault: %s", e.Component, e.Message)
}

// NewLogicFault builds a LogicFault for the named component.
func NewLogicFault(component, format string, args ...any) error {
	return &LogicFault{Component: component, Message: fmt.Sprintf(format, args...)}
}

// TaskFailure wraps a panic recovered from a worker task or node body so
// it can be stored in a promise and rethrown from Future.Get or
// SyncWaitAll, mirroring vishalbelsare-lindb's recovered-panic-to-error
// conversion in internal/concurrent/pool.go (errorpkg.Error(r)).
type TaskFailure struct {
	Recovered any
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Recovered)
}

// FromRecover wraps a non-nil value returned by recover() into a
// *TaskFailure, including a value that is already an error; it returns
// nil for nil.
func FromRecover(r any) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return &TaskFailure{Recovered: err}
	}
	return &TaskFailure{Recovered: r}
}
