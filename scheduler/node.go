package scheduler

import (
	"context"

	"go.uber.org/atomic"

	"github.com/dagcore/scheduler/internal/fsm"
)

// Node is the host-supplied capability set a DAG vertex must satisfy
// (§6). Implementations are expected to be pointer types so that two
// handles compare equal iff they reference the same underlying node,
// and so Node itself is usable as a map key in the scheduler's state
// sets.
type Node interface {
	// ID returns the node's stable identity.
	ID() uint64
	// Name returns a human-readable label, possibly empty.
	Name() string

	State() fsm.State
	SetState(fsm.State)

	LastEvent() fsm.Event
	SetLastEvent(fsm.Event)

	// Correspondent returns the peer at the other end of this node's
	// primary channel, or nil if none is set.
	Correspondent() Node
	SetCorrespondent(Node)

	// Resume runs the node body from its saved program counter to its
	// next suspension point and returns the event that suspension
	// raises. Implementations that suspend more than once within a
	// notify should still only return the *last* event of the call;
	// the scheduler's worker loop resumes a node again after it
	// returns EventNotify, until a non-notify suspension occurs.
	Resume(ctx context.Context) fsm.Event
}

// BodyFunc is a single resumption step: given the node, run its body
// from the saved pc to the next suspension point, returning the event
// that suspension raised. Implementations mutate n.PC()/n.Data as
// needed before returning, following the "switch over pc" convention
// described in §6.
type BodyFunc func(ctx context.Context, n *FuncNode) fsm.Event

// FuncNode is the convenience Node implementation used by the
// scheduler's own tests and demo command: a pc-driven coroutine
// emulation wrapping a BodyFunc, per the "switch over a saved pc"
// node-body convention in §6.
type FuncNode struct {
	id            uint64
	name          string
	pc            int
	state         fsm.State
	lastEvent     atomic.Int32
	correspondent Node
	body          BodyFunc

	// Data holds body-specific mutable state (counters, captured
	// function, accumulated output), mirroring the data-model's
	// "body-specific mutable state" field on a Node.
	Data any
}

// NewFuncNode constructs a FuncNode with the given id, name and body.
// body may be nil for a node whose correspondent must be wired up
// before its body can be written (see SetBody).
func NewFuncNode(id uint64, name string, body BodyFunc) *FuncNode {
	return &FuncNode{id: id, name: name, body: body}
}

// SetBody assigns or replaces the node's resumption body.
func (n *FuncNode) SetBody(body BodyFunc) { n.body = body }

func (n *FuncNode) ID() uint64   { return n.id }
func (n *FuncNode) Name() string { return n.name }

func (n *FuncNode) State() fsm.State     { return n.state }
func (n *FuncNode) SetState(s fsm.State) { n.state = s }

// LastEvent and SetLastEvent are accessed across goroutines: a Notify
// on this node's correspondent may stamp EventNotify directly without
// going through the waiting set (see Scheduler.Notify's race shortcut)
// and this node's own Wait clears it, both under the scheduler's
// eventMu, while the scheduler's sweep reads it without that lock.
// Back this with an atomic so the unlocked read never tears.
func (n *FuncNode) LastEvent() fsm.Event     { return fsm.Event(n.lastEvent.Load()) }
func (n *FuncNode) SetLastEvent(e fsm.Event) { n.lastEvent.Store(int32(e)) }

func (n *FuncNode) Correspondent() Node        { return n.correspondent }
func (n *FuncNode) SetCorrespondent(peer Node) { n.correspondent = peer }

// PC returns the saved program counter.
func (n *FuncNode) PC() int { return n.pc }

// SetPC saves the program counter for the next Resume.
func (n *FuncNode) SetPC(pc int) { n.pc = pc }

// Resume delegates to the configured BodyFunc.
func (n *FuncNode) Resume(ctx context.Context) fsm.Event {
	return n.body(ctx, n)
}
