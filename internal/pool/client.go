package pool

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// State describes where a pooled client is in its lifecycle.
type State int32

const (
	// StateIdle means the client sits in the idle set, available to acquirers.
	StateIdle State = iota
	// StateBusy means the client is borrowed; its session may carry a command.
	StateBusy
	// StateBroken means the session reported a transport fault. Terminal;
	// the client never re-enters the idle set.
	StateBroken
	// StateDisconnected means the session has been disconnected. Terminal.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateBroken:
		return "broken"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Client wraps a session with a stable identity, a reference count and a
// lifecycle state. Clients are created and handed out by a Pool; borrowers
// may issue commands through Session but must not disconnect it themselves.
type Client[S Session] struct {
	id     string
	sess   S
	refs   atomic.Int32
	state  atomic.Int32
	broken atomic.Bool
}

func newClient[S Session](sess S) *Client[S] {
	return &Client[S]{
		id:   uuid.New().String()[:12],
		sess: sess,
	}
}

// ID returns the client's stable identity label.
func (c *Client[S]) ID() string { return c.id }

// Session returns the underlying transport session. The caller may use it
// only between Acquire and the matching Release.
func (c *Client[S]) Session() S { return c.sess }

func (c *Client[S]) State() State { return State(c.state.Load()) }

func (c *Client[S]) setState(s State) { c.state.Store(int32(s)) }

// Refs returns the current reference count.
func (c *Client[S]) Refs() int { return int(c.refs.Load()) }

// MarkBroken records that the session reported a transport fault while in
// use. The pool discards the client on release instead of re-idling it.
func (c *Client[S]) MarkBroken() {
	c.broken.Store(true)
	c.state.Store(int32(StateBroken))
}

// Broken reports whether the client has been marked broken.
func (c *Client[S]) Broken() bool { return c.broken.Load() }
