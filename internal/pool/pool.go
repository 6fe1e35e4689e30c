package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session is the opaque transport handle managed by the pool. A session
// executes one command at a time end-to-end; exclusivity is enforced by
// the pool's busy state, not by the session itself.
type Session interface {
	// NoOp issues a keep-alive command on the session.
	NoOp() error
	// Quit disconnects the session. Called exactly once per session.
	Quit() error
}

// Factory creates and authenticates a new session. A failure must leave
// nothing behind to clean up.
type Factory[S Session] func(ctx context.Context) (S, error)

var (
	// ErrPoolClosed is returned by Acquire once Close has started.
	ErrPoolClosed = errors.New("pool: closed")
	// ErrAcquireTimeout is returned when no client became idle within the
	// acquire timeout. The caller may retry.
	ErrAcquireTimeout = errors.New("pool: timed out waiting for an idle client")
)

// CreateError wraps a session factory failure. The pool remains usable
// and no client slot is consumed.
type CreateError struct {
	Err error
}

func (e *CreateError) Error() string { return "pool: create session: " + e.Err.Error() }
func (e *CreateError) Unwrap() error { return e.Err }

// Config configures a Pool.
type Config[S Session] struct {
	// MaxClients bounds the number of live sessions. Must be >= 1.
	MaxClients int
	// AcquireTimeout is the default wait in Acquire; 0 waits indefinitely.
	AcquireTimeout time.Duration
	Factory        Factory[S]
	Logger         *slog.Logger
}

// Pool owns a bounded set of clients and hands them out to concurrent
// borrowers under reference-counted ownership. Clients are created lazily
// up to MaxClients and kept across acquire/release cycles until they
// break or the pool closes.
type Pool[S Session] struct {
	cfg    Config[S]
	logger *slog.Logger

	mu      sync.Mutex
	idle    []*Client[S] // LIFO: most recently released first
	created int          // live sessions, busy + idle
	closing bool
	closed  bool
	notify  chan struct{} // closed and replaced on every state change
}

func New[S Session](cfg Config[S]) (*Pool[S], error) {
	if cfg.MaxClients < 1 {
		return nil, fmt.Errorf("pool: max clients must be >= 1, got %d", cfg.MaxClients)
	}
	if cfg.Factory == nil {
		return nil, errors.New("pool: factory is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool[S]{
		cfg:    cfg,
		logger: logger,
		notify: make(chan struct{}),
	}, nil
}

// broadcastLocked wakes every waiter so it can re-examine pool state.
// Callers must hold p.mu.
func (p *Pool[S]) broadcastLocked() {
	close(p.notify)
	p.notify = make(chan struct{})
}

// Acquire borrows a client using the configured default timeout.
func (p *Pool[S]) Acquire(ctx context.Context) (*Client[S], error) {
	return p.AcquireTimeout(ctx, p.cfg.AcquireTimeout)
}

// AcquireTimeout borrows a client, waiting up to timeout for one to become
// idle when the pool is exhausted. timeout 0 waits indefinitely. Context
// cancellation aborts the wait. A failed acquire consumes no client slot.
func (p *Pool[S]) AcquireTimeout(ctx context.Context, timeout time.Duration) (*Client[S], error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	p.mu.Lock()
	for {
		if p.closing {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		if n := len(p.idle); n > 0 {
			c := p.idle[n-1]
			p.idle = p.idle[:n-1]
			c.refs.Store(1)
			c.setState(StateBusy)
			p.mu.Unlock()
			return c, nil
		}

		if p.created < p.cfg.MaxClients {
			p.created++
			p.mu.Unlock()

			sess, err := p.cfg.Factory(ctx)
			if err != nil {
				p.mu.Lock()
				p.created--
				p.broadcastLocked()
				p.mu.Unlock()
				return nil, &CreateError{Err: err}
			}

			c := newClient(sess)
			c.refs.Store(1)
			c.setState(StateBusy)
			p.logger.Debug("created pooled client", "client_id", c.id)
			return c, nil
		}

		wait := p.notify
		p.mu.Unlock()
		select {
		case <-wait:
		case <-expired:
			return nil, ErrAcquireTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		p.mu.Lock()
	}
}

// AddRef lets a second logical operation share an already-borrowed client.
// Each AddRef must be paired with its own Release. The client must be busy.
func (p *Pool[S]) AddRef(c *Client[S]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.State() != StateBusy {
		return fmt.Errorf("pool: add ref on %s client %s", c.State(), c.id)
	}
	c.refs.Add(1)
	return nil
}

// Release returns a borrowed client. When the reference count reaches
// zero the client re-enters the idle set, unless it is broken or the pool
// is closing, in which case its session is disconnected and the slot freed.
func (p *Pool[S]) Release(c *Client[S]) {
	p.mu.Lock()
	n := c.refs.Add(-1)
	if n > 0 {
		p.mu.Unlock()
		return
	}
	if n < 0 {
		c.refs.Store(0)
		p.mu.Unlock()
		p.logger.Warn("release of a client that was not borrowed", "client_id", c.id)
		return
	}

	discard := false
	switch {
	case c.Broken():
		p.created--
		discard = true
	case p.closing:
		c.setState(StateDisconnected)
		p.created--
		discard = true
	default:
		c.setState(StateIdle)
		p.idle = append(p.idle, c)
	}
	p.broadcastLocked()
	p.mu.Unlock()

	if discard {
		p.logger.Debug("discarding pooled client", "client_id", c.id, "state", c.State().String())
		if err := c.sess.Quit(); err != nil {
			p.logger.Warn("disconnect failed", "client_id", c.id, "error", err)
		}
	}
}

// KeepAlive drains the idle set, issues a no-op on each drained session
// and returns the healthy ones to the idle set. Sessions whose no-op
// fails are disconnected and their slots freed. Busy clients are never
// touched, so keep-alive cannot interleave with an in-flight command.
func (p *Pool[S]) KeepAlive(ctx context.Context) error {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	drained := p.idle
	p.idle = nil
	p.mu.Unlock()

	var errs []error
	for _, c := range drained {
		if ctx.Err() != nil {
			// Put the rest back untouched.
			p.returnIdle(c)
			continue
		}
		if err := c.sess.NoOp(); err != nil {
			p.logger.Warn("keep-alive failed, disconnecting client", "client_id", c.id, "error", err)
			c.setState(StateDisconnected)
			_ = c.sess.Quit()
			p.mu.Lock()
			p.created--
			p.broadcastLocked()
			p.mu.Unlock()
			errs = append(errs, fmt.Errorf("client %s: %w", c.id, err))
			continue
		}
		p.returnIdle(c)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// returnIdle puts a drained client back into circulation. If the pool
// started closing while the client was held, it is disconnected instead.
func (p *Pool[S]) returnIdle(c *Client[S]) {
	p.mu.Lock()
	if p.closing {
		c.setState(StateDisconnected)
		p.created--
		p.broadcastLocked()
		p.mu.Unlock()
		_ = c.sess.Quit()
		return
	}
	p.idle = append(p.idle, c)
	p.broadcastLocked()
	p.mu.Unlock()
}

// Close marks the pool closing, waits for every borrowed client to be
// released and disconnects all remaining sessions. Acquire calls racing
// with Close fail with ErrPoolClosed, including waiters already blocked.
// The wait on in-flight borrows is bounded only by ctx.
func (p *Pool[S]) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closing = true
	p.broadcastLocked()

	for p.created > len(p.idle) {
		wait := p.notify
		p.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return fmt.Errorf("pool: close: %w", ctx.Err())
		}
		p.mu.Lock()
	}

	idle := p.idle
	p.idle = nil
	p.created = 0
	p.closed = true
	p.mu.Unlock()

	for _, c := range idle {
		c.setState(StateDisconnected)
		if err := c.sess.Quit(); err != nil {
			p.logger.Warn("disconnect failed", "client_id", c.id, "error", err)
		}
	}
	p.logger.Info("pool closed", "disconnected", len(idle))
	return nil
}

// Closed reports whether Close has completed.
func (p *Pool[S]) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Size returns the number of live sessions, busy and idle.
func (p *Pool[S]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// Idle returns the number of clients currently available to acquirers.
func (p *Pool[S]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
