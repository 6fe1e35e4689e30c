package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeSession is a scriptable Session for pool tests.
type fakeSession struct {
	seq int

	mu      sync.Mutex
	noopErr error
	noops   int
	quits   int
}

func (s *fakeSession) NoOp() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noops++
	return s.noopErr
}

func (s *fakeSession) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quits++
	return nil
}

func (s *fakeSession) noopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noops
}

func (s *fakeSession) quitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quits
}

func (s *fakeSession) setNoOpErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noopErr = err
}

// fakeFactory creates fakeSessions with increasing sequence numbers and
// remembers every session it handed out.
type fakeFactory struct {
	mu       sync.Mutex
	sessions []*fakeSession
	next     atomic.Int32
	err      error // returned instead of a session when set
}

func (f *fakeFactory) create(ctx context.Context) (*fakeSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSession{seq: int(f.next.Add(1))}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeFactory) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFactory) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func newTestPool(maxClients int) (*Pool[*fakeSession], *fakeFactory) {
	f := &fakeFactory{}
	p, err := New(Config[*fakeSession]{
		MaxClients: maxClients,
		Factory:    f.create,
	})
	if err != nil {
		panic(err)
	}
	return p, f
}
