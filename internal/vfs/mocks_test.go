package vfs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/textproto"
	gopath "path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ftpfs/internal/pool"
)

// fakeSession is an in-memory FTP session. Method errors can be scripted
// per command via errs; unscripted lookups fail like a server would, with
// a 550 reply.
type fakeSession struct {
	mu      sync.Mutex
	entries map[string]*Entry
	files   map[string][]byte
	errs    map[string]error

	deleted     []string
	removedDirs []string
	renames     [][2]string
	storOffset  map[string]uint64
	ascii       []bool
	quits       int
	retrClose   error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		entries:    make(map[string]*Entry),
		files:      make(map[string][]byte),
		errs:       make(map[string]error),
		storOffset: make(map[string]uint64),
	}
}

func notFoundReply(path string) error {
	return &textproto.Error{Code: 550, Msg: path + ": No such file or directory."}
}

// addFile registers path with content and a matching entry.
func (s *fakeSession) addFile(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = content
	s.entries[path] = &Entry{
		Name:    gopath.Base(path),
		Path:    path,
		Size:    int64(len(content)),
		ModTime: time.Now(),
	}
}

func (s *fakeSession) addDir(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[path] = &Entry{Name: gopath.Base(path), Path: path, IsDir: true}
}

func (s *fakeSession) scripted(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[method]
}

func (s *fakeSession) NoOp() error { return nil }

func (s *fakeSession) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quits++
	return nil
}

func (s *fakeSession) SetTransferType(ascii bool) error {
	if err := s.scripted("type"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ascii = append(s.ascii, ascii)
	return nil
}

func (s *fakeSession) Entry(path string) (*Entry, error) {
	if err := s.scripted("entry"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	if !ok {
		return nil, notFoundReply(path)
	}
	return e, nil
}

func (s *fakeSession) List(path string) ([]*Entry, error) {
	if err := s.scripted("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Entry
	for _, e := range s.entries {
		if gopath.Dir(e.Path) == path {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeSession) ChangeDir(path string) error {
	if err := s.scripted("chdir"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[path]; ok && e.IsDir {
		return nil
	}
	return notFoundReply(path)
}

func (s *fakeSession) MakeDir(path string) error {
	if err := s.scripted("mkdir"); err != nil {
		return err
	}
	s.addDir(path)
	return nil
}

func (s *fakeSession) Delete(path string) error {
	if err := s.scripted("delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	delete(s.files, path)
	delete(s.entries, path)
	return nil
}

func (s *fakeSession) RemoveDir(path string) error {
	if err := s.scripted("removedir"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removedDirs = append(s.removedDirs, path)
	delete(s.entries, path)
	return nil
}

func (s *fakeSession) Rename(from, to string) error {
	if err := s.scripted("rename"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renames = append(s.renames, [2]string{from, to})
	if e, ok := s.entries[from]; ok {
		e.Path = to
		e.Name = gopath.Base(to)
		s.entries[to] = e
		delete(s.entries, from)
		if data, ok := s.files[from]; ok {
			s.files[to] = data
			delete(s.files, from)
		}
	}
	return nil
}

func (s *fakeSession) FileSize(path string) (int64, error) {
	if err := s.scripted("filesize"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return 0, notFoundReply(path)
	}
	return int64(len(data)), nil
}

type fakeDataConn struct {
	io.Reader
	closeErr error
}

func (c *fakeDataConn) Close() error { return c.closeErr }

func (s *fakeSession) Retr(path string) (io.ReadCloser, error) {
	if err := s.scripted("retr"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, notFoundReply(path)
	}
	return &fakeDataConn{Reader: bytes.NewReader(data), closeErr: s.retrClose}, nil
}

func (s *fakeSession) Stor(path string, r io.Reader) error {
	if err := s.scripted("stor"); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.addFile(path, data)
	return nil
}

func (s *fakeSession) StorFrom(path string, r io.Reader, offset uint64) error {
	if err := s.scripted("stor"); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	existing := s.files[path]
	s.mu.Unlock()
	if uint64(len(existing)) > offset {
		existing = existing[:offset]
	}
	s.mu.Lock()
	s.storOffset[path] = offset
	s.mu.Unlock()
	s.addFile(path, append(append([]byte{}, existing...), data...))
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestFS builds an FS over a pool whose factory always hands out the
// same fake session, so multi-client operations share one backing state.
func newTestFS(t *testing.T, maxClients int) (*FS, *fakeSession, *pool.Pool[Session]) {
	t.Helper()
	sess := newFakeSession()
	p, err := pool.New(pool.Config[Session]{
		MaxClients:     maxClients,
		AcquireTimeout: 2 * time.Second,
		Factory: func(ctx context.Context) (Session, error) {
			return sess, nil
		},
		Logger: testLogger(),
	})
	require.NoError(t, err)
	return New(p, nil, testLogger(), 0), sess, p
}
