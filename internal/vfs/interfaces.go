package vfs

import "io"

// Session is the command surface the facade needs from one pooled FTP
// session. Implemented by ftpclient.Client; faked in tests.
type Session interface {
	// Pool lifecycle.
	NoOp() error
	Quit() error

	SetTransferType(ascii bool) error
	Entry(path string) (*Entry, error)
	List(path string) ([]*Entry, error)
	ChangeDir(path string) error
	MakeDir(path string) error
	Delete(path string) error
	RemoveDir(path string) error
	Rename(from, to string) error
	FileSize(path string) (int64, error)
	Retr(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	StorFrom(path string, r io.Reader, offset uint64) error
}
