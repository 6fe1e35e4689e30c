// Package ftpclient wraps the jlaffaye/ftp server connection into the
// session type managed by the pool, and provides the factory that dials
// and authenticates new sessions.
package ftpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"os"
	gopath "path"

	"github.com/jlaffaye/ftp"

	"ftpfs/internal/config"
	"ftpfs/internal/pool"
	"ftpfs/internal/vfs"
)

// Client is one authenticated FTP control connection. It executes exactly
// one command at a time; serialization across callers is the pool's job.
type Client struct {
	conn *ftp.ServerConn
}

// NewFactory returns a session factory that dials cfg.Addr and logs in
// with the configured credentials. A failed login closes the connection
// before the error is returned.
func NewFactory(cfg *config.Config, logger *slog.Logger) pool.Factory[*Client] {
	return func(ctx context.Context) (*Client, error) {
		opts := []ftp.DialOption{
			ftp.DialWithContext(ctx),
			ftp.DialWithTimeout(cfg.ConnectTimeout()),
		}
		if cfg.ExplicitTLS {
			opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: cfg.Host}))
		}
		if cfg.Debug {
			opts = append(opts, ftp.DialWithDebugOutput(os.Stderr))
		}

		conn, err := ftp.Dial(cfg.Addr(), opts...)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.Addr(), err)
		}
		if err := conn.Login(cfg.User, cfg.Password); err != nil {
			conn.Quit()
			return nil, fmt.Errorf("login %s@%s: %w", cfg.User, cfg.Addr(), err)
		}
		logger.Debug("ftp session established", "addr", cfg.Addr(), "user", cfg.User)
		return &Client{conn: conn}, nil
	}
}

// NoOp issues the keep-alive command.
func (c *Client) NoOp() error { return c.conn.NoOp() }

// Quit disconnects the session.
func (c *Client) Quit() error { return c.conn.Quit() }

// SetTransferType switches the session between ASCII and binary mode for
// subsequent transfers.
func (c *Client) SetTransferType(ascii bool) error {
	if ascii {
		return c.conn.Type(ftp.TransferTypeASCII)
	}
	return c.conn.Type(ftp.TransferTypeBinary)
}

// Entry fetches metadata for a single path.
func (c *Client) Entry(path string) (*vfs.Entry, error) {
	we, err := c.conn.GetEntry(path)
	if err != nil {
		return nil, err
	}
	return toEntry(gopath.Dir(path), we), nil
}

// List returns the directory listing for path.
func (c *Client) List(path string) ([]*vfs.Entry, error) {
	wire, err := c.conn.List(path)
	if err != nil {
		return nil, err
	}
	entries := make([]*vfs.Entry, 0, len(wire))
	for _, we := range wire {
		// Servers commonly include the dot entries in LIST output.
		if we.Name == "." || we.Name == ".." {
			continue
		}
		entries = append(entries, toEntry(path, we))
	}
	return entries, nil
}

func (c *Client) ChangeDir(path string) error { return c.conn.ChangeDir(path) }

func (c *Client) MakeDir(path string) error { return c.conn.MakeDir(path) }

// Delete removes a file (DELE).
func (c *Client) Delete(path string) error { return c.conn.Delete(path) }

// RemoveDir removes a directory (RMD).
func (c *Client) RemoveDir(path string) error { return c.conn.RemoveDir(path) }

func (c *Client) Rename(from, to string) error { return c.conn.Rename(from, to) }

func (c *Client) FileSize(path string) (int64, error) { return c.conn.FileSize(path) }

// Retr opens path for reading. The returned reader holds the session's
// data connection until closed.
func (c *Client) Retr(path string) (io.ReadCloser, error) { return c.conn.Retr(path) }

// Stor uploads r to path, replacing any existing file.
func (c *Client) Stor(path string, r io.Reader) error { return c.conn.Stor(path, r) }

// StorFrom uploads r to path starting at offset; used for appends.
func (c *Client) StorFrom(path string, r io.Reader, offset uint64) error {
	return c.conn.StorFrom(path, r, offset)
}

func toEntry(dir string, we *ftp.Entry) *vfs.Entry {
	return &vfs.Entry{
		Name:    we.Name,
		Path:    gopath.Join(dir, we.Name),
		Size:    int64(we.Size),
		IsDir:   we.Type == ftp.EntryTypeFolder,
		IsLink:  we.Type == ftp.EntryTypeLink,
		Target:  we.Target,
		ModTime: we.Time,
	}
}
