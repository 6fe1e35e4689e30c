package vfs

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"ftpfs/internal/ftperr"
	"ftpfs/internal/pool"
)

const defaultBufferSize = 128 * 1024

// FS provides filesystem operations over a pool of FTP sessions. Every
// operation borrows a session, runs its commands and returns the session
// to the pool; protocol failures are translated into the ftperr taxonomy
// and transport faults mark the borrowed client broken so the pool
// discards it.
type FS struct {
	pool    *pool.Pool[Session]
	tr      ftperr.Translator
	logger  *slog.Logger
	bufSize int
}

func New(p *pool.Pool[Session], tr ftperr.Translator, logger *slog.Logger, bufSize int) *FS {
	if tr == nil {
		tr = ftperr.NewDefaultTranslator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	return &FS{pool: p, tr: tr, logger: logger, bufSize: bufSize}
}

// commandErr post-processes a command error on a borrowed client.
// Protocol replies go through translate; anything else means the session
// itself failed, so the client is marked broken and the raw error surfaces.
func (f *FS) commandErr(c *pool.Client[Session], err error, translate func(code int, text string) error) error {
	if err == nil {
		return nil
	}
	if code, text, ok := ftperr.Reply(err); ok && !ftperr.IsTransportFault(err) {
		return translate(code, text)
	}
	c.MarkBroken()
	return fmt.Errorf("ftp session fault: %w", err)
}

// Stat fetches metadata for path.
func (f *FS) Stat(ctx context.Context, path string) (*Entry, error) {
	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer f.pool.Release(c)

	e, err := c.Session().Entry(path)
	if err != nil {
		return nil, f.commandErr(c, err, func(code int, text string) error {
			return f.tr.TranslateStat(path, code, text)
		})
	}
	return e, nil
}

// List returns the entries of the directory at path.
func (f *FS) List(ctx context.Context, path string) ([]*Entry, error) {
	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer f.pool.Release(c)

	entries, err := c.Session().List(path)
	if err != nil {
		return nil, f.commandErr(c, err, func(code int, text string) error {
			return f.tr.TranslateStat(path, code, text)
		})
	}
	return entries, nil
}

// CheckDir verifies that path is a directory the logged-in user can enter.
func (f *FS) CheckDir(ctx context.Context, path string) error {
	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer f.pool.Release(c)

	return f.commandErr(c, c.Session().ChangeDir(path), func(code int, text string) error {
		return f.tr.TranslateChangeDirectory(path, code, text)
	})
}

// Mkdir creates the directory at path.
func (f *FS) Mkdir(ctx context.Context, path string) error {
	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer f.pool.Release(c)

	return f.commandErr(c, c.Session().MakeDir(path), func(code int, text string) error {
		return f.tr.TranslateCreateDirectory(path, code, text)
	})
}

// Remove deletes the file or directory at path. Non-empty directories
// fail with ftperr.ErrDirectoryNotEmpty.
func (f *FS) Remove(ctx context.Context, path string) error {
	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer f.pool.Release(c)

	e, err := c.Session().Entry(path)
	if err != nil {
		return f.commandErr(c, err, func(code int, text string) error {
			return f.tr.TranslateStat(path, code, text)
		})
	}

	var cmdErr error
	if e.IsDir {
		cmdErr = c.Session().RemoveDir(path)
	} else {
		cmdErr = c.Session().Delete(path)
	}
	return f.commandErr(c, cmdErr, func(code int, text string) error {
		return f.tr.TranslateDelete(path, code, text, e.IsDir)
	})
}

// Move renames src to dst on the server. Without ReplaceExisting an
// existing destination fails with ftperr.ErrAlreadyExists; with it, the
// destination is removed first.
func (f *FS) Move(ctx context.Context, src, dst string, opts ...CopyOption) error {
	mo, err := ForMove(opts...)
	if err != nil {
		return err
	}

	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer f.pool.Release(c)

	e, statErr := c.Session().Entry(dst)
	switch {
	case statErr == nil:
		if !mo.ReplaceExisting {
			return fmt.Errorf("move %s -> %s: %w", src, dst, ftperr.ErrAlreadyExists)
		}
		var delErr error
		if e.IsDir {
			delErr = c.Session().RemoveDir(dst)
		} else {
			delErr = c.Session().Delete(dst)
		}
		if delErr != nil {
			return f.commandErr(c, delErr, func(code int, text string) error {
				return f.tr.TranslateDelete(dst, code, text, e.IsDir)
			})
		}
	case ftperr.IsTransportFault(statErr):
		c.MarkBroken()
		return fmt.Errorf("ftp session fault: %w", statErr)
	default:
		// Destination absent; proceed with the rename.
	}

	return f.commandErr(c, c.Session().Rename(src, dst), func(code int, text string) error {
		return f.tr.TranslateMove(src, dst, code, text)
	})
}

// Copy streams src into dst through the local host. It borrows two
// sessions, one for each data connection, so the pool must allow at
// least two clients for copies to make progress.
func (f *FS) Copy(ctx context.Context, src, dst string, opts ...CopyOption) error {
	co, err := ForCopy(opts...)
	if err != nil {
		return err
	}

	rc, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer f.pool.Release(rc)

	if !co.ReplaceExisting {
		if _, statErr := rc.Session().Entry(dst); statErr == nil {
			return fmt.Errorf("copy %s -> %s: %w", src, dst, ftperr.ErrAlreadyExists)
		} else if ftperr.IsTransportFault(statErr) {
			rc.MarkBroken()
			return fmt.Errorf("ftp session fault: %w", statErr)
		}
	}

	translate := func(code int, text string) error {
		return f.tr.TranslateCopy(src, dst, code, text)
	}

	if co.Type != TypeDefault {
		if err := rc.Session().SetTransferType(co.Type == TypeASCII); err != nil {
			return f.commandErr(rc, err, translate)
		}
	}

	r, err := rc.Session().Retr(src)
	if err != nil {
		return f.commandErr(rc, err, translate)
	}

	wc, err := f.pool.Acquire(ctx)
	if err != nil {
		r.Close()
		return err
	}
	defer f.pool.Release(wc)

	if co.Type != TypeDefault {
		if err := wc.Session().SetTransferType(co.Type == TypeASCII); err != nil {
			r.Close()
			return f.commandErr(wc, err, translate)
		}
	}

	storErr := wc.Session().Stor(dst, bufio.NewReaderSize(r, f.bufSize))
	closeErr := r.Close()
	if storErr != nil {
		return f.commandErr(wc, storErr, translate)
	}
	return f.commandErr(rc, closeErr, translate)
}
