package vfs

import (
	"context"
	"fmt"
	"io"

	"ftpfs/internal/ftperr"
	"ftpfs/internal/pool"
)

// OpenRead opens path for reading. The returned reader keeps its pooled
// session borrowed until Close, which waits for the transfer completion
// reply and, with DeleteOnClose, removes the file over the same session.
func (f *FS) OpenRead(ctx context.Context, path string, opts ...OpenOption) (io.ReadCloser, error) {
	oo, err := ForRead(opts...)
	if err != nil {
		return nil, err
	}

	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	translate := func(code int, text string) error {
		return f.tr.TranslateOpenRead(path, code, text)
	}

	if oo.Type != TypeDefault {
		if err := c.Session().SetTransferType(oo.Type == TypeASCII); err != nil {
			out := f.commandErr(c, err, translate)
			f.pool.Release(c)
			return nil, out
		}
	}

	r, err := c.Session().Retr(path)
	if err != nil {
		out := f.commandErr(c, err, translate)
		f.pool.Release(c)
		return nil, out
	}

	if oo.DeleteOnClose {
		// The pending delete is a second logical operation on this session;
		// it holds its own reference, paired with a second release in Close.
		if err := f.pool.AddRef(c); err != nil {
			r.Close()
			f.pool.Release(c)
			return nil, err
		}
	}

	return &fileReader{
		fsys:          f,
		c:             c,
		r:             r,
		path:          path,
		deleteOnClose: oo.DeleteOnClose,
	}, nil
}

type fileReader struct {
	fsys          *FS
	c             *pool.Client[Session]
	r             io.ReadCloser
	path          string
	deleteOnClose bool
	closed        bool
}

func (r *fileReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		// A failed data-connection read poisons the whole session.
		r.c.MarkBroken()
	}
	return n, err
}

func (r *fileReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	// Close waits for the server's transfer completion reply.
	out := r.fsys.commandErr(r.c, r.r.Close(), func(code int, text string) error {
		return r.fsys.tr.TranslateOpenRead(r.path, code, text)
	})

	if r.deleteOnClose {
		if !r.c.Broken() {
			err := r.fsys.commandErr(r.c, r.c.Session().Delete(r.path), func(code int, text string) error {
				return r.fsys.tr.TranslateDelete(r.path, code, text, false)
			})
			if out == nil {
				out = err
			}
		}
		r.fsys.pool.Release(r.c)
	}

	r.fsys.pool.Release(r.c)
	return out
}

// OpenWrite opens path for writing. Without Create or CreateNew the file
// must already exist; CreateNew fails on an existing file; Append resumes
// at the current file size. The returned writer keeps its pooled session
// borrowed until Close, which waits for the upload to complete.
func (f *FS) OpenWrite(ctx context.Context, path string, opts ...OpenOption) (io.WriteCloser, error) {
	oo, err := ForWrite(opts...)
	if err != nil {
		return nil, err
	}

	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, statErr := c.Session().Entry(path)
	exists := statErr == nil
	if statErr != nil && ftperr.IsTransportFault(statErr) {
		c.MarkBroken()
		f.pool.Release(c)
		return nil, fmt.Errorf("ftp session fault: %w", statErr)
	}
	if exists && oo.CreateNew {
		f.pool.Release(c)
		return nil, fmt.Errorf("create %s: %w", path, ftperr.ErrAlreadyExists)
	}
	if !exists && !oo.Create && !oo.CreateNew {
		f.pool.Release(c)
		return nil, fmt.Errorf("open %s: %w", path, ftperr.ErrNotFound)
	}

	translate := func(code int, text string) error {
		return f.tr.TranslateOpenWrite(path, code, text, oo.CreateNew)
	}

	if oo.Type != TypeDefault {
		if err := c.Session().SetTransferType(oo.Type == TypeASCII); err != nil {
			out := f.commandErr(c, err, translate)
			f.pool.Release(c)
			return nil, out
		}
	}

	var offset uint64
	if oo.Append && exists {
		if size, err := c.Session().FileSize(path); err == nil && size > 0 {
			offset = uint64(size)
		}
	}

	pr, pw := io.Pipe()
	w := &fileWriter{
		fsys:      f,
		c:         c,
		pw:        pw,
		path:      path,
		translate: translate,
		done:      make(chan error, 1),
	}
	go func() {
		var storErr error
		if offset > 0 {
			storErr = c.Session().StorFrom(path, pr, offset)
		} else {
			storErr = c.Session().Stor(path, pr)
		}
		// Unblock any writer stuck in pw.Write when the upload fails early.
		pr.CloseWithError(storErr)
		w.done <- storErr
	}()
	return w, nil
}

type fileWriter struct {
	fsys      *FS
	c         *pool.Client[Session]
	pw        *io.PipeWriter
	path      string
	translate func(code int, text string) error
	done      chan error
	closed    bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *fileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.pw.Close()
	out := w.fsys.commandErr(w.c, <-w.done, w.translate)
	w.fsys.pool.Release(w.c)
	return out
}
