package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"ftpfs/internal/store"
	"ftpfs/internal/vfs"
)

func runCommand(ctx context.Context, fsys *vfs.FS, st *store.Store, args []string) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "ls":
		path := "/"
		if len(rest) > 0 {
			path = rest[0]
		}
		entries, err := fsys.List(ctx, path)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		for _, e := range entries {
			kind := "-"
			switch {
			case e.IsDir:
				kind = "d"
			case e.IsLink:
				kind = "l"
			}
			name := e.Name
			if e.IsLink && e.Target != "" {
				name += " -> " + e.Target
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", kind, e.Size, e.ModTime.Format(time.RFC3339), name)
		}
		return w.Flush()

	case "stat":
		if len(rest) != 1 {
			return fmt.Errorf("usage: stat <path>")
		}
		e, err := fsys.Stat(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Printf("path:     %s\n", e.Path)
		fmt.Printf("size:     %d\n", e.Size)
		fmt.Printf("dir:      %v\n", e.IsDir)
		fmt.Printf("modified: %s\n", e.ModTime.Format(time.RFC3339))
		return nil

	case "get":
		if len(rest) != 2 {
			return fmt.Errorf("usage: get <remote> <local>")
		}
		remote, local := rest[0], rest[1]
		return journal(st, "get", remote, local, func() (int64, error) {
			r, err := fsys.OpenRead(ctx, remote)
			if err != nil {
				return 0, err
			}
			f, err := os.Create(local)
			if err != nil {
				r.Close()
				return 0, err
			}
			n, copyErr := io.Copy(f, r)
			closeErr := r.Close()
			if err := f.Close(); copyErr == nil && err != nil {
				copyErr = err
			}
			if copyErr == nil {
				copyErr = closeErr
			}
			return n, copyErr
		})

	case "put":
		if len(rest) != 2 {
			return fmt.Errorf("usage: put <local> <remote>")
		}
		local, remote := rest[0], rest[1]
		return journal(st, "put", remote, local, func() (int64, error) {
			f, err := os.Open(local)
			if err != nil {
				return 0, err
			}
			defer f.Close()
			w, err := fsys.OpenWrite(ctx, remote, vfs.Create)
			if err != nil {
				return 0, err
			}
			n, copyErr := io.Copy(w, f)
			closeErr := w.Close()
			if copyErr == nil {
				copyErr = closeErr
			}
			return n, copyErr
		})

	case "rm":
		if len(rest) != 1 {
			return fmt.Errorf("usage: rm <path>")
		}
		return journal(st, "remove", rest[0], "", func() (int64, error) {
			return 0, fsys.Remove(ctx, rest[0])
		})

	case "mkdir":
		if len(rest) != 1 {
			return fmt.Errorf("usage: mkdir <path>")
		}
		return journal(st, "mkdir", rest[0], "", func() (int64, error) {
			return 0, fsys.Mkdir(ctx, rest[0])
		})

	case "mv":
		fs := flag.NewFlagSet("mv", flag.ContinueOnError)
		replace := fs.Bool("replace", false, "replace an existing destination")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: mv [-replace] <src> <dst>")
		}
		src, dst := fs.Arg(0), fs.Arg(1)
		var opts []vfs.CopyOption
		if *replace {
			opts = append(opts, vfs.ReplaceExisting)
		}
		return journal(st, "move", src, dst, func() (int64, error) {
			return 0, fsys.Move(ctx, src, dst, opts...)
		})

	case "cp":
		fs := flag.NewFlagSet("cp", flag.ContinueOnError)
		replace := fs.Bool("replace", false, "replace an existing destination")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: cp [-replace] <src> <dst>")
		}
		src, dst := fs.Arg(0), fs.Arg(1)
		var opts []vfs.CopyOption
		if *replace {
			opts = append(opts, vfs.ReplaceExisting)
		}
		return journal(st, "copy", src, dst, func() (int64, error) {
			return 0, fsys.Copy(ctx, src, dst, opts...)
		})

	case "check":
		if len(rest) != 1 {
			return fmt.Errorf("usage: check <path>")
		}
		if err := fsys.CheckDir(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Printf("%s: ok\n", rest[0])
		return nil

	case "history":
		limit := 20
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("usage: history [n]")
			}
			limit = n
		}
		transfers, err := st.List(limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		for _, tr := range transfers {
			target := tr.TargetPath
			if target == "" {
				target = "-"
			}
			errMsg := tr.Error
			if errMsg == "" {
				errMsg = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				tr.StartedAt.Format(time.RFC3339), tr.Op, tr.Path, target, tr.Bytes, tr.Status, errMsg)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// journal records the operation in the local transfer log around fn.
// Journal failures are not fatal to the operation itself.
func journal(st *store.Store, op, path, target string, fn func() (int64, error)) error {
	id := uuid.New().String()[:8]
	_ = st.Begin(&store.Transfer{
		ID:         id,
		Op:         op,
		Path:       path,
		TargetPath: target,
		StartedAt:  time.Now().UTC(),
	})
	bytes, err := fn()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	_ = st.Finish(id, bytes, msg)
	return err
}
