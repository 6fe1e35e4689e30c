// Package vfs is the filesystem facade over a pool of FTP sessions:
// metadata, listings, directory mutation and streaming file access, with
// protocol replies translated into the ftperr taxonomy.
package vfs

import "time"

// Entry describes one remote file, directory or link.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	IsDir   bool      `json:"is_dir"`
	IsLink  bool      `json:"is_link"`
	Target  string    `json:"target,omitempty"` // link target, if IsLink
	ModTime time.Time `json:"mod_time"`
}
