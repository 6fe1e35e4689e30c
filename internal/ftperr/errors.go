// Package ftperr converts raw FTP reply codes and reply text into a
// small semantic error taxonomy, so callers can branch on errors.Is
// instead of parsing server replies.
package ftperr

import (
	"errors"
	"fmt"
)

// Semantic categories. A translated error wraps exactly one of these
// (or none, for the generic I/O fallback).
var (
	ErrNotFound          = errors.New("no such file or directory")
	ErrAccessDenied      = errors.New("access denied")
	ErrDirectoryNotEmpty = errors.New("directory not empty")
	ErrAlreadyExists     = errors.New("file already exists")
)

// ReplyError is a classified protocol failure. It always retains the raw
// reply code and text for diagnosis while exposing a stable category via
// Unwrap, so errors.Is(err, ftperr.ErrNotFound) works.
type ReplyError struct {
	Op            string // operation kind, e.g. "delete"
	Path          string
	SecondaryPath string // destination for copy/move, empty otherwise
	Code          int
	Text          string
	category      error // nil for generic I/O failures
}

func (e *ReplyError) Error() string {
	msg := e.Text
	if msg == "" {
		msg = fmt.Sprintf("reply code %d", e.Code)
	}
	if e.SecondaryPath != "" {
		return fmt.Sprintf("%s %s -> %s: %s", e.Op, e.Path, e.SecondaryPath, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
}

func (e *ReplyError) Unwrap() error { return e.category }

// Category returns the semantic category sentinel, or nil for a generic
// I/O failure.
func (e *ReplyError) Category() error { return e.category }
