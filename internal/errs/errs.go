// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs provides the small set of error kinds used across the
// screenkit core, per the propagation policy in the design document:
// per-record parse errors are logged and dropped, everything else
// propagates wrapped in one of these kinds.
package errs

import "fmt"

// Kind categorizes an error for callers that need to branch on failure
// mode without string matching.
type Kind int

const (
	// InvalidInput covers annotation parse failures, malformed
	// start/end grammar and alignment field violations.
	InvalidInput Kind = iota
	// MissingResource covers a missing manifest or insertion file for
	// a requested (assembly, trim, channel) triple.
	MissingResource
	// StaleCache marks a size mismatch that triggers a rebuild; it is
	// not meant to be surfaced to a caller, only logged.
	StaleCache
	// ChildProcessFailure covers a nonzero aligner exit or a kill by
	// timeout.
	ChildProcessFailure
	// IOError covers read/write failures against the screen store.
	IOError
	// LogicError covers precondition violations, e.g. p outside [0,1].
	LogicError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case MissingResource:
		return "missing resource"
	case StaleCache:
		return "stale cache"
	case ChildProcessFailure:
		return "child process failure"
	case IOError:
		return "I/O error"
	case LogicError:
		return "logic error"
	default:
		return "unknown error"
	}
}

// Error is a kinded error wrapping an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ke, ok := err.(*Error); ok {
			e = ke
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
