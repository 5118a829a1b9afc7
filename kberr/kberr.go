// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package kberr implements the typed error kinds the KB facade
// surfaces at its boundary. Clashes inside the tableau are ordinary
// dependency-directed control flow, never errors; only logic-level
// impossibilities (a malformed role box, a save-file with the wrong
// header) escape as a *kberr.Error.
package kberr

import "fmt"

// Kind discriminates the error kinds a public KB operation may return.
type Kind uint8

const (
	SyntaxError Kind = iota
	UndefinedName
	RoleBoxInconsistency
	DatatypeMisuse
	Inconsistent
	NotClassified
	SaveLoadError
	Cancelled
	Internal
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case UndefinedName:
		return "UndefinedName"
	case RoleBoxInconsistency:
		return "RoleBoxInconsistency"
	case DatatypeMisuse:
		return "DatatypeMisuse"
	case Inconsistent:
		return "Inconsistent"
	case NotClassified:
		return "NotClassified"
	case SaveLoadError:
		return "SaveLoadError"
	case Cancelled:
		return "Cancelled"
	case Internal:
		return "Internal"
	default:
		return "?"
	}
}

// Error is the typed error every public KB operation fails with.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so
// callers can write errors.Is(err, kberr.New(kberr.Inconsistent, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of kind with message msg.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error of kind with message msg, wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
