// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package apperr defines the error taxonomy shared by the vault, storage and
// auth packages. Every failure carries a Kind so callers can branch with
// errors.Is against the exported sentinels without depending on messages.
package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindWeakPassword
	KindServiceNotFound
	KindFileAccess
	KindCodec
	KindInvalidRecordFormat
	KindDuplicateService
	KindInvalidInput
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindWeakPassword:
		return "weak password"
	case KindServiceNotFound:
		return "service not found"
	case KindFileAccess:
		return "file access"
	case KindCodec:
		return "codec"
	case KindInvalidRecordFormat:
		return "invalid record format"
	case KindDuplicateService:
		return "duplicate service"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown"
	}
}

// Op is the direction of a file access.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// Reason refines a file access failure.
type Reason string

const (
	ReasonMissing    Reason = "missing"
	ReasonPermission Reason = "permission"
	ReasonOther      Reason = "other"
)

// Error is the structured error returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      Op
	Reason  Reason
	Path    string
	Line    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		fmt.Fprintf(&b, " (%s", e.Op)
		if e.Reason != "" {
			fmt.Fprintf(&b, ", %s", e.Reason)
		}
		b.WriteString(")")
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " [%s", e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind, and for file access also by reason when the
// target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Reason != "" && t.Reason != e.Reason {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return t.Path == "" && t.Message == "" && t.Err == nil && t.Line == 0
}

// Sentinels for errors.Is.
var (
	ErrWeakPassword        = &Error{Kind: KindWeakPassword}
	ErrServiceNotFound     = &Error{Kind: KindServiceNotFound}
	ErrFileAccess          = &Error{Kind: KindFileAccess}
	ErrFileMissing         = &Error{Kind: KindFileAccess, Reason: ReasonMissing}
	ErrFilePermission      = &Error{Kind: KindFileAccess, Reason: ReasonPermission}
	ErrCodec               = &Error{Kind: KindCodec}
	ErrInvalidRecordFormat = &Error{Kind: KindInvalidRecordFormat}
	ErrDuplicateService    = &Error{Kind: KindDuplicateService}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
)

// WeakPassword reports a password that does not pass the length policy.
func WeakPassword(min int) *Error {
	return &Error{
		Kind:    KindWeakPassword,
		Message: fmt.Sprintf("password must be longer than %d characters", min),
	}
}

// ServiceNotFound reports a reference to an absent service name.
func ServiceNotFound(service string) *Error {
	return &Error{Kind: KindServiceNotFound, Message: fmt.Sprintf("%q", service)}
}

// DuplicateService reports an add that collides with an existing service.
func DuplicateService(service string) *Error {
	return &Error{Kind: KindDuplicateService, Message: fmt.Sprintf("%q", service)}
}

// InvalidInput reports a field that cannot be represented in the store.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// FileAccess wraps an I/O failure on path, classifying missing files and
// permission problems.
func FileAccess(op Op, path string, err error) *Error {
	reason := ReasonOther
	switch {
	case errors.Is(err, fs.ErrNotExist):
		reason = ReasonMissing
	case errors.Is(err, fs.ErrPermission):
		reason = ReasonPermission
	}
	return &Error{Kind: KindFileAccess, Op: op, Reason: reason, Path: path, Err: err}
}

// Codec wraps a compression or decompression failure.
func Codec(op, path string, err error) *Error {
	return &Error{Kind: KindCodec, Path: path, Message: op, Err: err}
}

// InvalidRecordFormat reports a malformed line at the 1-based line number.
func InvalidRecordFormat(path string, line int, message string) *Error {
	return &Error{Kind: KindInvalidRecordFormat, Path: path, Line: line, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
