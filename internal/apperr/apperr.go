// Package apperr defines the error vocabulary shared by the IAM adapter, the
// organizer client and the provisioning service.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names a class of failure that callers can branch on.
type Kind string

const (
	KindUnauthenticated       Kind = "unauthenticated"
	KindForbidden             Kind = "forbidden"
	KindNotFound              Kind = "not_found"
	KindInvalidRequest        Kind = "invalid_request"
	KindUpstreamUnavailable   Kind = "upstream_unavailable"
	KindRoleAssignment        Kind = "role_assignment_failure"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindProtocol              Kind = "protocol_failure"
)

// Sentinels usable with errors.Is.
var (
	ErrUnauthenticated       = &Error{Kind: KindUnauthenticated}
	ErrForbidden             = &Error{Kind: KindForbidden}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrInvalidRequest        = &Error{Kind: KindInvalidRequest}
	ErrUpstreamUnavailable   = &Error{Kind: KindUpstreamUnavailable}
	ErrRoleAssignment        = &Error{Kind: KindRoleAssignment}
	ErrDependencyUnavailable = &Error{Kind: KindDependencyUnavailable}
	ErrProtocol              = &Error{Kind: KindProtocol}
)

// Error carries the kind plus enough context to log the failure centrally.
type Error struct {
	Kind    Kind
	Op      string
	ID      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " (id=%s)", e.ID)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status=%d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of op, id or status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// WithID returns a copy annotated with the target identifier.
func (e *Error) WithID(id string) *Error {
	cp := *e
	cp.ID = id
	return &cp
}

// WithStatus returns a copy annotated with the upstream status code.
func (e *Error) WithStatus(status int) *Error {
	cp := *e
	cp.Status = status
	return &cp
}

// KindForStatus maps an upstream HTTP status onto a kind. Statuses outside
// 4xx/5xx map to KindProtocol.
func KindForStatus(status int) Kind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 403:
		return KindForbidden
	case status == 401:
		return KindUnauthenticated
	case status >= 500:
		return KindUpstreamUnavailable
	case status >= 400:
		return KindInvalidRequest
	default:
		return KindProtocol
	}
}

// KindOf returns the kind of the outermost *Error in the chain, or "" when
// the chain holds none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As returns the outermost *Error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
