package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transports.
type Kind int

const (
	Internal Kind = iota
	NotFound
	BadRequest
	Unauthorized
	Conflict
	Upstream
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

func BadRequestf(format string, args ...any) *Error {
	return &Error{Kind: BadRequest, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: Conflict, Message: fmt.Sprintf(format, args...)}
}

func UpstreamErr(msg string, err error) *Error {
	return &Error{Kind: Upstream, Message: msg, Err: err}
}

var ErrUnauthorized = &Error{Kind: Unauthorized, Message: "Unauthorized"}

// KindOf reports the kind of the first *Error in err's chain, Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
