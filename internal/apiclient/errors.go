package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure by the operation that produced it.
type Kind int

const (
	KindAuthentication Kind = iota + 1
	KindRegistration
	KindAuthorization
	KindDirectory
	KindReservation
	KindCreate
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindRegistration:
		return "registration"
	case KindAuthorization:
		return "authorization"
	case KindDirectory:
		return "directory"
	case KindReservation:
		return "reservation"
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced by the client core. Message is
// always fit to show to the user who triggered the operation.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches the bare sentinels below by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Status == 0 && t.Message == "" && t.Err == nil
}

var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrRegistration   = &Error{Kind: KindRegistration}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrDirectory      = &Error{Kind: KindDirectory}
	ErrReservation    = &Error{Kind: KindReservation}
	ErrCreate         = &Error{Kind: KindCreate}
	ErrUpdate         = &Error{Kind: KindUpdate}
	ErrDelete         = &Error{Kind: KindDelete}
)

// StatusError is returned by Client.Do for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.Code, http.StatusText(e.Code))
}

// StatusCode reports the HTTP status carried by err, or 0 when the request
// never produced a response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Reason describes why a request failed: the server message when one was
// sent, else the HTTP reason phrase, else the transport error.
func Reason(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("%d %s", se.Code, http.StatusText(se.Code))
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Fail converts a transport or status error into a typed client error. The
// server-reported message wins over fallback; transport failures append the
// underlying cause to fallback.
func Fail(kind Kind, err error, fallback string) *Error {
	e := &Error{Kind: kind, Message: fallback, Err: err}
	var se *StatusError
	if errors.As(err, &se) {
		e.Status = se.Code
		if se.Message != "" {
			e.Message = se.Message
		}
		return e
	}
	if err != nil {
		e.Message = fallback + ": " + err.Error()
	}
	return e
}
