package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call so callers can branch on the
// failure mode instead of string-matching messages.
type ErrorKind int

const (
	// KindUnexpected covers non-2xx statuses with no more specific class.
	KindUnexpected ErrorKind = iota

	// KindNetwork means the request could not complete at all
	// (connection refused, DNS failure, timeout).
	KindNetwork

	// KindAuth means the backend rejected the bearer token (401).
	KindAuth

	// KindValidation means the backend rejected the input
	// (400, 409, 422, e.g. duplicate email on register).
	KindValidation

	// KindNotFound means the target resource does not exist (404).
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unexpected"
	}
}

// Error is the error type returned by every Client method. Status is
// zero for network failures. Detail carries the backend's error message
// when one could be parsed from the response body.
type Error struct {
	Kind   ErrorKind
	Status int
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Detail)
		}
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or KindUnexpected when err is
// not an *Error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnexpected
}

// IsAuthError reports whether err (or any error in its chain) is an
// authentication failure.
func IsAuthError(err error) bool {
	return KindOf(err) == KindAuth
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// kindForStatus maps an HTTP status code to an ErrorKind.
func kindForStatus(status int) ErrorKind {
	switch status {
	case 401:
		return KindAuth
	case 404:
		return KindNotFound
	case 400, 409, 422:
		return KindValidation
	default:
		return KindUnexpected
	}
}
