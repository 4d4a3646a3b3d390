package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed round trip.
type Kind string

const (
	// KindTransport covers connection, DNS and other request failures.
	KindTransport Kind = "transport"
	// KindStatus is a response outside the 2xx range.
	KindStatus Kind = "status"
	// KindDecode is a 2xx response whose body could not be parsed.
	KindDecode Kind = "decode"
)

// Error describes a failed API call.
type Error struct {
	Op         string // list, create, update, delete, health
	Method     string
	URL        string
	Kind       Kind
	StatusCode int    // set for KindStatus
	Message    string // server-provided error message, if any
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// StatusCode returns the HTTP status of a KindStatus error, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindStatus {
		return apiErr.StatusCode
	}
	return 0
}
