package tools

import (
	"errors"
	"fmt"
)

// Kind classifies a backend tool failure. The dialogue manager maps each kind
// to a different user-facing branch, so adapters never retry on their own.
type Kind string

const (
	// KindTransient covers timeouts, network failures and 5xx responses.
	KindTransient Kind = "transient"

	// KindRateLimited covers 429 responses.
	KindRateLimited Kind = "rate_limited"

	// KindClientInput covers other 4xx responses and local precondition
	// failures. Never auto-retried.
	KindClientInput Kind = "client_input"
)

// BackendError is the uniform failure type for both tool adapters.
type BackendError struct {
	Kind       Kind
	Operation  string // "validate" or "update"
	StatusCode int    // zero for transport-level failures
	Message    string // backend-provided reason, when available
	Err        error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend failed (%s, HTTP %d): %s", e.Operation, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s backend failed (%s): %s", e.Operation, e.Kind, msg)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient backend failure.
func IsTransient(err error) bool { return kindOf(err) == KindTransient }

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool { return kindOf(err) == KindRateLimited }

// IsClientInput reports whether err is a non-retryable client input failure.
func IsClientInput(err error) bool { return kindOf(err) == KindClientInput }

func kindOf(err error) Kind {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}
