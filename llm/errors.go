package llm

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned before any network I/O when the client has no
// credential configured. Retrying without fixing the config cannot succeed.
var ErrNoAPIKey = errors.New("llm: api key not configured")

// TransportError wraps a network-level failure reaching the completion
// endpoint. Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx response from the completion endpoint. Whether
// to retry depends on the status; that policy is left to the caller.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm: upstream http %d: %s", e.StatusCode, e.Body)
}

// ParseError is a 2xx response whose body does not have the expected
// completion shape. Not retryable: it indicates an endpoint contract
// mismatch, not a transient fault.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "llm: malformed response: " + e.Reason
}

// Retryable reports whether the caller may reasonably retry the call after
// backoff.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode == 429 || ue.StatusCode >= 500
	}
	return false
}
