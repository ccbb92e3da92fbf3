package source

import (
	"errors"
	"fmt"
)

var (
	// ErrBudgetExhausted signals a normal early stop, not a failure; the
	// caller surfaces it through the resumption cursor.
	ErrBudgetExhausted = errors.New("call_budget_exhausted")

	// ErrMissingAPIKey aborts a run before any call is made.
	ErrMissingAPIKey = errors.New("source_api_key_missing")
)

// TransportError wraps a network-level failure (dial, timeout, 5xx). These
// are retried with backoff before being surfaced.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("source transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError wraps a malformed payload. Retrying cannot fix a bad body, so
// these surface immediately.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("source decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func isRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
