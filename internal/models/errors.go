package models

import (
	"errors"
	"fmt"
)

// ErrEmptyResult signals an adapter returned zero rows. It is a soft
// failure: the orchestrator moves on to the next source.
var ErrEmptyResult = errors.New("source returned no rows")

// TransientError is a network or HTTP-level fetch failure. The same adapter
// is not retried; the orchestrator falls through to the next source.
type TransientError struct {
	Source string
	Status int // HTTP status when applicable, 0 otherwise
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: transient fetch failure (status %d): %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: transient fetch failure: %v", e.Source, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ProtocolError means an upstream payload violated the expected contract,
// such as a malformed download token or an undecodable body.
type ProtocolError struct {
	Source string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol violation: %s", e.Source, e.Reason)
}
