package gateway

import "fmt"

// TransportError signals that the external model call never completed:
// network failure, auth rejection, quota exhaustion or timeout.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedReplyError signals that the model responded but the payload could
// not be parsed into the expected shape or is missing required fields. The
// controller treats this as a soft failure: no state is mutated.
type MalformedReplyError struct {
	Raw string
	Err error
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("gateway reply failed validation: %v", e.Err)
}

func (e *MalformedReplyError) Unwrap() error { return e.Err }
