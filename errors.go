package mia

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamNotReady indicates Text() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrTimeout indicates the stream produced no content within the
	// configured deadline. An abort after content has arrived is a benign
	// stop, never ErrTimeout.
	ErrTimeout = errors.New("stream timed out before any content arrived")

	// ErrLinkCancelled indicates the user abandoned a linking flow (e.g.
	// closed the popup). Handled by the conversation machine with a
	// retry-or-skip choice; never surfaced as a failure.
	ErrLinkCancelled = errors.New("link flow cancelled")

	// ErrUnknownAction indicates a choice carried an action token with no
	// registered handler.
	ErrUnknownAction = errors.New("unknown action token")
)

// ProtocolError is a terminal error event sent by the streaming backend.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("stream protocol error: %s", e.Message)
}
