package mia

import (
	"context"
	"time"
)

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Source.Stream().
//
// State() returns the current StreamState. Callers can use it to determine
// whether Text() will return a partial or complete narrative.
//
// Text() returns the accumulated narrative text. Behavior by stream state:
//   - StreamStateComplete: full text, nil error.
//   - StreamStateError: partial text, nil error.
//   - StreamStateStreaming: partial text, nil error.
//   - StreamStateNew: empty string, non-nil error.
//   - StreamStateClosed: partial text received before Close().
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Text() (string, error)
	Close() error
}

// Source is a strategy pattern interface for insight stream backends.
type Source interface {
	Stream(ctx context.Context, req StreamRequest) (Stream, error)
}

// Platform identifies an advertising data source.
type Platform string

const (
	PlatformGoogleAds Platform = "google_ads"
	PlatformMeta      Platform = "meta"
)

// StreamRequest carries the session identity and context for one stream
// attempt. Combined requests a unified narrative over all linked platforms.
type StreamRequest struct {
	SessionID string
	From      time.Time
	To        time.Time
	Platforms []Platform
	Combined  bool
}
