package mock

import "github.com/ElevenAndOne/mia"

// Interface compliance check.
var _ mia.Stream = (*Stream)(nil)

// Stream is a test double for mia.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. TextFn, StateFn, and CloseFn are nil-safe because
// test code commonly calls defer stream.Close() and these methods rarely
// need custom behavior.
type Stream struct {
	NextFn  func() (mia.Event, error)
	StateFn func() mia.StreamState
	TextFn  func() (string, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (mia.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() mia.StreamState {
	if s.StateFn == nil {
		return mia.StreamStateNew
	}
	return s.StateFn()
}

// Text delegates to TextFn. Returns an empty string when TextFn is nil.
func (s *Stream) Text() (string, error) {
	if s.TextFn == nil {
		return "", nil
	}
	return s.TextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
