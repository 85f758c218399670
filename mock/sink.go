package mock

import (
	"strings"
	"sync"

	"github.com/ElevenAndOne/mia/consumer"
)

// Interface compliance check.
var _ consumer.Sink = (*Sink)(nil)

// Sink records everything a consumer forwards to it. Safe for concurrent
// use; accessors return snapshots.
type Sink struct {
	mu        sync.Mutex
	deltas    []string
	completes int
	failures  []error
}

// Append records a delta.
func (s *Sink) Append(delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas = append(s.deltas, delta)
}

// Complete records a graceful or benign termination.
func (s *Sink) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completes++
}

// Fail records a terminal error.
func (s *Sink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
}

// Text returns the concatenation of recorded deltas.
func (s *Sink) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.deltas, "")
}

// Deltas returns a copy of the recorded deltas.
func (s *Sink) Deltas() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deltas))
	copy(out, s.deltas)
	return out
}

// Completes returns how many times Complete was called.
func (s *Sink) Completes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completes
}

// Failures returns a copy of the recorded errors.
func (s *Sink) Failures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.failures))
	copy(out, s.failures)
	return out
}
