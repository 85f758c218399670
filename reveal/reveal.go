// Package reveal decouples bursty stream delivery from presentation: text
// is buffered as it arrives and re-published one grapheme cluster per tick
// at a fixed cadence. Grapheme clusters (uniseg) are the reveal unit so a
// tick never splits a multi-byte character or emoji sequence.
package reveal

import (
	"strings"
	"sync"
	"time"

	"github.com/rivo/uniseg"
)

const defaultInterval = 14 * time.Millisecond

// Snapshot is one published view of the reveal state. Displayed only ever
// grows; Done is true exactly once the stream has ended and every pending
// cluster has been shown.
type Snapshot struct {
	Displayed string
	Done      bool
	Err       error
}

// Revealer owns the pending/displayed buffers exclusively. Producers feed
// it through Append/Complete/Fail (it satisfies consumer.Sink); the
// presentation layer observes it through the notify callback and the
// Displayed/Done accessors.
type Revealer struct {
	interval time.Duration
	notify   func(Snapshot)

	mu         sync.Mutex
	pending    []string // grapheme clusters not yet shown
	displayed  strings.Builder
	streamDone bool
	err        error
	done       bool
	running    bool
	stopCh     chan struct{}

	// publishMu serializes notify calls and enforces monotonic growth, so
	// a tick racing SkipToEnd can never publish a shorter snapshot after a
	// longer one.
	publishMu sync.Mutex
	published int
}

// Option configures a [Revealer].
type Option func(*Revealer)

// WithInterval sets the reveal cadence.
func WithInterval(d time.Duration) Option {
	return func(r *Revealer) { r.interval = d }
}

// WithNotify sets the callback invoked after every published change. It
// runs on the revealer's tick goroutine (or the caller's, for skip and
// completion edge cases) without the state lock held. The callback must
// not call Reset synchronously.
func WithNotify(fn func(Snapshot)) Option {
	return func(r *Revealer) { r.notify = fn }
}

// New creates a Revealer.
func New(opts ...Option) *Revealer {
	r := &Revealer{
		interval: defaultInterval,
		notify:   func(Snapshot) {},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Append buffers text for reveal and starts the tick loop if idle.
// Appends after reveal completion are ignored; a new stream must Reset
// first, so stale deltas from an aborted session never leak in.
func (r *Revealer) Append(text string) {
	if text == "" {
		return
	}
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		r.pending = append(r.pending, g.Str())
	}
	r.ensureLoopLocked()
	r.mu.Unlock()
}

// Complete signals that the underlying stream has ended. The tick loop
// keeps draining; reveal completes once pending is empty. If nothing is
// pending and no loop is running, completion is published immediately.
func (r *Revealer) Complete() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.streamDone = true
	if !r.running && len(r.pending) == 0 {
		snap := r.finishLocked()
		r.mu.Unlock()
		r.publish(snap)
		return
	}
	r.mu.Unlock()
}

// Fail records the stream error and completes the reveal after draining
// whatever already arrived. The presentation layer reads Err from the
// final snapshot.
func (r *Revealer) Fail(err error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.err = err
	r.streamDone = true
	if !r.running && len(r.pending) == 0 {
		snap := r.finishLocked()
		r.mu.Unlock()
		r.publish(snap)
		return
	}
	r.mu.Unlock()
}

// SkipToEnd reveals everything pending at once and completes. Safe to call
// at any time; a no-op after natural completion.
func (r *Revealer) SkipToEnd() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	for _, g := range r.pending {
		r.displayed.WriteString(g)
	}
	r.pending = nil
	snap := r.finishLocked()
	r.mu.Unlock()
	r.publish(snap)
}

// Reset stops the tick loop and clears both buffers for a new session.
func (r *Revealer) Reset() {
	r.mu.Lock()
	r.stopLoopLocked()
	r.pending = nil
	r.displayed.Reset()
	r.streamDone = false
	r.err = nil
	r.done = false
	r.mu.Unlock()

	r.publishMu.Lock()
	r.published = 0
	r.publishMu.Unlock()
}

// Displayed returns the text revealed so far.
func (r *Revealer) Displayed() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.displayed.String()
}

// Done reports whether the reveal has completed.
func (r *Revealer) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Err returns the stream error recorded by Fail, if any.
func (r *Revealer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ensureLoopLocked starts the tick goroutine if it is not running.
func (r *Revealer) ensureLoopLocked() {
	if r.running || r.done {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	go r.loop(r.stopCh)
}

// stopLoopLocked signals the tick goroutine to exit.
func (r *Revealer) stopLoopLocked() {
	if r.running {
		close(r.stopCh)
		r.running = false
	}
}

func (r *Revealer) loop(stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snap, publish, cont := r.tick(stop)
			if publish {
				r.publish(snap)
			}
			if !cont {
				return
			}
		}
	}
}

// tick moves one grapheme from pending to displayed. With an empty buffer
// it idles while the stream is open and finishes once the stream is done.
func (r *Revealer) tick(stop chan struct{}) (snap Snapshot, publish, cont bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reset or SkipToEnd won the race; this loop is already detached.
	if r.stopCh != stop || !r.running {
		return Snapshot{}, false, false
	}
	if len(r.pending) > 0 {
		r.displayed.WriteString(r.pending[0])
		r.pending = r.pending[1:]
		if len(r.pending) == 0 && r.streamDone {
			return r.finishLocked(), true, false
		}
		return Snapshot{Displayed: r.displayed.String()}, true, true
	}
	if r.streamDone {
		return r.finishLocked(), true, false
	}
	// Stream still open: idle, more text may arrive.
	return Snapshot{}, false, true
}

// finishLocked marks the reveal complete and detaches the loop.
func (r *Revealer) finishLocked() Snapshot {
	r.done = true
	r.stopLoopLocked()
	return Snapshot{Displayed: r.displayed.String(), Done: true, Err: r.err}
}

// publish delivers a snapshot, dropping any stale shorter-than-published
// view so Displayed can never appear to shrink.
func (r *Revealer) publish(snap Snapshot) {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()
	if len(snap.Displayed) < r.published && !snap.Done {
		return
	}
	r.published = len(snap.Displayed)
	r.notify(snap)
}
