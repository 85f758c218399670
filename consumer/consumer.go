// Package consumer owns the lifecycle of one streaming attempt at a time:
// it drains a mia.Stream, accumulates text, enforces a wall-clock timeout,
// and forwards deltas to a Sink. Pacing is not its job; see package reveal.
package consumer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ElevenAndOne/mia"
	"github.com/charmbracelet/log"
)

// Sink receives consumer output. Append is called once per delta in arrival
// order. Exactly one of Complete or Fail follows, unless the consumer is
// reset first. Implementations must be safe for use from the consumer's
// goroutine.
type Sink interface {
	Append(delta string)
	Complete()
	Fail(err error)
}

// nopSink is used when no sink is configured (standalone consumer use).
type nopSink struct{}

func (nopSink) Append(string) {}
func (nopSink) Complete()     {}
func (nopSink) Fail(error)    {}

const defaultTimeout = 30 * time.Second

// Consumer drives one stream attempt at a time. Starting a new attempt
// aborts the previous transport; a generation counter guards against a
// late-arriving read from an aborted stream mutating the new attempt's
// state.
type Consumer struct {
	source mia.Source
	sink   Sink
	logger *log.Logger

	timeout time.Duration

	mu        sync.Mutex
	gen       int
	cancel    context.CancelFunc
	timer     *time.Timer
	text      strings.Builder
	streaming bool
	complete  bool
	stopped   bool // Stop() called for the current generation
	timedOut  bool // timeout fired for the current generation
	err       error
}

// Option configures a [Consumer].
type Option func(*Consumer)

// WithSink sets the sink receiving deltas and terminal signals.
func WithSink(s Sink) Option {
	return func(c *Consumer) { c.sink = s }
}

// WithTimeout sets the per-attempt wall-clock timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Consumer) { c.timeout = d }
}

// WithLogger sets the logger for stream lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(c *Consumer) { c.logger = l }
}

// New creates a Consumer reading from the given source.
func New(source mia.Source, opts ...Option) *Consumer {
	c := &Consumer{
		source:  source,
		sink:    nopSink{},
		timeout: defaultTimeout,
		logger:  log.New(io.Discard),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start begins a new stream attempt. Any in-flight attempt is aborted
// first and all state is reset. The transport is opened and drained on a
// separate goroutine; failures surface through the sink and Err().
func (c *Consumer) Start(ctx context.Context, req mia.StreamRequest) {
	c.mu.Lock()
	c.abortLocked()
	c.gen++
	gen := c.gen
	c.text.Reset()
	c.streaming = true
	c.complete = false
	c.stopped = false
	c.timedOut = false
	c.err = nil

	cctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	if c.timeout > 0 {
		c.timer = time.AfterFunc(c.timeout, func() { c.fireTimeout(gen) })
	}
	c.mu.Unlock()

	c.logger.Debug("stream start", "session", req.SessionID, "combined", req.Combined)
	go c.consume(cctx, gen, req)
}

// Stop aborts the transport immediately. Accumulated text is kept and no
// error is surfaced. Idempotent.
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.streaming {
		return
	}
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
}

// Reset aborts any active attempt and clears all accumulated state. The
// generation bump guarantees no callback from the aborted attempt can
// mutate post-reset state.
func (c *Consumer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortLocked()
	c.gen++
	c.text.Reset()
	c.streaming = false
	c.complete = false
	c.stopped = false
	c.timedOut = false
	c.err = nil
}

// Text returns the text accumulated by the current attempt.
func (c *Consumer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text.String()
}

// Streaming reports whether an attempt is in flight.
func (c *Consumer) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// Complete reports whether the current attempt finished gracefully.
func (c *Consumer) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

// Err returns the terminal error of the current attempt, if any. Benign
// stops (caller Stop, abort after partial content) never set it.
func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// abortLocked cancels the in-flight transport and timer. Callers hold mu.
func (c *Consumer) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Consumer) consume(ctx context.Context, gen int, req mia.StreamRequest) {
	s, err := c.source.Stream(ctx, req)
	if err != nil {
		c.finish(gen, err)
		return
	}
	defer s.Close()

	for {
		evt, err := s.Next()
		if err == io.EOF {
			c.finish(gen, nil)
			return
		}
		if err != nil {
			c.finish(gen, err)
			return
		}
		if td, ok := evt.(mia.EventTextDelta); ok {
			if !c.append(gen, td.Delta) {
				return
			}
		}
	}
}

// append records a delta and forwards it to the sink. Returns false when
// the delta belongs to a superseded generation and the goroutine should
// bail out.
func (c *Consumer) append(gen int, delta string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.text.WriteString(delta)
	// Delivered inside the critical section: a Reset or Start that bumps
	// the generation cannot slip between the check and the sink call, so
	// a superseded attempt never leaks text into the new session's sink.
	c.sink.Append(delta)
	return true
}

// finish records the terminal outcome of an attempt. A nil err means
// graceful completion. Cancellation errors are benign unless they carry
// the no-content timeout. The sink hears the outcome inside the same
// critical section as the generation check; the sink only takes its own
// locks, so holding mu across the call is safe.
func (c *Consumer) finish(gen int, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.streaming = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if err == nil {
		c.complete = true
		chars := c.text.Len()
		c.sink.Complete()
		c.mu.Unlock()
		c.logger.Debug("stream complete", "chars", chars)
		return
	}

	if isCancellation(err) {
		if c.timedOut && c.text.Len() == 0 {
			// Timeout with zero content is the one cancellation that is
			// a real failure.
			c.err = mia.ErrTimeout
			c.sink.Fail(mia.ErrTimeout)
			c.mu.Unlock()
			c.logger.Warn("stream timed out with no content")
			return
		}
		// Caller stop, timeout after partial content, or host teardown:
		// keep what arrived, report nothing.
		stopped, timedOut := c.stopped, c.timedOut
		c.sink.Complete()
		c.mu.Unlock()
		c.logger.Debug("stream stopped", "stopped", stopped, "timedOut", timedOut)
		return
	}

	c.err = err
	c.sink.Fail(err)
	c.mu.Unlock()
	c.logger.Error("stream failed", "err", err)
}

// fireTimeout aborts the transport for gen. The outcome (timeout error vs
// benign stop) is decided in finish based on accumulated content.
func (c *Consumer) fireTimeout(gen int) {
	c.mu.Lock()
	if gen != c.gen || !c.streaming {
		c.mu.Unlock()
		return
	}
	c.timedOut = true
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
