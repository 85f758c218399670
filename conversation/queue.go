// Package conversation sequences the guided chat: a paced message queue
// and the phase machine that decides what to enqueue next.
package conversation

import (
	"sync"
	"time"

	"github.com/ElevenAndOne/mia"
)

const (
	defaultTextDelay = 2 * time.Second
	// Rich cards carry more to absorb, so they get a longer think time.
	defaultCardDelay = 2500 * time.Millisecond
)

// Queue drains pending message drafts strictly FIFO with a think-time delay
// before each, guaranteeing exactly one in-flight "typing" state. It never
// runs while suspended (a streaming message is active).
type Queue struct {
	textDelay time.Duration
	cardDelay time.Duration
	notify    func()

	mu        sync.Mutex
	conv      *mia.Conversation
	pending   []mia.ChatMessage
	typing    bool
	suspended bool
	stopped   bool
	timer     *time.Timer
}

// QueueOption configures a [Queue].
type QueueOption func(*Queue)

// WithDelays sets the think-time delays for plain and rich-card messages.
// A non-positive value keeps the package default for that field.
func WithDelays(text, card time.Duration) QueueOption {
	return func(q *Queue) {
		if text > 0 {
			q.textDelay = text
		}
		if card > 0 {
			q.cardDelay = card
		}
	}
}

// WithQueueNotify sets a callback invoked after every log change. It runs
// without the queue lock held.
func WithQueueNotify(fn func()) QueueOption {
	return func(q *Queue) { q.notify = fn }
}

// NewQueue creates a Queue appending into the given conversation log.
func NewQueue(conv *mia.Conversation, opts ...QueueOption) *Queue {
	q := &Queue{
		conv:      conv,
		textDelay: defaultTextDelay,
		cardDelay: defaultCardDelay,
		notify:    func() {},
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Enqueue appends drafts to the tail of the pending list. An in-flight
// reveal is never interrupted; processing continues after it.
func (q *Queue) Enqueue(msgs ...mia.ChatMessage) {
	q.mu.Lock()
	q.pending = append(q.pending, msgs...)
	q.pumpLocked()
	q.mu.Unlock()
}

// AddImmediate bypasses the queue entirely: the message is appended to the
// displayed log synchronously with no delay. Used for echoing the user's
// own choice.
func (q *Queue) AddImmediate(msg mia.ChatMessage) {
	q.mu.Lock()
	q.conv.Append(msg)
	q.mu.Unlock()
	q.notify()
}

// Suspend pauses processing while a streaming message is active. Pending
// drafts are retained.
func (q *Queue) Suspend() {
	q.mu.Lock()
	q.suspended = true
	q.mu.Unlock()
}

// Resume restarts processing after a streaming message has been appended.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.suspended = false
	q.pumpLocked()
	q.mu.Unlock()
}

// Stop halts processing and cancels the in-flight timer so the pending
// head is not emitted after host teardown. A stopped queue stays stopped;
// remount builds a fresh queue from the persisted log.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.typing = false
	q.mu.Unlock()
}

// Typing reports whether a message is currently being paced.
func (q *Queue) Typing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.typing
}

// PendingLen returns the number of drafts awaiting display.
func (q *Queue) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Messages returns a copy of the displayed log.
func (q *Queue) Messages() []mia.ChatMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]mia.ChatMessage, len(q.conv.Messages))
	copy(out, q.conv.Messages)
	return out
}

// pumpLocked starts pacing the head draft if nothing is in flight.
func (q *Queue) pumpLocked() {
	if q.typing || q.suspended || q.stopped || len(q.pending) == 0 {
		return
	}
	head := q.pending[0]
	q.pending = q.pending[1:]
	q.typing = true

	d := q.delay(head)
	q.timer = time.AfterFunc(d, func() { q.deliver(head) })
}

func (q *Queue) delay(msg mia.ChatMessage) time.Duration {
	if msg.AlreadyRevealed {
		return 0
	}
	if msg.Kind == mia.KindRichCard {
		return q.cardDelay
	}
	return q.textDelay
}

// deliver appends a paced draft to the log and pumps the next one.
func (q *Queue) deliver(msg mia.ChatMessage) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.conv.Append(msg)
	q.typing = false
	q.timer = nil
	q.pumpLocked()
	q.mu.Unlock()
	q.notify()
}
