package conversation

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ElevenAndOne/mia"
	"github.com/ElevenAndOne/mia/consumer"
	"github.com/ElevenAndOne/mia/reveal"
	"github.com/charmbracelet/log"
)

// Interface compliance check: the revealer is the consumer's sink.
var _ consumer.Sink = (*reveal.Revealer)(nil)

// progressSteps is the milestone count: welcome, facts, insight, connect,
// combined, done.
const progressSteps = 6

// handlerFunc executes the branch behind one action token. Handlers run on
// the caller's goroutine, may block on external collaborators, and handle
// their own failures by enqueueing retry-or-skip choices; they only return
// an error for programming mistakes.
type handlerFunc func(ctx context.Context) error

// Config wires a Machine's collaborators. Source, Facts, and Linker are
// required; zero durations fall back to package defaults.
type Config struct {
	Source mia.Source
	Facts  mia.FactClient
	Linker mia.Linker

	SessionID string
	From      time.Time
	To        time.Time
	Platform  mia.Platform // the initially connected platform

	Conversation  *mia.Conversation // nil starts a fresh log
	StreamTimeout time.Duration
	TickInterval  time.Duration
	TextDelay     time.Duration
	CardDelay     time.Duration

	Logger *log.Logger

	// OnUpdate is invoked whenever presentation-visible state changes:
	// the log grew, the reveal advanced, or the typing indicator flipped.
	OnUpdate func()
}

// Machine is the top-level orchestrator. It receives choice activations,
// decides the next batch of messages or stream to enqueue, invokes external
// actions, and resumes the narrative when they resolve.
type Machine struct {
	queue    *Queue
	consumer *consumer.Consumer
	revealer *reveal.Revealer
	facts    mia.FactClient
	linker   mia.Linker
	logger   *log.Logger
	onUpdate func()

	sessionID string
	from, to  time.Time
	platform  mia.Platform

	handlers map[mia.Action]handlerFunc

	mu        sync.Mutex
	conv      *mia.Conversation
	phase     mia.Phase
	progress  mia.Progress
	advanced  map[mia.Phase]bool // phases whose milestone has been consumed
	streaming bool // a streaming message placeholder is active
	combined  bool // the active stream is the combined narrative
	linked    []mia.Platform
	streamErr error
}

// New creates a Machine and verifies every action token has a handler, so
// an unmapped token is a construction error rather than a runtime stall.
func New(cfg Config) (*Machine, error) {
	if cfg.Source == nil || cfg.Facts == nil || cfg.Linker == nil {
		return nil, fmt.Errorf("conversation: source, facts, and linker are required")
	}
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("conversation: session ID is required")
	}

	conv := cfg.Conversation
	if conv == nil {
		conv = mia.NewConversation(cfg.SessionID)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	onUpdate := cfg.OnUpdate
	if onUpdate == nil {
		onUpdate = func() {}
	}

	m := &Machine{
		facts:     cfg.Facts,
		linker:    cfg.Linker,
		logger:    logger,
		onUpdate:  onUpdate,
		sessionID: cfg.SessionID,
		from:      cfg.From,
		to:        cfg.To,
		platform:  cfg.Platform,
		conv:      conv,
		phase:     mia.PhaseWelcome,
		progress:  mia.NewProgress(progressSteps),
		advanced:  make(map[mia.Phase]bool),
	}
	if m.platform == "" {
		m.platform = mia.PlatformGoogleAds
	}

	queueOpts := []QueueOption{WithQueueNotify(onUpdate)}
	if cfg.TextDelay > 0 || cfg.CardDelay > 0 {
		queueOpts = append(queueOpts, WithDelays(cfg.TextDelay, cfg.CardDelay))
	}
	m.queue = NewQueue(conv, queueOpts...)

	revealOpts := []reveal.Option{reveal.WithNotify(m.onReveal)}
	if cfg.TickInterval > 0 {
		revealOpts = append(revealOpts, reveal.WithInterval(cfg.TickInterval))
	}
	m.revealer = reveal.New(revealOpts...)

	consumerOpts := []consumer.Option{
		consumer.WithSink(m.revealer),
		consumer.WithLogger(logger),
	}
	if cfg.StreamTimeout > 0 {
		consumerOpts = append(consumerOpts, consumer.WithTimeout(cfg.StreamTimeout))
	}
	m.consumer = consumer.New(cfg.Source, consumerOpts...)

	m.handlers = map[mia.Action]handlerFunc{
		mia.ActionBegin:           m.handleBegin,
		mia.ActionShowClicks:      m.handleShowClicks,
		mia.ActionSkipClicks:      m.handleSkipClicks,
		mia.ActionStreamInsight:   m.handleStreamInsight,
		mia.ActionConnectPlatform: m.handleConnect,
		mia.ActionRetryConnect:    m.handleConnect,
		mia.ActionSkipConnect:     m.handleSkipConnect,
		mia.ActionStreamCombined:  m.handleStreamCombined,
		mia.ActionFinish:          m.handleFinish,
	}
	for _, a := range mia.Actions() {
		if m.handlers[a] == nil {
			return nil, fmt.Errorf("conversation: no handler for action %q", a)
		}
	}
	return m, nil
}

// Start opens the conversation. For a fresh log it enqueues the welcome
// batch; a restored log resumes silently at its terminal or last phase.
func (m *Machine) Start() {
	m.mu.Lock()
	fresh := len(m.conv.Messages) == 0
	m.mu.Unlock()
	if !fresh {
		return
	}
	m.queue.Enqueue(welcomeBatch(m.platform)...)
}

// HandleChoice runs the branch for an activated choice. The user's pick is
// echoed to the log synchronously before the handler executes; the handler
// itself may block on external collaborators, so callers typically invoke
// HandleChoice from a goroutine. Returns ErrUnknownAction for a token with
// no registered handler.
func (m *Machine) HandleChoice(ctx context.Context, choice mia.Choice) error {
	h, ok := m.handlers[choice.Action]
	if !ok {
		return fmt.Errorf("%q: %w", choice.Action, mia.ErrUnknownAction)
	}

	m.queue.AddImmediate(mia.UserText(choice.Label))
	m.logger.Info("choice", "action", choice.Action)
	return h(ctx)
}

// SkipReveal flushes the active streaming message to the screen at once.
func (m *Machine) SkipReveal() {
	m.revealer.SkipToEnd()
}

// Stop halts pacing and aborts any in-flight stream. Used on host teardown.
func (m *Machine) Stop() {
	m.queue.Stop()
	m.consumer.Stop()
}

// Messages returns a copy of the displayed log.
func (m *Machine) Messages() []mia.ChatMessage { return m.queue.Messages() }

// Typing reports whether a queued message is being paced.
func (m *Machine) Typing() bool { return m.queue.Typing() }

// Revealing returns the live text of the active streaming message and
// whether one is active.
func (m *Machine) Revealing() (string, bool) {
	m.mu.Lock()
	streaming := m.streaming
	m.mu.Unlock()
	if !streaming {
		return "", false
	}
	return m.revealer.Displayed(), true
}

// Phase returns the current conversation phase.
func (m *Machine) Phase() mia.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Progress returns the milestone counter.
func (m *Machine) Progress() mia.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// StreamErr returns the terminal error of the last stream attempt, if any.
func (m *Machine) StreamErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamErr
}

// Conversation returns the underlying log for persistence.
func (m *Machine) Conversation() *mia.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conv
}

// setPhase records the new phase. A milestone phase advances Progress only
// on first entry; retries re-enter the same phase without consuming
// another step.
func (m *Machine) setPhase(p mia.Phase, advance bool) {
	m.mu.Lock()
	m.phase = p
	if advance && !m.advanced[p] {
		m.advanced[p] = true
		m.progress.Advance()
	}
	m.mu.Unlock()
	m.onUpdate()
}

// handleBegin fetches the spend snapshot and opens the fact reveal. A fetch
// failure enqueues a retry-or-skip choice instead of stalling.
func (m *Machine) handleBegin(ctx context.Context) error {
	m.setPhase(mia.PhaseFactReveal, true)

	facts, err := m.facts.Facts(ctx, mia.FactRequest{
		SessionID: m.sessionID,
		Platform:  m.platform,
		From:      m.from,
		To:        m.to,
	})
	if err != nil {
		m.logger.Warn("fact fetch failed", "err", err)
		m.queue.Enqueue(factFetchFailedBatch()...)
		m.setPhase(mia.PhaseChoicePending, false)
		return nil
	}

	m.queue.Enqueue(spendBatch(facts)...)
	m.setPhase(mia.PhaseChoicePending, false)
	return nil
}

func (m *Machine) handleShowClicks(ctx context.Context) error {
	facts, err := m.facts.Facts(ctx, mia.FactRequest{
		SessionID: m.sessionID,
		Platform:  m.platform,
		From:      m.from,
		To:        m.to,
	})
	if err != nil {
		m.logger.Warn("fact fetch failed", "err", err)
		m.queue.Enqueue(factFetchFailedBatch()...)
		return nil
	}
	m.queue.Enqueue(clicksBatch(facts)...)
	return nil
}

func (m *Machine) handleSkipClicks(context.Context) error {
	m.queue.Enqueue(skipClicksBatch()...)
	return nil
}

func (m *Machine) handleStreamInsight(ctx context.Context) error {
	m.setPhase(mia.PhaseStreamingInsight, true)
	m.startStream(ctx, false)
	return nil
}

// handleConnect runs the external linking flow. The conversation resumes
// only after the flow resolves; cancel and failure both enqueue a
// retry-or-skip choice so the user always has a way forward.
func (m *Machine) handleConnect(ctx context.Context) error {
	m.setPhase(mia.PhaseLinkPending, true)
	m.queue.Enqueue(connectStartedBatch()...)

	err := m.linker.Link(ctx, mia.PlatformMeta)
	if err != nil {
		m.logger.Warn("link flow did not complete", "err", err)
		m.queue.Enqueue(connectFailedBatch(err)...)
		m.setPhase(mia.PhaseChoicePending, false)
		return nil
	}

	m.mu.Lock()
	m.linked = append(m.linked, mia.PlatformMeta)
	m.mu.Unlock()
	m.queue.Enqueue(connectedBatch()...)
	m.setPhase(mia.PhaseChoicePending, false)
	return nil
}

func (m *Machine) handleSkipConnect(context.Context) error {
	m.queue.Enqueue(skippedBatch()...)
	m.setPhase(mia.PhaseSkipped, false)
	return nil
}

func (m *Machine) handleStreamCombined(ctx context.Context) error {
	m.setPhase(mia.PhaseCombinedInsight, true)
	m.startStream(ctx, true)
	return nil
}

func (m *Machine) handleFinish(context.Context) error {
	m.queue.Enqueue(goodbyeBatch()...)
	m.mu.Lock()
	m.phase = mia.PhaseComplete
	for m.progress.Step() < m.progress.Max() {
		m.progress.Advance()
	}
	m.mu.Unlock()
	m.onUpdate()
	return nil
}

// startStream suspends the queue behind a streaming message placeholder
// and begins consuming. The queue stays suspended until the reveal
// completes, so nothing can interleave with the streamed narrative.
func (m *Machine) startStream(ctx context.Context, combined bool) {
	m.mu.Lock()
	m.streaming = true
	m.combined = combined
	m.streamErr = nil
	platforms := []mia.Platform{m.platform}
	if combined {
		platforms = append(platforms, m.linked...)
	}
	m.mu.Unlock()

	m.queue.Suspend()
	m.revealer.Reset()
	m.consumer.Start(ctx, mia.StreamRequest{
		SessionID: m.sessionID,
		From:      m.from,
		To:        m.to,
		Platforms: platforms,
		Combined:  combined,
	})
	m.onUpdate()
}

// onReveal observes the revealer. Intermediate snapshots just repaint; the
// final snapshot ends the streaming message: its full text is appended to
// the permanent log before any queued follow-up can display.
func (m *Machine) onReveal(snap reveal.Snapshot) {
	if !snap.Done {
		m.onUpdate()
		return
	}

	m.mu.Lock()
	if !m.streaming {
		m.mu.Unlock()
		return
	}
	m.streaming = false
	combined := m.combined
	m.streamErr = snap.Err
	m.mu.Unlock()

	if snap.Displayed != "" {
		final := mia.AgentText(snap.Displayed)
		final.AlreadyRevealed = true
		m.queue.AddImmediate(final)
	}

	switch {
	case snap.Err != nil:
		m.logger.Warn("stream ended with error", "err", snap.Err)
		m.queue.Enqueue(streamFailedBatch(combined)...)
		m.setPhase(mia.PhaseChoicePending, false)
	case combined:
		m.queue.Enqueue(combinedDoneBatch()...)
		m.setPhase(mia.PhaseChoicePending, false)
	default:
		m.queue.Enqueue(insightDoneBatch()...)
		m.setPhase(mia.PhaseChoicePending, false)
	}
	m.queue.Resume()
	m.onUpdate()
}
