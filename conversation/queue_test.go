package conversation_test

import (
	"testing"
	"time"

	"github.com/ElevenAndOne/mia"
	"github.com/ElevenAndOne/mia/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastQueue(conv *mia.Conversation, opts ...conversation.QueueOption) *conversation.Queue {
	opts = append([]conversation.QueueOption{
		conversation.WithDelays(time.Millisecond, 2*time.Millisecond),
	}, opts...)
	return conversation.NewQueue(conv, opts...)
}

func waitMessages(t *testing.T, q *conversation.Queue, n int) []mia.ChatMessage {
	t.Helper()
	require.Eventually(t, func() bool { return len(q.Messages()) == n },
		5*time.Second, time.Millisecond)
	return q.Messages()
}

func TestQueue_FIFOOrder(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := newFastQueue(conv)
	defer q.Stop()

	a := mia.AgentText("first")
	b := mia.RichCard(mia.Card{Title: "second"})
	c := mia.AgentText("third")
	q.Enqueue(a, b, c)

	msgs := waitMessages(t, q, 3)
	assert.Equal(t, a.ID, msgs[0].ID)
	assert.Equal(t, b.ID, msgs[1].ID)
	assert.Equal(t, c.ID, msgs[2].ID)
	assert.Equal(t, 0, q.PendingLen())
	assert.False(t, q.Typing())
}

func TestQueue_PartialDelayOverrideKeepsDefaults(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := conversation.NewQueue(conv, conversation.WithDelays(time.Millisecond, 0))
	defer q.Stop()

	q.Enqueue(mia.AgentText("fast"), mia.RichCard(mia.Card{Title: "Spend"}))

	// The text delay override applies; the rich-card delay keeps its
	// multi-second default instead of dropping to zero.
	waitMessages(t, q, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, q.Messages(), 1)
	assert.True(t, q.Typing())
}

func TestQueue_TypingWhilePacing(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := conversation.NewQueue(conv, conversation.WithDelays(50*time.Millisecond, 50*time.Millisecond))
	defer q.Stop()

	q.Enqueue(mia.AgentText("paced"))
	assert.True(t, q.Typing())
	assert.Empty(t, q.Messages())

	waitMessages(t, q, 1)
	assert.False(t, q.Typing())
}

func TestQueue_AddImmediateBypassesPacing(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := conversation.NewQueue(conv, conversation.WithDelays(50*time.Millisecond, 50*time.Millisecond))
	defer q.Stop()

	q.Enqueue(mia.AgentText("slow"))
	echo := mia.UserText("my pick")
	q.AddImmediate(echo)

	// The echo lands synchronously, ahead of the paced draft.
	msgs := q.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, echo.ID, msgs[0].ID)

	msgs = waitMessages(t, q, 2)
	assert.Equal(t, "slow", msgs[1].Text)
}

func TestQueue_AlreadyRevealedSkipsDelay(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := conversation.NewQueue(conv, conversation.WithDelays(time.Second, time.Second))
	defer q.Stop()

	restored := mia.AgentText("from transcript")
	restored.AlreadyRevealed = true
	q.Enqueue(restored)

	// Delivered well under the one-second think time.
	require.Eventually(t, func() bool { return len(q.Messages()) == 1 },
		100*time.Millisecond, time.Millisecond)
}

func TestQueue_SuspendResume(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := newFastQueue(conv)
	defer q.Stop()

	q.Suspend()
	q.Enqueue(mia.AgentText("held"))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, q.Messages())
	assert.Equal(t, 1, q.PendingLen())

	q.Resume()
	msgs := waitMessages(t, q, 1)
	assert.Equal(t, "held", msgs[0].Text)
}

func TestQueue_StopCancelsInFlightDelivery(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := conversation.NewQueue(conv, conversation.WithDelays(20*time.Millisecond, 20*time.Millisecond))

	q.Enqueue(mia.AgentText("never shown"))
	q.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, q.Messages())
	assert.False(t, q.Typing())
}

func TestQueue_NotifyAfterEachDelivery(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	notifies := make(chan struct{}, 16)
	q := newFastQueue(conv, conversation.WithQueueNotify(func() {
		notifies <- struct{}{}
	}))
	defer q.Stop()

	q.Enqueue(mia.AgentText("a"), mia.AgentText("b"))
	waitMessages(t, q, 2)
	assert.GreaterOrEqual(t, len(notifies), 2)
}

func TestQueue_MessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	conv := mia.NewConversation("s1")
	q := newFastQueue(conv)
	defer q.Stop()

	q.AddImmediate(mia.AgentText("original"))
	msgs := q.Messages()
	msgs[0].Text = "mutated"

	assert.Equal(t, "original", q.Messages()[0].Text)
}
