package bubbletea_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ElevenAndOne/mia"
	bt "github.com/ElevenAndOne/mia/bubbletea"
	"github.com/ElevenAndOne/mia/conversation"
	"github.com/ElevenAndOne/mia/mock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFacts = mia.Facts{
	Platform:    mia.PlatformGoogleAds,
	Currency:    "EUR",
	Spend:       1234.56,
	Clicks:      321,
	Impressions: 45678,
	CTR:         0.007,
}

// newMachine builds a machine with instant pacing. A non-nil conv seeds the
// log; restored messages render without animation.
func newMachine(t *testing.T, conv *mia.Conversation) (*conversation.Machine, chan struct{}) {
	t.Helper()
	updates, notify := bt.UpdateChannel()
	m, err := conversation.New(conversation.Config{
		Source: &mock.Source{
			StreamFn: func(ctx context.Context, req mia.StreamRequest) (mia.Stream, error) {
				return mock.ScriptedStream(ctx, []string{"A fine story."}, nil), nil
			},
		},
		Facts:        mock.StaticFacts(testFacts),
		Linker:       &mock.Linker{},
		SessionID:    "s1",
		Conversation: conv,
		TextDelay:    time.Millisecond,
		CardDelay:    time.Millisecond,
		TickInterval: time.Millisecond,
		OnUpdate:     notify,
	})
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m, updates
}

// restoredConv returns a log that renders immediately: agent text, a card,
// and a trailing two-choice set.
func restoredConv() *mia.Conversation {
	conv := mia.NewConversation("s1")
	for _, msg := range []mia.ChatMessage{
		mia.AgentText("Here's what your spend looked like."),
		mia.RichCard(mia.Card{
			Title: "Google Ads spend",
			Rows: []mia.CardRow{
				{Label: "Spend", Value: "1234.56 EUR"},
				{Label: "Impressions", Value: "45678"},
			},
		}),
		mia.ChoiceSet("Want to see clicks?",
			mia.Choice{Label: "Show me", Action: mia.ActionShowClicks, Weight: mia.WeightPrimary},
			mia.Choice{Label: "Wrap up", Action: mia.ActionFinish, Weight: mia.WeightSecondary},
		),
	} {
		msg.AlreadyRevealed = true
		conv.Append(msg)
	}
	return conv
}

func initModel(t *testing.T, conv *mia.Conversation) bt.Model {
	t.Helper()
	machine, updates := newMachine(t, conv)
	m := bt.New(machine, updates, mia.DefaultTheme())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func TestModel_ViewBeforeWindowSize(t *testing.T) {
	t.Parallel()

	machine, updates := newMachine(t, nil)
	m := bt.New(machine, updates, mia.DefaultTheme())
	assert.Contains(t, m.View(), "Initializing")
}

func TestModel_RendersConversation(t *testing.T) {
	t.Parallel()

	m := initModel(t, restoredConv())
	view := m.View()
	assert.Contains(t, view, "what your spend looked like")
	assert.Contains(t, view, "Google Ads spend")
	assert.Contains(t, view, "1234.56 EUR")
	assert.Contains(t, view, "Impressions")
	assert.Contains(t, view, "[ Show me ]")
	assert.Contains(t, view, "[ Wrap up ]")
}

func TestModel_StatusLine(t *testing.T) {
	t.Parallel()

	m := initModel(t, restoredConv())
	assert.Contains(t, m.View(), "step 1/6")
}

func TestModel_QuitKeys(t *testing.T) {
	t.Parallel()

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	} {
		m := initModel(t, restoredConv())
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	}
}

func TestModel_ChoiceSelection(t *testing.T) {
	t.Parallel()

	t.Run("tab cycles and enter activates", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, restoredConv())
		// Move focus to the second choice and select it.
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		require.NotNil(t, cmd)

		msg := cmd()
		done, ok := msg.(bt.ChoiceDoneMsg)
		require.True(t, ok)
		assert.NoError(t, done.Err)

		// "Wrap up" ran the finish branch: the user echo is in the log.
		m = updateModel(t, m, done)
		assert.Contains(t, m.View(), "> Wrap up")
	})

	t.Run("enter with no trailing choice set does nothing", func(t *testing.T) {
		t.Parallel()

		conv := mia.NewConversation("s1")
		msg := mia.AgentText("no choices here")
		msg.AlreadyRevealed = true
		conv.Append(msg)

		m := initModel(t, conv)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	})

	t.Run("second enter while handling is ignored", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, restoredConv())
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		require.NotNil(t, cmd)

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	})
}

func TestModel_StateChangedRearms(t *testing.T) {
	t.Parallel()

	m := initModel(t, restoredConv())
	_, cmd := m.Update(bt.StateChangedMsg{})
	// Repaint must re-arm the update listener or the UI goes deaf.
	assert.NotNil(t, cmd)
}

func TestModel_WindowResize(t *testing.T) {
	t.Parallel()

	m := initModel(t, restoredConv())
	assert.Equal(t, 80, m.Viewport.Width)

	m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.Viewport.Width)
	assert.NotEmpty(t, m.View())
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("welcome through fact reveal", func(t *testing.T) {
		t.Parallel()

		machine, updates := newMachine(t, nil)
		machine.Start()
		m := bt.New(machine, updates, mia.DefaultTheme())

		tm := teatest.NewTestModel(t, m,
			teatest.WithInitialTermSize(80, 24),
		)

		// Welcome batch paces out and ends in the begin choice.
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("I'm Mia")) &&
				bytes.Contains(out, []byte("[ Let's go ]"))
		}, teatest.WithDuration(5*time.Second))

		// Selecting it fetches facts and reveals the spend card.
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Google Ads spend")) &&
				bytes.Contains(out, []byte("1234.56 EUR"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	})

	t.Run("restored transcript renders on init", func(t *testing.T) {
		t.Parallel()

		machine, updates := newMachine(t, restoredConv())
		machine.Start()
		m := bt.New(machine, updates, mia.DefaultTheme())

		tm := teatest.NewTestModel(t, m,
			teatest.WithInitialTermSize(80, 24),
		)

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("what your spend looked like")) &&
				bytes.Contains(out, []byte("Google Ads spend"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	})
}
