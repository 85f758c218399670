// Package bubbletea provides a Bubble Tea TUI for the mia guided chat.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. The context is used for graceful shutdown — when
// cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// UpdateChannel returns a buffered channel plus a non-blocking notify
// function suitable for conversation.Config.OnUpdate. Updates coalesce
// when the UI falls behind.
func UpdateChannel() (chan struct{}, func()) {
	ch := make(chan struct{}, 64)
	notify := func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return ch, notify
}

// StateChangedMsg signals that the conversation machine's visible state
// changed and the view should repaint.
type StateChangedMsg struct{}

// ChoiceDoneMsg signals that a choice handler finished.
type ChoiceDoneMsg struct {
	Err error
}

// listenForUpdate waits for the next machine state change.
func listenForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return StateChangedMsg{}
	}
}
