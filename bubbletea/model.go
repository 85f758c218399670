package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/ElevenAndOne/mia"
	"github.com/ElevenAndOne/mia/conversation"
	"github.com/ElevenAndOne/mia/markdown"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	rw "github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the mia chat TUI. It renders the
// machine's append-only log, the live reveal line, and the typing
// indicator, and routes choice selection back into the machine.
type Model struct {
	// Viewport is the scrollable conversation area. Exported for test access.
	Viewport viewport.Model

	machine *conversation.Machine
	updates <-chan struct{}
	theme   mia.Theme
	styles  Styles
	spin    spinner.Model

	choiceFocus int
	handling    bool // a choice handler is in flight
	err         error
	width       int
	ready       bool
}

// New creates a TUI Model observing the given machine. The updates channel
// must be the one whose notify function was wired into the machine's
// OnUpdate.
func New(machine *conversation.Machine, updates <-chan struct{}, theme mia.Theme) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		machine: machine,
		updates: updates,
		theme:   theme,
		styles:  NewStyles(theme),
		spin:    sp,
	}
}

// Err returns the last handler error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, listenForUpdate(m.updates))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateChangedMsg:
		m = m.repaint()
		return m, listenForUpdate(m.updates)

	case ChoiceDoneMsg:
		m.handling = false
		if msg.Err != nil {
			m.err = msg.Err
		}
		m = m.repaint()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.machine.Typing() {
			m.Viewport.SetContent(m.renderContent())
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	statusHeight := 2
	vpHeight := msg.Height - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.width = msg.Width

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	return m.repaint()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.machine.Stop()
		return m, tea.Quit

	case " ":
		// Flush the active reveal to the screen.
		m.machine.SkipReveal()
		return m, nil

	case "left", "shift+tab":
		if ch := m.activeChoices(); len(ch) > 0 {
			m.choiceFocus = (m.choiceFocus - 1 + len(ch)) % len(ch)
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil

	case "right", "tab":
		if ch := m.activeChoices(); len(ch) > 0 {
			m.choiceFocus = (m.choiceFocus + 1) % len(ch)
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil

	case "enter":
		return m.selectChoice()
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// selectChoice activates the focused choice. The handler may block on
// external collaborators, so it runs inside the command's goroutine.
func (m Model) selectChoice() (tea.Model, tea.Cmd) {
	choices := m.activeChoices()
	if len(choices) == 0 || m.handling {
		return m, nil
	}
	choice := choices[m.choiceFocus%len(choices)]
	m.handling = true
	m.choiceFocus = 0
	machine := m.machine
	return m, func() tea.Msg {
		return ChoiceDoneMsg{Err: machine.HandleChoice(context.Background(), choice)}
	}
}

// activeChoices returns the selectable choices: the trailing choice set of
// the log when nothing is typing, streaming, or already being handled.
func (m Model) activeChoices() []mia.Choice {
	if m.handling || m.machine.Typing() {
		return nil
	}
	if _, streaming := m.machine.Revealing(); streaming {
		return nil
	}
	msgs := m.machine.Messages()
	if len(msgs) == 0 {
		return nil
	}
	last := msgs[len(msgs)-1]
	if last.Kind != mia.KindChoiceSet {
		return nil
	}
	return last.Choices
}

func (m Model) repaint() Model {
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	width := m.contentWidth()
	var b strings.Builder

	for _, msg := range m.machine.Messages() {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n\n")
	}

	if text, streaming := m.machine.Revealing(); streaming {
		b.WriteString(m.styles.AgentMsg.Render(markdown.Render(text, width, m.theme)))
		b.WriteString(m.styles.Muted.Render("▌"))
		b.WriteString("\n")
	} else if m.machine.Typing() {
		b.WriteString(m.spin.View())
		b.WriteString(m.styles.Muted.Render(" Mia is typing..."))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderMessage(msg mia.ChatMessage, width int) string {
	switch msg.Kind {
	case mia.KindAgentText:
		return m.styles.AgentMsg.Render(markdown.Render(msg.Text, width, m.theme))

	case mia.KindUserText:
		return m.styles.UserMsg.Render("> " + msg.Text)

	case mia.KindRichCard:
		return m.renderCard(msg.Card, width)

	case mia.KindChoiceSet:
		return m.renderChoiceSet(msg, width)

	default:
		return msg.Text
	}
}

func (m Model) renderCard(card *mia.Card, width int) string {
	if card == nil {
		return ""
	}
	labelWidth := 0
	for _, row := range card.Rows {
		if w := rw.StringWidth(row.Label); w > labelWidth {
			labelWidth = w
		}
	}
	var b strings.Builder
	b.WriteString(m.styles.CardTitle.Render(card.Title))
	for _, row := range card.Rows {
		b.WriteString("\n")
		pad := strings.Repeat(" ", labelWidth-rw.StringWidth(row.Label))
		b.WriteString(fmt.Sprintf("%s%s  %s", row.Label, pad, m.styles.Accent.Render(row.Value)))
	}
	inner := width - 4 // border and padding
	if inner < 10 {
		inner = 10
	}
	return m.styles.CardBorder.MaxWidth(width).Render(lipgloss.NewStyle().MaxWidth(inner).Render(b.String()))
}

func (m Model) renderChoiceSet(msg mia.ChatMessage, width int) string {
	var b strings.Builder
	if msg.Text != "" {
		b.WriteString(m.styles.AgentMsg.Render(markdown.Render(msg.Text, width, m.theme)))
		b.WriteString("\n")
	}

	// Only the trailing choice set is selectable; older ones render inert.
	active := false
	if choices := m.activeChoices(); len(choices) > 0 {
		all := m.machine.Messages()
		active = len(all) > 0 && all[len(all)-1].ID == msg.ID
	}

	parts := make([]string, 0, len(msg.Choices))
	for i, ch := range msg.Choices {
		label := "[ " + ch.Label + " ]"
		switch {
		case active && i == m.choiceFocus%len(msg.Choices):
			parts = append(parts, m.styles.ChoiceFocused.Render(label))
		case ch.Weight == mia.WeightPrimary:
			parts = append(parts, m.styles.Choice.Bold(true).Render(label))
		default:
			parts = append(parts, m.styles.Choice.Render(label))
		}
	}
	b.WriteString(strings.Join(parts, "  "))
	return b.String()
}

func (m Model) statusLine() string {
	p := m.machine.Progress()
	status := fmt.Sprintf("step %d/%d", p.Step(), p.Max())
	if err := m.machine.StreamErr(); err != nil {
		status += "  " + m.styles.Error.Render(err.Error())
	} else if m.err != nil {
		status += "  " + m.styles.Error.Render(m.err.Error())
	}
	help := "tab: choices  enter: select  space: skip reveal  q: quit"
	return m.styles.Muted.Render(status + "  " + help)
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}
