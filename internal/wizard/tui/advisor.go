package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/workspace"
)

// askDoneMsg carries the outcome of one advisor request
type askDoneMsg struct {
	turn advisor.Turn
	err  error
}

// askCmd runs the request off the UI goroutine.
func askCmd(ctx context.Context, session *advisor.Session, text string) tea.Cmd {
	return func() tea.Msg {
		turn, err := session.Ask(ctx, text)
		return askDoneMsg{turn: turn, err: err}
	}
}

// AdvisorModel is the chat screen.
type AdvisorModel struct {
	ws    *workspace.Workspace
	state workspace.State
	ctx   context.Context

	Input      textinput.Model
	Transcript viewport.Model
	Spinner    spinner.Model

	// suggestion is the index of the next suggestion ctrl+n inserts
	suggestion int
	// pending covers the gap between sending and the session marking
	// itself awaiting
	pending bool

	Notice string
	Width  int
	Keys   advisorKeyMap
}

// NewAdvisorModel creates the chat screen for ws. Requests are bound to ctx.
func NewAdvisorModel(ctx context.Context, ws *workspace.Workspace) AdvisorModel {
	s := spinner.New()
	s.Spinner = spinner.Ellipsis
	s.Style = SpinnerStyle

	input := textinput.New()
	input.CharLimit = 1000
	input.Width = 60
	input.Prompt = "› "
	input.Focus()

	m := AdvisorModel{
		ws:         ws,
		ctx:        ctx,
		Input:      input,
		Transcript: viewport.New(60, 12),
		Spinner:    s,
		Width:      60,
		Keys:       newAdvisorKeyMap(),
	}
	m.Sync(ws.State())
	return m
}

// Sync copies the workspace state into the screen widgets.
func (m *AdvisorModel) Sync(state workspace.State) {
	m.state = state
	m.Input.Placeholder = locale.For(state.Lang).InputPlaceholder
	m.Transcript.SetContent(renderTranscript(state.Transcript, m.Width))
	m.Transcript.GotoBottom()
}

// SetSize resizes the transcript and the input.
func (m *AdvisorModel) SetSize(width, height int) {
	m.Width = width
	m.Transcript.Width = width
	m.Transcript.Height = max(height, 4)
	m.Input.Width = max(width-4, 10)
	m.Transcript.SetContent(renderTranscript(m.state.Transcript, width))
	m.Transcript.GotoBottom()
}

// Busy reports whether a reply is outstanding.
func (m AdvisorModel) Busy() bool {
	return m.pending || m.state.Awaiting
}

// Capturing is always true: the chat input owns the keyboard.
func (m AdvisorModel) Capturing() bool {
	return true
}

// HelpKeys returns the bindings of the chat screen.
func (m AdvisorModel) HelpKeys() help.KeyMap {
	return m.Keys
}

// Update handles messages and updates the model
func (m AdvisorModel) Update(msg tea.Msg) (AdvisorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case askDoneMsg:
		m.pending = false
		if msg.err != nil && !errors.Is(msg.err, advisor.ErrReplyDiscarded) {
			m.Notice = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m AdvisorModel) updateKeys(msg tea.KeyMsg) (AdvisorModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Send):
		text := strings.TrimSpace(m.Input.Value())
		if text == "" || m.Busy() {
			return m, nil
		}
		m.Notice = ""
		m.Input.SetValue("")
		m.pending = true
		return m, tea.Batch(askCmd(m.ctx, m.ws.Advisor, text), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.Suggestion):
		suggestions := m.state.Suggestions
		if len(suggestions) > 0 {
			m.Input.SetValue(suggestions[m.suggestion%len(suggestions)])
			m.Input.CursorEnd()
			m.suggestion++
		}
		return m, nil

	case key.Matches(msg, m.Keys.Reset):
		m.Notice = ""
		m.suggestion = 0
		m.ws.Advisor.Reset()
		return m, nil

	case key.Matches(msg, m.Keys.Scroll):
		var cmd tea.Cmd
		m.Transcript, cmd = m.Transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// View renders the chat screen
func (m AdvisorModel) View(msgs *locale.Messages) string {
	var b strings.Builder

	status := SuccessTextStyle.Render("● " + msgs.AdvisorStatus)
	b.WriteString(RenderTitle(msgs.AdvisorTitle) + "  " + status)
	b.WriteString("\n")
	b.WriteString(m.Transcript.View())
	b.WriteString("\n")
	if m.Busy() {
		b.WriteString(SpinnerStyle.Render("  " + m.Spinner.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	b.WriteString("\n\n")

	if len(m.state.Transcript) <= 1 {
		for _, s := range m.state.Suggestions {
			b.WriteString(SubtitleStyle.Render("  • " + s))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.Notice != "" {
		b.WriteString(RenderError(m.Notice))
		b.WriteString("\n")
	}
	b.WriteString(SubtitleStyle.Render(msgs.Disclaimer))
	return b.String()
}

// renderTranscript lays out the turns wrapped to width.
func renderTranscript(t advisor.Transcript, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-2, 10)).PaddingLeft(2)

	var b strings.Builder
	for i, turn := range t {
		if i > 0 {
			b.WriteString("\n")
		}
		if turn.Speaker == advisor.SpeakerUser {
			b.WriteString(UserTurnStyle.Render("›"))
		} else {
			b.WriteString(AssistantTurnStyle.Render("◆"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(turn.Text))
		b.WriteString("\n")
	}
	return b.String()
}
