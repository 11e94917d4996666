package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/workspace"
)

// Screen represents the current active screen in the application
type Screen int

const (
	ScreenCreator Screen = iota
	ScreenAdvisor
	ScreenGuide
	ScreenPortable
)

var screens = []Screen{ScreenCreator, ScreenAdvisor, ScreenGuide, ScreenPortable}

// workspaceChangedMsg is sent whenever the workspace notifies a change
type workspaceChangedMsg struct{}

// Options configures the interactive application.
type Options struct {
	// Compact hides the system status sidebar
	Compact bool

	// Start selects the first screen (default: creator)
	Start Screen

	// ConsoleURL is the URL the export screen packages (default: localhost)
	ConsoleURL string

	// Browse finds consoles on the network (default: discovery.Scan)
	Browse BrowseFunc

	// Copy writes to the system clipboard (default: clipboard.WriteAll)
	Copy func(string) error
}

// AppModel is the top-level coordinator model. It owns one workspace and
// routes input to the active screen.
type AppModel struct {
	ws      *workspace.Workspace
	ctx     context.Context
	opts    Options
	changes chan struct{}
	unwatch func()

	CurrentScreen Screen
	State         workspace.State

	Creator  CreatorModel
	Advisor  AdvisorModel
	Portable PortableModel

	Width    int
	Height   int
	ShowHelp bool
	Help     help.Model
	Keys     globalKeyMap
	Quitting bool
}

// NewAppModel creates the application for ws. The model watches ws until
// Close is called.
func NewAppModel(ctx context.Context, ws *workspace.Workspace, opts Options) AppModel {
	if opts.Browse == nil {
		opts.Browse = defaultBrowse
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	changes := make(chan struct{}, 1)
	unwatch := ws.Watch(func(workspace.Notification) {
		// coalesce: the model re-reads the whole state anyway
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	m := AppModel{
		ws:            ws,
		ctx:           ctx,
		opts:          opts,
		changes:       changes,
		unwatch:       unwatch,
		CurrentScreen: opts.Start,
		State:         ws.State(),
		Creator:       NewCreatorModel(ws),
		Advisor:       NewAdvisorModel(ctx, ws),
		Portable:      NewPortableModel(ctx, opts.ConsoleURL, opts.Browse, opts.Copy),
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Help:          help.New(),
		Keys:          newGlobalKeyMap(),
	}
	m.resize()
	return m
}

// Close stops watching the workspace.
func (m AppModel) Close() {
	if m.unwatch != nil {
		m.unwatch()
	}
}

// waitForChange blocks until the workspace reports a change
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return workspaceChangedMsg{}
	}
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.changes), m.Advisor.Input.Focus())
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()
		return m, nil

	case workspaceChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case askDoneMsg:
		var cmd tea.Cmd
		m.Advisor, cmd = m.Advisor.Update(msg)
		m.refresh()
		return m, cmd

	case consolesFoundMsg:
		var cmd tea.Cmd
		m.Portable, cmd = m.Portable.Update(msg, m.ws.Messages())
		return m, cmd

	case spinner.TickMsg:
		// each spinner ignores ticks that carry another spinner's id
		var c1, c2, c3 tea.Cmd
		m.Creator, c1 = m.Creator.Update(msg)
		m.Advisor, c2 = m.Advisor.Update(msg)
		m.Portable, c3 = m.Portable.Update(msg, m.ws.Messages())
		return m, tea.Batch(c1, c2, c3)
	}

	var cmd tea.Cmd
	switch m.CurrentScreen {
	case ScreenCreator:
		m.Creator, cmd = m.Creator.Update(msg)
	case ScreenAdvisor:
		m.Advisor, cmd = m.Advisor.Update(msg)
	}
	return m, cmd
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.ShowHelp = !m.ShowHelp
		return m, nil

	case m.ShowHelp:
		// any other key closes the help overlay
		m.ShowHelp = false
		return m, nil

	case key.Matches(msg, m.Keys.Language):
		next := locale.English
		if m.ws.Lang() == locale.English {
			next = locale.French
		}
		m.ws.SetLanguage(next)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.Keys.NextTab) && !m.formOpen():
		return m.switchTo(screens[(int(m.CurrentScreen)+1)%len(screens)])

	case key.Matches(msg, m.Keys.PrevTab) && !m.formOpen():
		return m.switchTo(screens[(int(m.CurrentScreen)+len(screens)-1)%len(screens)])
	}

	if !m.capturing() && msg.String() == "q" {
		m.Quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch m.CurrentScreen {
	case ScreenCreator:
		m.Creator, cmd = m.Creator.Update(msg)
	case ScreenAdvisor:
		m.Advisor, cmd = m.Advisor.Update(msg)
	case ScreenPortable:
		m.Portable, cmd = m.Portable.Update(msg, m.ws.Messages())
	}
	m.refresh()
	return m, cmd
}

// switchTo changes the active screen
func (m AppModel) switchTo(screen Screen) (tea.Model, tea.Cmd) {
	m.CurrentScreen = screen
	if screen == ScreenAdvisor {
		return m, m.Advisor.Input.Focus()
	}
	return m, nil
}

// formOpen reports whether the creator is editing or confirming; the
// screen cannot be left until that is answered.
func (m AppModel) formOpen() bool {
	return m.CurrentScreen == ScreenCreator && m.Creator.Capturing()
}

// capturing reports whether the active screen takes plain letters as input.
func (m AppModel) capturing() bool {
	switch m.CurrentScreen {
	case ScreenCreator:
		return m.Creator.Capturing()
	case ScreenAdvisor:
		return m.Advisor.Capturing()
	case ScreenPortable:
		return m.Portable.Capturing()
	default:
		return false
	}
}

// refresh re-reads the workspace and pushes the state into every screen.
func (m *AppModel) refresh() {
	m.State = m.ws.State()
	m.Creator.Sync(m.State)
	m.Advisor.Sync(m.State)
}

func (m *AppModel) resize() {
	width := ContentWidth(m.Width, m.opts.Compact)
	m.Creator.SetWidth(width)
	m.Portable.Width = width
	// header, tabs, footer and the chat chrome take about 16 rows
	m.Advisor.SetSize(width, m.Height-16)
	m.Help.Width = width
}

// View renders the current screen
func (m AppModel) View() string {
	if m.Quitting {
		return ""
	}
	msgs := m.ws.Messages()

	if m.ShowHelp {
		return RenderModal(m.renderHelp(), m.Width, m.Height)
	}

	var content string
	switch m.CurrentScreen {
	case ScreenCreator:
		content = m.Creator.View(msgs)
	case ScreenAdvisor:
		content = m.Advisor.View(msgs)
	case ScreenGuide:
		content = RenderGuide(msgs, ContentWidth(m.Width, m.opts.Compact))
	case ScreenPortable:
		content = m.Portable.View(msgs)
	}

	tabs := RenderTabs([]string{msgs.TabCreator, msgs.TabAdvisor, msgs.TabGuide, msgs.TabPortable}, int(m.CurrentScreen))
	body := lipgloss.JoinVertical(lipgloss.Left, tabs, "", content)
	if !m.opts.Compact {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(msgs), " ", body)
	}

	badge := ""
	if m.State.Provisioning.Active() {
		badge = msgs.Busy
	}
	header := BuildHeaderContent(msgs.AppTitle, badge)
	return RenderApplicationContainer(header, body, m.Help.View(m.helpKeys()), m.Width, m.Height)
}

func (m AppModel) helpKeys() help.KeyMap {
	switch m.CurrentScreen {
	case ScreenCreator:
		return m.Creator.HelpKeys()
	case ScreenAdvisor:
		return m.Advisor.HelpKeys()
	case ScreenPortable:
		return m.Portable.HelpKeys()
	default:
		return newGuideKeyMap()
	}
}

// renderSidebar renders the simulated system status panel.
func (m AppModel) renderSidebar(msgs *locale.Messages) string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render(strings.ToUpper(msgs.SystemStatus)))
	b.WriteString("\n\n")
	b.WriteString(msgs.TPMLabel + "\n")
	b.WriteString(SuccessTextStyle.Render("● " + msgs.TPMValue))
	b.WriteString("\n\n")
	b.WriteString(msgs.SecureLabel + "\n")
	b.WriteString(SuccessTextStyle.Render("● " + msgs.SecureValue))
	b.WriteString("\n\n")

	snap := m.State.Provisioning
	b.WriteString(LabelStyle.Render(msgs.CurrentStage) + "\n")
	b.WriteString(snap.Label)
	if snap.Active() {
		b.WriteString("\n\n")
		b.WriteString(BusyBadgeStyle.Render(msgs.Busy))
	}
	b.WriteString("\n\n")
	b.WriteString(SubtitleStyle.Render(strings.ToUpper(string(m.State.Lang)) + " · ctrl+l"))
	return SidebarStyle.Render(b.String())
}

// renderHelp renders the full help of the active screen plus the global keys.
func (m AppModel) renderHelp() string {
	full := help.New()
	full.ShowAll = true

	var b strings.Builder
	b.WriteString(RenderTitle("Help"))
	b.WriteString("\n")
	b.WriteString(full.View(m.helpKeys()))
	b.WriteString("\n\n")
	b.WriteString(full.FullHelpView([][]key.Binding{
		{m.Keys.NextTab, m.Keys.PrevTab},
		{m.Keys.Language, m.Keys.Help, m.Keys.Quit},
	}))
	return CardStyle.Width(SafeModalWidth(72, m.Width)).Render(b.String())
}

// Run starts the full-screen application on ws and blocks until it exits.
func Run(ctx context.Context, ws *workspace.Workspace, opts Options) error {
	m := NewAppModel(ctx, ws, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
