package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bootmaster/internal/discovery"
	"github.com/muurk/bootmaster/internal/locale"
)

// LauncherName is the application name passed to nativefier.
const LauncherName = "Win11 BootMaster"

// NativefierCommands returns the install command and the packaging command
// for a console served at url.
func NativefierCommands(url string) []string {
	return []string{
		"npm install -g nativefier",
		fmt.Sprintf("nativefier --name %q %q", LauncherName, url),
	}
}

// DefaultConsoleURL is the address of a console started with default flags.
func DefaultConsoleURL() string {
	return fmt.Sprintf("http://localhost:%d", discovery.DefaultPort)
}

// BrowseFunc looks for consoles on the local network.
type BrowseFunc func(ctx context.Context) ([]*discovery.Console, error)

// consolesFoundMsg carries the result of a network browse
type consolesFoundMsg struct {
	consoles []*discovery.Console
	err      error
}

// browseConsoles is a command that performs console discovery
func browseConsoles(ctx context.Context, browse BrowseFunc) tea.Cmd {
	return func() tea.Msg {
		consoles, err := browse(ctx)
		return consolesFoundMsg{consoles: consoles, err: err}
	}
}

// consoleItem wraps a Console for use with bubbles/list
type consoleItem struct {
	console *discovery.Console
}

// FilterValue implements list.Item
func (c consoleItem) FilterValue() string {
	return c.console.Instance + " " + c.console.IP
}

// consoleDelegate renders one console per line
type consoleDelegate struct{}

func (d consoleDelegate) Height() int { return 1 }

func (d consoleDelegate) Spacing() int { return 0 }

func (d consoleDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d consoleDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(consoleItem)
	if !ok {
		return
	}
	line := it.console.Instance + "  " + it.console.BaseURL()
	if lang := it.console.GetMetadata("lang"); lang != "" {
		line += "  [" + lang + "]"
	}
	fmt.Fprint(w, RenderMenuItem(line, index == m.Index()))
}

// PortableModel is the export screen: nativefier commands for a console
// URL, the simulated launcher download, and a browser for consoles
// advertised on the network.
type PortableModel struct {
	ctx    context.Context
	browse BrowseFunc
	copy   func(string) error

	URL        string
	Consoles   list.Model
	Browsing   bool
	BrowseErr  error
	Spinner    spinner.Model
	Downloaded bool

	Notice      string
	NoticeError bool

	Width int
	Keys  portableKeyMap
}

// NewPortableModel creates the export screen.
func NewPortableModel(ctx context.Context, url string, browse BrowseFunc, copyFn func(string) error) PortableModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	consoles := list.New(nil, consoleDelegate{}, 60, 4)
	consoles.SetShowTitle(false)
	consoles.SetShowStatusBar(false)
	consoles.SetShowHelp(false)
	consoles.SetShowPagination(false)
	consoles.SetFilteringEnabled(false)
	consoles.KeyMap.Quit.SetEnabled(false)

	if url == "" {
		url = DefaultConsoleURL()
	}
	return PortableModel{
		ctx:      ctx,
		browse:   browse,
		copy:     copyFn,
		URL:      url,
		Consoles: consoles,
		Spinner:  s,
		Width:    60,
		Keys:     newPortableKeyMap(),
	}
}

// Capturing is false: the export screen has no text field.
func (m PortableModel) Capturing() bool {
	return false
}

// HelpKeys returns the bindings of the export screen.
func (m PortableModel) HelpKeys() help.KeyMap {
	return m.Keys
}

// Update handles messages and updates the model
func (m PortableModel) Update(msg tea.Msg, msgs *locale.Messages) (PortableModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg, msgs)

	case consolesFoundMsg:
		m.Browsing = false
		m.BrowseErr = msg.err
		items := make([]list.Item, len(msg.consoles))
		for i, c := range msg.consoles {
			items[i] = consoleItem{console: c}
		}
		m.Consoles.SetItems(items)
		m.Consoles.SetHeight(max(len(items), 1))
		return m, nil

	case spinner.TickMsg:
		if !m.Browsing {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m PortableModel) updateKeys(msg tea.KeyMsg, msgs *locale.Messages) (PortableModel, tea.Cmd) {
	m.Notice = ""
	m.NoticeError = false

	switch {
	case key.Matches(msg, m.Keys.Copy):
		cmds := NativefierCommands(m.URL)
		if err := m.copy(cmds[1]); err != nil {
			m.Notice = err.Error()
			m.NoticeError = true
		} else {
			m.Notice = msgs.Copied
		}

	case key.Matches(msg, m.Keys.Download):
		m.Downloaded = true

	case key.Matches(msg, m.Keys.Browse):
		if m.Browsing || m.browse == nil {
			return m, nil
		}
		m.Browsing = true
		m.BrowseErr = nil
		return m, tea.Batch(browseConsoles(m.ctx, m.browse), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.Up), key.Matches(msg, m.Keys.Down):
		var cmd tea.Cmd
		m.Consoles, cmd = m.Consoles.Update(msg)
		return m, cmd

	case key.Matches(msg, m.Keys.Use):
		if it, ok := m.Consoles.SelectedItem().(consoleItem); ok {
			m.URL = it.console.BaseURL()
		}
	}
	return m, nil
}

// View renders the export screen
func (m PortableModel) View(msgs *locale.Messages) string {
	var b strings.Builder
	wrap := lipgloss.NewStyle().Width(max(m.Width, 30))

	b.WriteString(RenderTitle(msgs.PortableTitle))
	b.WriteString("\n")
	b.WriteString(wrap.Render(RenderSubtitle(msgs.PortableSubtitle)))
	b.WriteString("\n\n")

	// Option 1
	b.WriteString(SelectedMenuItemStyle.Render(msgs.PortableQuick))
	b.WriteString("\n")
	b.WriteString(wrap.Render(msgs.PortableQuickBody))
	b.WriteString("\n")
	for _, c := range NativefierCommands(m.URL) {
		b.WriteString(CommandStyle.Render("$ " + c))
		b.WriteString("\n")
	}
	b.WriteString(LabelStyle.Render("(c) " + msgs.Copy))
	b.WriteString("\n\n")

	// Consoles on the network
	switch {
	case m.Browsing:
		b.WriteString(SpinnerStyle.Render(m.Spinner.View() + " " + discovery.ServiceType))
		b.WriteString("\n")
	case m.BrowseErr != nil:
		b.WriteString(RenderError(m.BrowseErr.Error()))
		b.WriteString("\n")
	case len(m.Consoles.Items()) > 0:
		b.WriteString(m.Consoles.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Option 2
	b.WriteString(SelectedMenuItemStyle.Render(msgs.PortableLauncher))
	b.WriteString("\n")
	launcher := lipgloss.JoinVertical(lipgloss.Left,
		ValueStyle.Bold(true).Render(msgs.LauncherName),
		SubtitleStyle.Render(msgs.LauncherDetails),
		LabelStyle.Render("(d) "+msgs.Download),
	)
	b.WriteString(CardStyle.Render(launcher))
	b.WriteString("\n")
	if m.Downloaded {
		b.WriteString(wrap.Render(NoticeStyle.Render(msgs.LauncherNote)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render(msgs.PortableBenefits))
	b.WriteString("\n")
	for _, benefit := range msgs.Benefits {
		b.WriteString(SuccessTextStyle.Render("  ✓ ") + benefit)
		b.WriteString("\n")
	}

	if m.Notice != "" {
		b.WriteString("\n")
		if m.NoticeError {
			b.WriteString(RenderError(m.Notice))
		} else {
			b.WriteString(RenderSuccess(m.Notice))
		}
	}
	return b.String()
}

// defaultBrowse scans for a few seconds with the discovery defaults.
func defaultBrowse(ctx context.Context) ([]*discovery.Console, error) {
	return discovery.Scan(ctx, 3*time.Second)
}
