package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/provisioning"
	"github.com/muurk/bootmaster/internal/workspace"
)

// deviceItem wraps a catalog device for use with bubbles/list
type deviceItem struct {
	device catalog.Device
}

// FilterValue implements list.Item
func (d deviceItem) FilterValue() string {
	return d.device.ID + " " + d.device.DisplayName
}

// deviceDelegate renders one drive per line and marks the drive the
// settings currently point at.
type deviceDelegate struct {
	current string
}

func (d deviceDelegate) Height() int { return 1 }

func (d deviceDelegate) Spacing() int { return 0 }

func (d deviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(deviceItem)
	if !ok {
		return
	}

	mark := "○"
	if it.device.ID == d.current {
		mark = "●"
	}
	line := fmt.Sprintf("%s %s  [%s]", mark, it.device.DisplayName, it.device.MediaKind)
	fmt.Fprint(w, RenderMenuItem(line, index == m.Index()))
}

// CreatorModel is the bootable-drive creator screen.
type CreatorModel struct {
	ws    *workspace.Workspace
	state workspace.State

	Devices    list.Model
	ImageInput textinput.Model
	Spinner    spinner.Model
	Bar        progress.Model

	// Editing is true while the image path field has focus
	Editing bool
	// Confirming is true while the erase warning waits for an answer
	Confirming bool

	Notice      string
	NoticeError bool

	Width       int
	Keys        creatorKeyMap
	InputKeys   inputKeyMap
	ConfirmKeys confirmKeyMap
}

// NewCreatorModel creates the creator screen for ws.
func NewCreatorModel(ws *workspace.Workspace) CreatorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.CharLimit = 260
	input.Width = 48
	input.Prompt = "› "

	bar := progress.New(progress.WithGradient(string(PrimaryColor), string(AccentColor)))
	bar.Width = 48

	devices := list.New(nil, deviceDelegate{}, 60, catalog.DefaultMaxDevices)
	devices.SetShowTitle(false)
	devices.SetShowStatusBar(false)
	devices.SetShowHelp(false)
	devices.SetShowPagination(false)
	devices.SetFilteringEnabled(false)
	devices.KeyMap.Quit.SetEnabled(false)

	m := CreatorModel{
		ws:          ws,
		Devices:     devices,
		ImageInput:  input,
		Spinner:     s,
		Bar:         bar,
		Keys:        newCreatorKeyMap(),
		InputKeys:   newInputKeyMap(),
		ConfirmKeys: newConfirmKeyMap(),
	}
	m.Sync(ws.State())
	return m
}

// Sync copies the workspace state into the screen widgets.
func (m *CreatorModel) Sync(state workspace.State) {
	m.state = state
	msgs := locale.For(state.Lang)

	items := make([]list.Item, len(state.Catalog.Devices))
	for i, d := range state.Catalog.Devices {
		items[i] = deviceItem{device: d}
	}
	idx := m.Devices.Index()
	m.Devices.SetItems(items)
	m.Devices.SetHeight(max(len(items), 1))
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.Devices.Select(idx)
	}
	m.Devices.SetDelegate(deviceDelegate{current: state.Provisioning.DeviceID})

	m.ImageInput.Placeholder = msgs.ImagePlaceholder
	if state.Provisioning.Active() {
		// a run makes the form read-only
		m.Confirming = false
		if m.Editing {
			m.Editing = false
			m.ImageInput.Blur()
		}
	}
}

// SetWidth resizes the widgets to the content area.
func (m *CreatorModel) SetWidth(width int) {
	m.Width = width
	m.Devices.SetWidth(width)
	m.Bar.Width = min(width-8, 72)
	m.ImageInput.Width = min(width-12, 72)
}

// Capturing reports whether the screen wants raw key input.
func (m CreatorModel) Capturing() bool {
	return m.Editing || m.Confirming
}

// HelpKeys returns the bindings for the current mode.
func (m CreatorModel) HelpKeys() help.KeyMap {
	switch {
	case m.Confirming:
		return m.ConfirmKeys
	case m.Editing:
		return m.InputKeys
	default:
		return m.Keys
	}
}

// Update handles messages and updates the model
func (m CreatorModel) Update(msg tea.Msg) (CreatorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case m.Confirming:
			return m.updateConfirm(msg)
		case m.Editing:
			return m.updateEditing(msg)
		default:
			return m.updateNormal(msg)
		}

	case spinner.TickMsg:
		if !m.state.Catalog.Scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if m.Editing {
		var cmd tea.Cmd
		m.ImageInput, cmd = m.ImageInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m CreatorModel) updateNormal(msg tea.KeyMsg) (CreatorModel, tea.Cmd) {
	msgs := m.ws.Messages()
	m.Notice = ""
	m.NoticeError = false

	switch {
	case key.Matches(msg, m.Keys.Up), key.Matches(msg, m.Keys.Down):
		var cmd tea.Cmd
		m.Devices, cmd = m.Devices.Update(msg)
		return m, cmd

	case key.Matches(msg, m.Keys.Select):
		if it, ok := m.Devices.SelectedItem().(deviceItem); ok {
			m.configure(func(s *provisioning.Settings) { s.DeviceID = it.device.ID })
		}

	case key.Matches(msg, m.Keys.Image):
		if m.state.Provisioning.Active() {
			m.setError(msgs.RunInProgress)
			return m, nil
		}
		m.Editing = true
		m.ImageInput.SetValue(m.state.Provisioning.ImagePath)
		m.ImageInput.CursorEnd()
		return m, m.ImageInput.Focus()

	case key.Matches(msg, m.Keys.Partition):
		m.configure(func(s *provisioning.Settings) {
			s.Partition = toggle(s.Partition, provisioning.PartitionGPT, provisioning.PartitionMBR)
		})

	case key.Matches(msg, m.Keys.Target):
		m.configure(func(s *provisioning.Settings) {
			s.Firmware = toggle(s.Firmware, provisioning.FirmwareUEFI, provisioning.FirmwareBIOS)
		})

	case key.Matches(msg, m.Keys.FS):
		m.configure(func(s *provisioning.Settings) {
			s.FileSystem = toggle(s.FileSystem, provisioning.FileSystemNTFS, provisioning.FileSystemFAT32)
		})

	case key.Matches(msg, m.Keys.Rescan):
		if m.ws.Catalog.StartRescan(nil) {
			m.state.Catalog.Scanning = true
			return m, m.Spinner.Tick
		}

	case key.Matches(msg, m.Keys.Start):
		// The refusing confirmer turns Start into a precondition check;
		// the real prompt is shown inline.
		asked := false
		err := m.ws.Simulator.Start(provisioning.ConfirmFunc(func(string) bool {
			asked = true
			return false
		}))
		switch {
		case asked:
			m.Confirming = true
		case err != nil:
			m.setError(m.describe(err))
		}

	case key.Matches(msg, m.Keys.Restart):
		if err := m.ws.Simulator.Restart(); err != nil {
			m.setError(m.describe(err))
		}

	case key.Matches(msg, m.Keys.Abort):
		m.ws.Simulator.Fail(msgs.Cancelled)
	}
	return m, nil
}

func (m CreatorModel) updateEditing(msg tea.KeyMsg) (CreatorModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.InputKeys.Confirm):
		value := m.ImageInput.Value()
		m.Editing = false
		m.ImageInput.Blur()
		m.configure(func(s *provisioning.Settings) { s.ImagePath = value })
		return m, nil

	case key.Matches(msg, m.InputKeys.Cancel):
		m.Editing = false
		m.ImageInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.ImageInput, cmd = m.ImageInput.Update(msg)
	return m, cmd
}

func (m CreatorModel) updateConfirm(msg tea.KeyMsg) (CreatorModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ConfirmKeys.Yes):
		m.Confirming = false
		err := m.ws.Simulator.Start(provisioning.AlwaysConfirm)
		if err != nil {
			m.setError(m.describe(err))
		}
	case key.Matches(msg, m.ConfirmKeys.No):
		m.Confirming = false
		m.Notice = m.ws.Messages().Cancelled
		m.NoticeError = false
	}
	return m, nil
}

// configure applies edit to the current settings.
func (m *CreatorModel) configure(edit func(*provisioning.Settings)) {
	settings := m.ws.Simulator.Snapshot().Settings
	edit(&settings)
	if err := m.ws.Simulator.Configure(settings); err != nil {
		m.setError(m.describe(err))
	}
}

func (m *CreatorModel) setError(text string) {
	m.Notice = text
	m.NoticeError = true
}

// describe maps simulator errors to the localized notice.
func (m CreatorModel) describe(err error) string {
	msgs := m.ws.Messages()
	switch {
	case errors.Is(err, provisioning.ErrMissingImage):
		return msgs.MissingImage
	case errors.Is(err, provisioning.ErrRunInProgress):
		return msgs.RunInProgress
	case errors.Is(err, provisioning.ErrUnknownDevice):
		return msgs.UnknownDevice
	case errors.Is(err, provisioning.ErrCatalogBusy):
		return msgs.Searching
	case errors.Is(err, provisioning.ErrNotConfirmed):
		return msgs.Cancelled
	default:
		return err.Error()
	}
}

func toggle[T comparable](v, a, b T) T {
	if v == a {
		return b
	}
	return a
}

// View renders the creator screen
func (m CreatorModel) View(msgs *locale.Messages) string {
	var b strings.Builder
	snap := m.state.Provisioning

	b.WriteString(RenderTitle(msgs.CreatorTitle))
	b.WriteString("\n")

	// Target drive
	scan := LabelStyle.Render("(r) " + msgs.Refresh)
	if m.state.Catalog.Scanning {
		scan = SpinnerStyle.Render(m.Spinner.View() + " " + msgs.Searching)
	}
	b.WriteString(LabelStyle.Render(msgs.TargetDevice) + "  " + scan)
	b.WriteString("\n")
	b.WriteString(m.Devices.View())
	b.WriteString("\n\n")

	// Image
	b.WriteString(LabelStyle.Render(msgs.ImageLabel))
	b.WriteString("\n")
	switch {
	case m.Editing:
		b.WriteString(m.ImageInput.View())
	case snap.ImagePath == "":
		b.WriteString(SubtitleStyle.Render("  " + msgs.ImagePlaceholder))
	default:
		b.WriteString(ValueStyle.Render("  " + snap.ImagePath))
	}
	b.WriteString("\n\n")

	// Settings
	b.WriteString(RenderField(msgs.PartitionLabel, partitionText(msgs, snap.Partition)))
	b.WriteString("\n")
	b.WriteString(RenderField(msgs.TargetLabel, firmwareText(msgs, snap.Firmware)))
	b.WriteString("\n")
	b.WriteString(RenderField(msgs.FileSystemLabel, string(snap.FileSystem)))
	b.WriteString("\n\n")

	// Run
	if snap.Stage != provisioning.StageIdle {
		b.WriteString(RenderField(msgs.CurrentStage, snap.Label))
		b.WriteString("\n")
		b.WriteString(m.Bar.ViewAs(float64(snap.Percent) / 100))
		b.WriteString("\n\n")
	}
	switch snap.Stage {
	case provisioning.StageIdle:
		b.WriteString(SelectedMenuItemStyle.Render("(s) " + msgs.Start))
		b.WriteString("\n\n")
	case provisioning.StageCompleted:
		b.WriteString(RenderSuccess(msgs.CompletionMessage))
		b.WriteString("\n")
		b.WriteString(SelectedMenuItemStyle.Render("(n) " + msgs.Restart))
		b.WriteString("\n\n")
	case provisioning.StageError:
		text := msgs.StageError
		if snap.Reason != "" {
			text += " " + snap.Reason
		}
		b.WriteString(RenderError(text))
		b.WriteString("\n")
		b.WriteString(SelectedMenuItemStyle.Render("(n) " + msgs.Restart))
		b.WriteString("\n\n")
	}

	if m.Confirming {
		box := WarningBoxStyle.Width(SafeModalWidth(64, m.Width+4)).
			Render("⚠ " + msgs.ConfirmErase + "  [y/N]")
		b.WriteString(box)
		b.WriteString("\n\n")
	}

	if m.Notice != "" {
		if m.NoticeError {
			b.WriteString(RenderError(m.Notice))
		} else {
			b.WriteString(NoticeStyle.Render(m.Notice))
		}
		b.WriteString("\n\n")
	}

	note := LabelStyle.Render(msgs.SecurityNoteTitle) + " " + SubtitleStyle.Render(msgs.SecurityNote)
	b.WriteString(lipgloss.NewStyle().Width(max(m.Width, 30)).Render(note))

	return b.String()
}

func partitionText(msgs *locale.Messages, p provisioning.PartitionScheme) string {
	if p == provisioning.PartitionMBR {
		return msgs.PartitionMBR
	}
	return msgs.PartitionGPT
}

func firmwareText(msgs *locale.Messages, f provisioning.TargetFirmware) string {
	if f == provisioning.FirmwareBIOS {
		return msgs.TargetBIOS
	}
	return msgs.TargetUEFI
}
