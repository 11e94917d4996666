package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// globalKeyMap holds the bindings available on every screen
type globalKeyMap struct {
	NextTab  key.Binding
	PrevTab  key.Binding
	Language key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newGlobalKeyMap() globalKeyMap {
	return globalKeyMap{
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next screen"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous screen"),
		),
		Language: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "français/english"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// creatorKeyMap defines key bindings for the creator screen
type creatorKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Image     key.Binding
	Partition key.Binding
	Target    key.Binding
	FS        key.Binding
	Rescan    key.Binding
	Start     key.Binding
	Restart   key.Binding
	Abort     key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k creatorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Image, k.Rescan, k.Start, k.Restart, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k creatorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Rescan},
		{k.Image, k.Partition, k.Target, k.FS},
		{k.Start, k.Restart, k.Abort, k.Quit},
	}
}

func newCreatorKeyMap() creatorKeyMap {
	return creatorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "use drive"),
		),
		Image: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "ISO image"),
		),
		Partition: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "GPT/MBR"),
		),
		Target: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "UEFI/BIOS"),
		),
		FS: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "NTFS/FAT32"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		Restart: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new run"),
		),
		Abort: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "abort"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// inputKeyMap defines key bindings while a text field has focus
type inputKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k inputKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k inputKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

func newInputKeyMap() inputKeyMap {
	return inputKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// confirmKeyMap defines key bindings for the erase confirmation
type confirmKeyMap struct {
	Yes key.Binding
	No  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k confirmKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

// FullHelp returns keybindings for the expanded help view
func (k confirmKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Yes, k.No}}
}

func newConfirmKeyMap() confirmKeyMap {
	return confirmKeyMap{
		Yes: key.NewBinding(
			key.WithKeys("y", "o"),
			key.WithHelp("y/o", "erase and continue"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// advisorKeyMap defines key bindings for the advisor screen
type advisorKeyMap struct {
	Send       key.Binding
	Suggestion key.Binding
	Scroll     key.Binding
	Reset      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k advisorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Suggestion, k.Scroll, k.Reset}
}

// FullHelp returns keybindings for the expanded help view
func (k advisorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.Suggestion}, {k.Scroll, k.Reset}}
}

func newAdvisorKeyMap() advisorKeyMap {
	return advisorKeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Suggestion: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "suggestion"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("pgup", "pgdown"),
			key.WithHelp("pgup/pgdn", "scroll"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "new conversation"),
		),
	}
}

// portableKeyMap defines key bindings for the export screen
type portableKeyMap struct {
	Copy     key.Binding
	Download key.Binding
	Browse   key.Binding
	Up       key.Binding
	Down     key.Binding
	Use      key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k portableKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Copy, k.Download, k.Browse, k.Use, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k portableKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Copy, k.Download},
		{k.Browse, k.Up, k.Down, k.Use},
		{k.Quit},
	}
}

func newPortableKeyMap() portableKeyMap {
	return portableKeyMap{
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy command"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download launcher"),
		),
		Browse: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "find consoles"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Use: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "use console"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// guideKeyMap defines key bindings for the guide screen
type guideKeyMap struct {
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k guideKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k guideKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

func newGuideKeyMap() guideKeyMap {
	return guideKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}
