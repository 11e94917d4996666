package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bootmaster/internal/urls"
	"github.com/muurk/bootmaster/internal/version"
)

// Application branding constants
const (
	AppName   = "WIN11 BOOTMASTER"
	GitHubURL = "github.com/muurk/bootmaster"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
	SidebarWidth     = 26 // Status sidebar, hidden in compact layout
	DefaultWidth     = 100
	DefaultHeight    = 32
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#0078D4") // Windows blue
	SecondaryColor = lipgloss.Color("#16C60C") // Green
	AccentColor    = lipgloss.Color("#60CDFF") // Light blue
	WarningColor   = lipgloss.Color("#FFB900") // Amber
	ErrorColor     = lipgloss.Color("#E81123") // Red

	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#767676")
	BorderColor    = lipgloss.Color("#0078D4")
	HighlightColor = lipgloss.Color("#60CDFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	MenuItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(TextColor)

	SelectedMenuItemStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 2)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Padding(0, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	BusyBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(WarningColor).
			Bold(true).
			Padding(0, 1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	WarningBoxStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	CommandStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	UserTurnStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	AssistantTurnStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	SidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1).
			Width(SidebarWidth - 2)
)

// RenderTitle renders a title with consistent styling
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSubtitle renders a subtitle with consistent styling
func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderMenuItem renders a menu item with selection indicator
func RenderMenuItem(text string, selected bool) string {
	if selected {
		return SelectedMenuItemStyle.Render("→ " + text)
	}
	return MenuItemStyle.Render(text)
}

// RenderError renders an error line
func RenderError(text string) string {
	return ErrorTextStyle.Render("✗ " + text)
}

// RenderSuccess renders a success line
func RenderSuccess(text string) string {
	return SuccessTextStyle.Render("✓ " + text)
}

// RenderField renders "label  value" on one line.
func RenderField(label, value string) string {
	return LabelStyle.Render(label) + "  " + ValueStyle.Render(value)
}

// RenderTabs renders the tab bar with the active tab highlighted.
func RenderTabs(labels []string, active int) string {
	tabs := make([]string, len(labels))
	for i, l := range labels {
		if i == active {
			tabs[i] = ActiveTabStyle.Render(l)
		} else {
			tabs[i] = InactiveTabStyle.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// BuildHeaderContent creates header content with app name and project URL
func BuildHeaderContent(title string, badge string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(strings.ToUpper(title) + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	parts := []string{left, " ", right}
	if badge != "" {
		parts = append(parts, "  ", BusyBadgeStyle.Render(badge))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// BuildFooterContent creates footer content with help text
func BuildFooterContent(helpText string) string {
	return lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(helpText)
}

// RenderApplicationContainer wraps a screen with the application header,
// a footer holding the help text, and an outer border sized to the terminal.
func RenderApplicationContainer(header, content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= 0 {
		terminalWidth = DefaultWidth
	}
	if terminalHeight <= 0 {
		terminalHeight = DefaultHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		contentStyle.Render(content),
		footerStyle.Render(BuildFooterContent(footerText)),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}

// RenderModal centers modal content over a dimmed background.
// Only the help overlay uses it.
func RenderModal(modalContent string, terminalWidth, terminalHeight int) string {
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}

// SafeModalWidth returns the smaller of requestedWidth and what fits in the
// terminal, never below 40 columns.
func SafeModalWidth(requestedWidth, terminalWidth int) int {
	maxWidth := terminalWidth - 4
	if maxWidth < 40 {
		maxWidth = 40
	}
	if requestedWidth < maxWidth {
		return requestedWidth
	}
	return maxWidth
}

// ContentWidth is the usable width inside the container, minus the
// sidebar unless compact.
func ContentWidth(terminalWidth int, compact bool) int {
	if terminalWidth <= 0 {
		terminalWidth = DefaultWidth
	}
	w := terminalWidth - 6
	if !compact {
		w -= SidebarWidth + 1
	}
	if w < 30 {
		w = 30
	}
	return w
}

// NativefierURL is the project page linked from the portable screen.
func NativefierURL() string {
	return urls.Nativefier
}
