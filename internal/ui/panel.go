package ui

import (
	"strings"
)

// Panel is a titled box of text lines: a guide card, a transcript or a
// list of discovered consoles.
type Panel struct {
	Title    string   // e.g., "1. ISO Officielle"
	Lines    []string // Body lines, rendered as given
	Width    int      // Terminal width
	MaxLines int      // Maximum lines to display (0 = unlimited)
}

// NewPanel creates a panel from a block of text
func NewPanel(title, content string) *Panel {
	return &Panel{
		Title: title,
		Lines: strings.Split(strings.TrimRight(content, "\n"), "\n"),
		Width: GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (p *Panel) SetWidth(width int) *Panel {
	p.Width = width
	return p
}

// SetMaxLines keeps only the last max lines
func (p *Panel) SetMaxLines(max int) *Panel {
	p.MaxLines = max
	return p
}

// AddLine appends a body line
func (p *Panel) AddLine(line string) *Panel {
	p.Lines = append(p.Lines, line)
	return p
}

// Render returns the styled panel as a string
func (p *Panel) Render() string {
	width := p.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := p.Lines
	if p.MaxLines > 0 && len(lines) > p.MaxLines {
		lines = append([]string{StepNoteStyle.Render("…")}, lines[len(lines)-p.MaxLines:]...)
	}

	body := PanelContentStyle.Width(width - 8).Render(strings.Join(lines, "\n"))
	content := body
	if p.Title != "" {
		content = PanelTitleStyle.Render(p.Title) + "\n" + body
	}
	return PanelBoxStyle(width).Render(content)
}

// String implements fmt.Stringer
func (p *Panel) String() string {
	return p.Render()
}
