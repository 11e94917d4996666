package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// affirmative answers accepted by the erase prompt, in every UI language
var affirmative = map[string]bool{
	"y": true, "yes": true,
	"o": true, "oui": true,
}

// Confirmer prints a warning box and reads a yes/no answer. It satisfies
// the provisioning confirmer interface.
type Confirmer struct {
	In       io.Reader
	Out      io.Writer
	Title    string   // Box title, e.g. "ERASE"
	Warnings []string // Bullet points under the prompt
	Hint     string   // Answer hint, e.g. "[y/N]"
	Width    int
}

// NewConfirmer creates a confirmer reading from in and writing to out
func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{
		In:    in,
		Out:   out,
		Title: "ERASE",
		Hint:  "[y/N]",
		Width: GetTerminalWidth(),
	}
}

// Confirm shows prompt and reports whether the user answered yes.
// Anything else, including EOF, is a refusal.
func (c *Confirmer) Confirm(prompt string) bool {
	width := c.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := []string{
		"",
		lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, c.Title)),
		"",
		lipgloss.NewStyle().Foreground(TextColor).Width(width - 12).PaddingLeft(3).Render(prompt),
		"",
	}
	for _, w := range c.Warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(MutedColor).Render("   • "+w))
	}
	if len(c.Warnings) > 0 {
		lines = append(lines, "")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	_, _ = fmt.Fprintln(c.Out, box)
	_, _ = fmt.Fprint(c.Out, lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render(c.Hint+" "))

	input, err := bufio.NewReader(c.In).ReadString('\n')
	_, _ = fmt.Fprintln(c.Out)
	if err != nil && input == "" {
		return false
	}
	return affirmative[strings.ToLower(strings.TrimSpace(input))]
}
