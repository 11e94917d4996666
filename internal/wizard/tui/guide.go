package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/urls"
)

// RenderGuide renders the preparation cards two per row.
func RenderGuide(msgs *locale.Messages, width int) string {
	var b strings.Builder

	b.WriteString(RenderTitle(msgs.GuideTitle))
	b.WriteString("\n")
	b.WriteString(RenderSubtitle(msgs.GuideSubtitle))
	b.WriteString("\n\n")

	cardWidth := max((width-2)/2-2, 24)
	cards := make([]string, len(msgs.GuideCards))
	for i, c := range msgs.GuideCards {
		cards[i] = renderGuideCard(c, cardWidth)
	}
	for i := 0; i < len(cards); i += 2 {
		row := cards[i:min(i+2, len(cards))]
		if len(row) == 2 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row[0], " ", row[1]))
		} else {
			b.WriteString(row[0])
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(RenderField("ISO", urls.Windows11Download))
	b.WriteString("\n")
	b.WriteString(RenderField("TPM", urls.EnableTPM))
	b.WriteString("\n")
	b.WriteString(RenderField("Windows 11", urls.Windows11Specifications))
	return b.String()
}

func renderGuideCard(c locale.GuideCard, width int) string {
	title := c.Title
	if c.Step != "" {
		title = c.Step + "  " + title
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		SelectedMenuItemStyle.Render(title),
		ValueStyle.Render(c.Description),
	)
	return CardStyle.Width(width).Render(body)
}
