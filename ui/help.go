package ui

import (
	"github.com/charmbracelet/lipgloss"
)

func renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("Mentis - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	globalActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global Actions"),
		"• Alt+N         New chat",
		"• Alt+S         Session Manager",
		"• Alt+M         Model selection",
		"• Alt+P         Tool Servers",
		"• Alt+C         Model Providers",
		"• Alt+H         Toggle this help",
		"• Alt+Q         Quit",
	)

	chatActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat Actions"),
		"• Enter         Send message",
		"• Alt+Enter     Insert newline",
		"• Alt+A         Attach an image",
		"• Alt+T         Expand/collapse thoughts",
		"• Alt+Y         Copy last response",
		"• Esc           Cancel active response",
		"• PgUp/PgDn     Scroll history",
	)

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Tips"),
		"• Sends during a response are queued, not lost",
		"• Messages auto-save to the current session",
		"• 🔧 marks models with tool support",
	)

	column1 := lipgloss.JoinVertical(lipgloss.Left, globalActions, "", tips)
	column2 := lipgloss.JoinVertical(lipgloss.Left, chatActions)

	columnStyle := lipgloss.NewStyle().Width(46).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		"    ",
		columnStyle.Render(column2),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render("      Press Alt+H or Esc to close this help")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2).
		Width(100)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
