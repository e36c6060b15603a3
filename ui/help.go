package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("evolve - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	chatActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat"),
		fmt.Sprintf("• %-13s Send message", "Enter"),
		fmt.Sprintf("• %-13s New line", "Alt+Enter"),
		fmt.Sprintf("• %-13s Insert next suggestion", "Tab"),
		fmt.Sprintf("• %-13s Enlarge latest chart", "Alt+V"),
		fmt.Sprintf("• %-13s Copy last response", "Alt+Y"),
	)

	navigation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Navigation"),
		fmt.Sprintf("• %-13s Half page down", "Alt+J"),
		fmt.Sprintf("• %-13s Half page up", "Alt+K"),
		fmt.Sprintf("• %-13s Full page down", "PgDn"),
		fmt.Sprintf("• %-13s Full page up", "PgUp"),
		fmt.Sprintf("• %-13s Close chart / help", "Esc"),
	)

	global := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global"),
		fmt.Sprintf("• %-13s Toggle this help", "Alt+H"),
		fmt.Sprintf("• %-13s Quit", "Alt+Q"),
	)

	var version string
	if a.dataModel.Version != "" {
		version = HelpStyle.Render("version " + a.dataModel.Version)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		chatActions,
		"",
		navigation,
		"",
		global,
		"",
		version,
	)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, boxStyle.Render(content))
}
