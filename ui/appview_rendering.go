package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	appmodel "evolve/model"
)

// contentWidth leaves room for the user bar and a right margin
func (a AppView) contentWidth() int {
	return max(a.width-4, 20)
}

func (a *AppView) updateViewportContent(gotoBottom bool) {
	msgs := a.messages()
	if len(msgs) == 0 {
		a.viewport.SetContent("No messages yet. Start chatting!")
		return
	}

	width := a.contentWidth()
	var content strings.Builder

	for _, msg := range msgs {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))
		body := a.dispatcher.View(msg, width)

		if msg.Sender == appmodel.SenderUser {
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), body))
			continue
		}

		content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), body))
	}

	// Typing indicator while the reply is being resolved
	if a.pending() {
		timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
		content.WriteString(fmt.Sprintf("%s %s\n%s %s\n\n", timestamp, AssistantStyle.Render("Assistant"),
			a.loadingSpinner.View(), DimStyle.Render("Analyzing...")))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

// renderSuggestions lays the prompt chips out in as many rows as the width needs
func (a AppView) renderSuggestions() string {
	header := DimStyle.Render("Try asking about:")
	maxWidth := max(a.width, 20)

	var rows []string
	var row []string
	rowWidth := 0
	for i, s := range PromptSuggestions {
		style := ChipStyle
		if i == a.suggestionIdx%len(PromptSuggestions) {
			style = style.BorderForeground(accentColor)
		}
		chip := style.Render(s)
		w := lipgloss.Width(chip)
		if rowWidth > 0 && rowWidth+1+w > maxWidth {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		if rowWidth > 0 {
			row = append(row, " ")
			rowWidth++
		}
		row = append(row, chip)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, rows...)...)
}
