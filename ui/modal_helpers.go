package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ModalType determines the color and styling of a modal
type ModalType int

const (
	ModalTypeInfo ModalType = iota
	ModalTypeWarning
	ModalTypeError
)

func (t ModalType) color() lipgloss.Color {
	switch t {
	case ModalTypeWarning:
		return warningColor
	case ModalTypeError:
		return dangerColor
	}
	return accentColor
}

// modalWidthFor clamps a preferred modal width to the terminal
func modalWidthFor(preferred, width int) int {
	if width < preferred+10 {
		return max(width-10, 10)
	}
	return preferred
}

// renderSections lays out the borderless three-section modal: a colored
// title, a centered message block and a dim footer, each divided by a rule.
func renderSections(title string, modalType ModalType, message, footer string, modalWidth, width, height int) string {
	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(modalType.color()).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(title)

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	messageLines := []string{strings.Repeat(" ", modalWidth)}
	for _, line := range strings.Split(message, "\n") {
		messageLines = append(messageLines, messageStyle.Render(line))
	}
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

	messageSection := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(strings.Join(messageLines, "\n"))

	footerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	content := strings.Join([]string{titleSection, messageSection, footerSection}, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// RenderAcknowledgeModal renders a modal that requires only acknowledgement (Enter to dismiss)
func RenderAcknowledgeModal(title, message string, modalType ModalType, width, height int) string {
	return renderSections(title, modalType, message, "Press Enter to acknowledge", modalWidthFor(60, width), width, height)
}

// RenderDatasetErrorModal is the missing-data screen: the lookup error,
// numbered "did you mean" entries and the retry footer.
func RenderDatasetErrorModal(datasetID string, err error, suggestions []string, width, height int) string {
	message := "The requested dataset could not be found."
	if err != nil {
		message = err.Error()
	}

	if len(suggestions) > 0 {
		var sb strings.Builder
		sb.WriteString(message)
		sb.WriteString("\n\nDid you mean:")
		for i, s := range suggestions {
			sb.WriteString("\n")
			sb.WriteString(SelectedStyle.Render(string(rune('1'+i))) + " " + s)
		}
		message = sb.String()
	}

	footer := FormatFooter("r", "Retry", "Alt+Q", "Quit")
	if len(suggestions) > 0 {
		footer = FormatFooter("1-"+string(rune('0'+len(suggestions))), "Open", "r", "Retry", "Alt+Q", "Quit")
	}

	title := "Dataset Not Found"
	if datasetID != "" {
		title += ": " + datasetID
	}
	return renderSections(title, ModalTypeError, message, footer, modalWidthFor(60, width), width, height)
}

// renderSpinner renders a simple one-line spinner modal (no borders)
func renderSpinner(message, spinnerView string, width, height int) string {
	content := spinnerView + " " + message
	paddedContent := lipgloss.NewStyle().
		Width(modalWidthFor(40, width)).
		Align(lipgloss.Center).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, paddedContent)
}

// renderVisualizationModal frames an enlarged chart or diagram
func renderVisualizationModal(body string, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1)

	footer := HelpStyle.Render(FormatFooter("Esc", "Close", "Alt+Q", "Quit"))
	content := lipgloss.JoinVertical(lipgloss.Center, box.Render(body), footer)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// modalBodySize is the space left for the visualization inside the modal frame
func modalBodySize(width, height int) (int, int) {
	// border (2) + padding (2) horizontally; border (2) + footer (1) vertically
	return max(width-8, 10), max(height-5, 3)
}
