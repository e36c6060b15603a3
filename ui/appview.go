package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"evolve/config"
	appmodel "evolve/model"
	"evolve/render"
)

type viewState int

const (
	stateLoading viewState = iota
	stateDatasetError
	stateChat
)

// PromptSuggestions are offered while the conversation holds only the greeting
var PromptSuggestions = []string{
	"What are the key trends in this dataset?",
	"Show me the top performing metrics",
	"What patterns do you see in the data?",
	"Generate a summary report",
	"What insights can you provide?",
	"Compare performance across different categories",
}

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// Visualization lifetimes for the mounted chat
	dispatcher *render.Dispatcher

	// UI Components
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	state viewState

	// Dataset error state
	datasetErr         error
	datasetSuggestions []string

	// Index of the next prompt suggestion Tab will insert
	suggestionIdx int

	showHelp bool
	flash    string
}

func NewAppView(dataModel *appmodel.Model) (AppView, error) {
	dispatcher, err := render.NewDispatcher(dataModel.Config.RenderMarkdown)
	if err != nil {
		return AppView{}, fmt.Errorf("failed to create render dispatcher: %w", err)
	}

	ta := textarea.New()
	ta.Placeholder = "Ask me anything about your dataset..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone sends (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	return AppView{
		dataModel:      dataModel,
		dispatcher:     dispatcher,
		textarea:       ta,
		viewport:       viewport.New(0, 0),
		loadingSpinner: sp,
		state:          stateLoading,
	}, nil
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.loadingSpinner.Tick,
		a.dataModel.LoadDataset(),
	)
}

// Close unmounts the chat: pending replies are abandoned and every chart
// instance is released. Safe to call more than once.
func (a AppView) Close() {
	a.dispatcher.Close()
	a.dataModel.EndChat()
}

func (a AppView) pending() bool {
	return a.dataModel.Controller != nil && a.dataModel.Controller.Pending()
}

func (a AppView) messages() []appmodel.Message {
	if a.dataModel.Controller == nil {
		return nil
	}
	return a.dataModel.Controller.Session().Messages()
}

func (a AppView) showSuggestions() bool {
	return a.state == stateChat && len(a.messages()) <= 1
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading evolve..."
	}

	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	switch a.state {
	case stateLoading:
		return renderSpinner("Loading dataset...", a.loadingSpinner.View(), a.width, a.height)
	case stateDatasetError:
		return RenderDatasetErrorModal(a.dataModel.DatasetID, a.datasetErr, a.datasetSuggestions, a.width, a.height)
	}

	if a.dispatcher.ModalOpen() {
		w, h := modalBodySize(a.width, a.height)
		return renderVisualizationModal(a.dispatcher.ModalView(w, h), a.width, a.height)
	}

	title := TitleStyle.Render("evolve")
	if ds := a.dataModel.Dataset; ds != nil {
		title += DimStyle.Render(" | ") + TitleStyle.Render(ds.Title())
		if ds.Description != "" {
			title += DimStyle.Render(" - " + ds.Description)
		}
	}
	if a.pending() {
		title += DimStyle.Render(" | ") + a.loadingSpinner.View()
	}

	parts := []string{title, "", a.viewport.View()}
	if a.showSuggestions() {
		parts = append(parts, a.renderSuggestions())
	}
	parts = append(parts, a.textarea.View(), a.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a AppView) renderStatusBar() string {
	if a.flash != "" {
		return StatusStyle.Render(a.flash)
	}

	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("Alt+Q %s  Enter %s  Alt+Enter %s  Tab %s  Alt+V %s  Alt+Y %s  Alt+H %s",
		descStyle.Render("Quit"),
		descStyle.Render("Send"),
		descStyle.Render("New Line"),
		descStyle.Render("Suggest"),
		descStyle.Render("Enlarge chart"),
		descStyle.Render("Copy"),
		descStyle.Render("Help"),
	)
	return StatusStyle.Render(statusBar)
}

// layout sizes the viewport to whatever the fixed rows leave over
func (a *AppView) layout() {
	// title (1) + separator (1) + textarea (3) + status bar (1)
	reserved := 6
	if a.showSuggestions() {
		reserved += lipgloss.Height(a.renderSuggestions())
	}
	a.viewport.Width = a.width
	a.viewport.Height = max(a.height-reserved, 1)
	a.textarea.SetWidth(a.width)

	if config.DebugLog != nil {
		config.DebugLog.Debugf("[AppView] layout %dx%d viewport=%d", a.width, a.height, a.viewport.Height)
	}
}
