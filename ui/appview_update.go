package ui

import (
	"errors"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"evolve/config"
	appmodel "evolve/model"
	"evolve/render"
)

const flashDuration = 2 * time.Second

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		if a.state == stateChat {
			cmds = append(cmds, a.refresh(true))
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if a.state != stateLoading && !a.pending() {
			return a, nil
		}
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		if a.pending() {
			a.updateViewportContent(true)
		}
		return a, cmd

	case appmodel.DatasetLoadedMsg:
		return a.handleDatasetLoaded(msg)

	case appmodel.ResponseMsg:
		if a.dataModel.Controller == nil {
			return a, nil
		}
		a.dataModel.Controller.Apply(msg)
		a.textarea.Focus()
		a.layout()
		return a, a.refresh(true)

	case render.DiagramRenderedMsg:
		if a.dispatcher.HandleDiagramRendered(msg) {
			a.updateViewportContent(false)
		}
		return a, nil

	case appmodel.ClipboardCopiedMsg:
		if msg.Err != nil {
			a.flash = "Copy failed: " + msg.Err.Error()
		} else {
			a.flash = "Copied last response to clipboard"
		}
		return a, tea.Tick(flashDuration, func(time.Time) tea.Msg { return appmodel.FlashTickMsg{} })

	case appmodel.FlashTickMsg:
		a.flash = ""
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.state == stateChat && !a.pending() {
		a.textarea, cmd = a.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a AppView) handleDatasetLoaded(msg appmodel.DatasetLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Warnf("[AppView] dataset %q failed to load: %v", a.dataModel.DatasetID, msg.Err)
		}
		a.state = stateDatasetError
		a.datasetErr = msg.Err
		a.datasetSuggestions = msg.Suggestions
		return a, nil
	}

	a.dataModel.StartChat(msg.Dataset)
	a.state = stateChat
	a.datasetErr = nil
	a.datasetSuggestions = nil
	a.suggestionIdx = 0
	a.textarea.Reset()
	a.textarea.Focus()
	a.layout()
	return a, a.refresh(true)
}

// refresh mounts or releases visualizations for the transcript and redraws it
func (a *AppView) refresh(gotoBottom bool) tea.Cmd {
	cmd := a.dispatcher.Sync(a.messages(), a.contentWidth())
	a.updateViewportContent(gotoBottom)
	return cmd
}

func (a AppView) quit() (tea.Model, tea.Cmd) {
	a.Close()
	a.dataModel.Quitting = true
	return a, tea.Quit
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "alt+q", "ctrl+c":
		return a.quit()
	case "alt+h":
		a.showHelp = !a.showHelp
		return a, nil
	}

	if a.showHelp {
		if msg.String() == "esc" {
			a.showHelp = false
		}
		return a, nil
	}

	switch a.state {
	case stateLoading:
		return a, nil
	case stateDatasetError:
		return a.handleDatasetErrorKey(msg)
	}

	if a.dispatcher.ModalOpen() {
		if msg.String() == "esc" {
			a.dispatcher.CloseModal()
		}
		return a, nil
	}

	return a.handleChatKey(msg)
}

func (a AppView) handleDatasetErrorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "r":
		a.state = stateLoading
		return a, tea.Batch(a.loadingSpinner.Tick, a.dataModel.LoadDataset())
	case "1", "2", "3":
		idx := int(key[0] - '1')
		if idx < len(a.datasetSuggestions) {
			a.dataModel.DatasetID = a.datasetSuggestions[idx]
			a.state = stateLoading
			return a, tea.Batch(a.loadingSpinner.Tick, a.dataModel.LoadDataset())
		}
	}
	return a, nil
}

func (a AppView) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if a.pending() {
			return a, nil
		}
		cmd, err := a.dataModel.Controller.Submit(a.textarea.Value())
		if err != nil {
			if config.DebugLog != nil && !errors.Is(err, appmodel.ErrEmptyUtterance) {
				config.DebugLog.Debugf("[AppView] submit rejected: %v", err)
			}
			return a, nil
		}
		a.textarea.Reset()
		a.textarea.Blur()
		a.layout()
		return a, tea.Batch(cmd, a.loadingSpinner.Tick, a.refresh(true))

	case "tab":
		if a.pending() || !a.showSuggestions() {
			return a, nil
		}
		a.textarea.SetValue(PromptSuggestions[a.suggestionIdx%len(PromptSuggestions)])
		a.suggestionIdx++
		a.textarea.Focus()
		return a, nil

	case "alt+v":
		if id, ok := a.dispatcher.LatestVisualization(a.messages()); ok {
			if err := a.dispatcher.OpenModal(id); err != nil && config.DebugLog != nil {
				config.DebugLog.Warnf("[AppView] open modal: %v", err)
			}
		}
		return a, nil

	case "alt+y":
		return a, a.copyLastResponse()

	case "alt+j", "alt+down":
		a.viewport.HalfViewDown()
		return a, nil

	case "alt+k", "alt+up":
		a.viewport.HalfViewUp()
		return a, nil

	case "pgdown":
		a.viewport.ViewDown()
		return a, nil

	case "pgup":
		a.viewport.ViewUp()
		return a, nil
	}

	if a.pending() {
		return a, nil
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// copyLastResponse copies the newest assistant message
func (a AppView) copyLastResponse() tea.Cmd {
	msgs := a.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == appmodel.SenderAssistant {
			content := msgs[i].Content
			return func() tea.Msg {
				return appmodel.ClipboardCopiedMsg{Err: clipboard.WriteAll(content)}
			}
		}
	}
	return nil
}
