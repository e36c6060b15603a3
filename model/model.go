package model

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"evolve/config"
	"evolve/storage"
)

// Model holds the core application data and business logic state
type Model struct {
	// Core dependencies
	Config  *config.Config
	Catalog *storage.Catalog
	Querier Querier
	Matcher *Matcher

	// Application data
	DatasetID  string
	Dataset    *storage.Dataset
	Controller *Controller

	// Runtime state (not UI)
	Quitting bool

	// Application metadata
	Version string
}

// NewModel creates a new Model for the given dataset id
func NewModel(cfg *config.Config, catalog *storage.Catalog, querier Querier, datasetID, version string) *Model {
	if datasetID == "" {
		datasetID = cfg.DefaultDataset
	}
	return &Model{
		Config:    cfg,
		Catalog:   catalog,
		Querier:   querier,
		Matcher:   NewMatcher(DefaultRules()),
		DatasetID: datasetID,
		Version:   version,
	}
}

// LoadDataset looks up the dataset in the catalog
func (m *Model) LoadDataset() tea.Cmd {
	catalog := m.Catalog
	id := m.DatasetID
	return func() tea.Msg {
		if catalog == nil {
			return DatasetLoadedMsg{Err: errors.New("dataset catalog unavailable")}
		}
		ds, err := catalog.Get(id)
		if err != nil {
			var suggestions []string
			if errors.Is(err, storage.ErrDatasetNotFound) {
				suggestions = catalog.Suggest(id)
			}
			return DatasetLoadedMsg{Err: err, Suggestions: suggestions}
		}
		return DatasetLoadedMsg{Dataset: ds}
	}
}

// StartChat mounts a fresh session over ds. Any previous session is closed.
func (m *Model) StartChat(ds *storage.Dataset) *Controller {
	m.EndChat()
	m.Dataset = ds
	m.DatasetID = ds.ID
	session := NewSession(ds.ID, time.Now())
	m.Controller = NewController(session, m.Matcher, m.Querier, m.Config.CannedDelay)

	if config.DebugLog != nil {
		config.DebugLog.Debugf("[Model] chat mounted dataset=%s session=%s", ds.ID, session.ID())
	}
	return m.Controller
}

// EndChat unmounts the current session, if any
func (m *Model) EndChat() {
	if m.Controller == nil {
		return
	}
	if config.DebugLog != nil {
		config.DebugLog.Debugf("[Model] chat unmounted session=%s", m.Controller.Session().ID())
	}
	m.Controller.Close()
	m.Controller = nil
}
