package render

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"evolve/chart"
	"evolve/config"
	"evolve/diagram"
	"evolve/model"
	"evolve/query"
)

const (
	UnsupportedPayloadText = "Unsupported chart payload"
	TablePlaceholderText   = "Table data would appear here"
	DiagramPendingText     = "Rendering diagram..."
	DiagramFailedText      = "Failed to render diagram"
)

var ErrNoVisualization = errors.New("message has no visualization")

var (
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Italic(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// DiagramRenderedMsg delivers an asynchronous diagram render. Generation
// identifies the mount it was started for.
type DiagramRenderedMsg struct {
	MessageID  string
	Generation uint64
	Output     string
	Err        error
}

type diagramState int

const (
	diagramPending diagramState = iota
	diagramReady
	diagramFailed
)

// view is the mounted visualization of one message
type view struct {
	messageID string

	// chart views
	spec     *chart.Spec
	instance *ChartInstance
	dispose  Disposer

	// diagram views
	source     string
	generation uint64
	state      diagramState
	output     string
}

func (v *view) current(p *model.Payload) bool {
	if v.spec != nil {
		return p.Chart == v.spec
	}
	return p.Chart == nil && p.Diagram == v.source
}

type modalView struct {
	messageID string
	instance  *ChartInstance
	dispose   Disposer
}

type renderedText struct {
	width int
	out   string
}

// Dispatcher maps messages to their terminal presentation and owns the
// lifetime of every chart instance and diagram render it starts.
type Dispatcher struct {
	charts   *ChartEngine
	diagrams *diagram.Engine
	markdown bool

	views   map[string]*view
	text    map[string]renderedText
	nextGen uint64
	modal   *modalView

	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(renderMarkdown bool) (*Dispatcher, error) {
	diagrams, err := diagram.NewEngine(0)
	if err != nil {
		return nil, fmt.Errorf("failed to create diagram engine: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		charts:   NewChartEngine(),
		diagrams: diagrams,
		markdown: renderMarkdown,
		views:    make(map[string]*view),
		text:     make(map[string]renderedText),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Charts exposes the engine so callers can observe live instance counts
func (d *Dispatcher) Charts() *ChartEngine {
	return d.charts
}

// Mounted reports whether a visualization view exists for messageID
func (d *Dispatcher) Mounted(messageID string) bool {
	_, ok := d.views[messageID]
	return ok
}

// Sync reconciles mounted views with the transcript: new visualizations
// are mounted, changed ones are recreated and vanished ones released.
// The returned command carries any diagram renders that were started.
func (d *Dispatcher) Sync(messages []model.Message, width int) tea.Cmd {
	present := make(map[string]bool, len(messages))
	var cmds []tea.Cmd

	for _, msg := range messages {
		present[msg.ID] = true
		if !msg.HasVisualization() {
			continue
		}

		if v, ok := d.views[msg.ID]; ok {
			if v.current(msg.Payload) {
				continue
			}
			d.unmount(v)
		}

		if cmd := d.mount(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	for id, v := range d.views {
		if !present[id] {
			d.unmount(v)
		}
	}
	for id := range d.text {
		if !present[id] {
			delete(d.text, id)
		}
	}

	return tea.Batch(cmds...)
}

func (d *Dispatcher) mount(msg model.Message) tea.Cmd {
	v := &view{messageID: msg.ID}
	d.views[msg.ID] = v

	if msg.Payload.Chart != nil {
		v.spec = msg.Payload.Chart
		v.instance, v.dispose = d.charts.Acquire(msg.Payload.Chart)
		if config.DebugLog != nil {
			config.DebugLog.Debugf("[Render] chart mounted id=%s live=%d", msg.ID, d.charts.Live())
		}
		return nil
	}

	d.nextGen++
	v.source = msg.Payload.Diagram
	v.generation = d.nextGen
	v.state = diagramPending

	ctx := d.ctx
	engine := d.diagrams
	id, gen, source := msg.ID, v.generation, v.source
	return func() tea.Msg {
		r, ok := <-engine.RenderAsync(ctx, source)
		if !ok {
			return nil
		}
		return DiagramRenderedMsg{MessageID: id, Generation: gen, Output: r.Output, Err: r.Err}
	}
}

func (d *Dispatcher) unmount(v *view) {
	if v.dispose != nil {
		v.dispose()
	}
	if d.modal != nil && d.modal.messageID == v.messageID {
		d.CloseModal()
	}
	delete(d.views, v.messageID)
	if config.DebugLog != nil {
		config.DebugLog.Debugf("[Render] view unmounted id=%s live=%d", v.messageID, d.charts.Live())
	}
}

// HandleDiagramRendered stores a finished render. Results for views that
// are gone or were recreated since are dropped; false is returned for them.
func (d *Dispatcher) HandleDiagramRendered(msg DiagramRenderedMsg) bool {
	v, ok := d.views[msg.MessageID]
	if !ok || v.spec != nil || v.generation != msg.Generation {
		return false
	}
	if msg.Err != nil {
		v.state = diagramFailed
		if config.DebugLog != nil {
			config.DebugLog.Warnf("[Render] diagram id=%s failed: %v", msg.MessageID, msg.Err)
		}
		return true
	}
	v.state = diagramReady
	v.output = msg.Output
	return true
}

// View renders one message body at the given width.
func (d *Dispatcher) View(msg model.Message, width int) string {
	var body string
	switch msg.Kind {
	case model.KindTable:
		body = placeholderStyle.Render(TablePlaceholderText)
	case model.KindChart:
		body = d.visualization(msg, width)
	default:
		body = d.textBody(msg, width)
	}

	if msg.HasSources() {
		body += "\n" + footerStyle.Render(SourceFooter(msg.Payload.Sources))
	}
	return body
}

func (d *Dispatcher) visualization(msg model.Message, width int) string {
	if !msg.HasVisualization() {
		return placeholderStyle.Render(UnsupportedPayloadText)
	}

	v, ok := d.views[msg.ID]
	if !ok {
		if msg.Payload.Chart != nil {
			return Draw(msg.Payload.Chart, width, 0)
		}
		return placeholderStyle.Render(DiagramPendingText)
	}

	if v.instance != nil {
		return v.instance.Render(width, 0)
	}

	switch v.state {
	case diagramReady:
		return diagram.Fit(v.output, width, 0)
	case diagramFailed:
		return placeholderStyle.Render(DiagramFailedText)
	}
	return placeholderStyle.Render(DiagramPendingText)
}

func (d *Dispatcher) textBody(msg model.Message, width int) string {
	if width < 1 {
		width = 1
	}
	if !d.markdown || msg.Sender != model.SenderAssistant {
		return lipgloss.NewStyle().Width(width).Render(msg.Content)
	}

	if cached, ok := d.text[msg.ID]; ok && cached.width == width {
		return cached.out
	}

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, 0)
	rendered := strings.TrimRight(string(gomarkdown.Render(p.Parse([]byte(msg.Content)), r)), "\n")

	d.text[msg.ID] = renderedText{width: width, out: rendered}
	return rendered
}

// SourceFooter summarizes citations as the page range of the first document
func SourceFooter(sources []query.SourceDocument) string {
	lo, hi := "?", "?"
	if len(sources) > 0 && len(sources[0].Pages) > 0 {
		lo = strconv.Itoa(slices.Min(sources[0].Pages))
		hi = strconv.Itoa(slices.Max(sources[0].Pages))
	}
	return "Source: Pages " + lo + "-" + hi
}

// LatestVisualization returns the id of the newest message with a mounted view
func (d *Dispatcher) LatestVisualization(messages []model.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if _, ok := d.views[messages[i].ID]; ok {
			return messages[i].ID, true
		}
	}
	return "", false
}

// OpenModal shows messageID enlarged. Charts get their own instance built
// from a modal copy of the spec; diagrams reuse the mounted render.
func (d *Dispatcher) OpenModal(messageID string) error {
	v, ok := d.views[messageID]
	if !ok {
		return ErrNoVisualization
	}
	d.CloseModal()

	m := &modalView{messageID: messageID}
	if v.spec != nil {
		m.instance, m.dispose = d.charts.Acquire(v.spec.ModalCopy())
	}
	d.modal = m
	return nil
}

func (d *Dispatcher) ModalOpen() bool {
	return d.modal != nil
}

// ModalView renders the open modal body into a width x height box
func (d *Dispatcher) ModalView(width, height int) string {
	if d.modal == nil {
		return ""
	}
	if d.modal.instance != nil {
		return d.modal.instance.Render(width, height)
	}

	v, ok := d.views[d.modal.messageID]
	if !ok {
		return ""
	}
	switch v.state {
	case diagramReady:
		return diagram.Fit(v.output, width, height)
	case diagramFailed:
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, placeholderStyle.Render(DiagramFailedText))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, placeholderStyle.Render(DiagramPendingText))
}

func (d *Dispatcher) CloseModal() {
	if d.modal == nil {
		return
	}
	if d.modal.dispose != nil {
		d.modal.dispose()
	}
	d.modal = nil
}

// Close releases every instance and abandons pending diagram renders
func (d *Dispatcher) Close() {
	d.cancel()
	d.CloseModal()
	for _, v := range d.views {
		d.unmount(v)
	}
	d.text = make(map[string]renderedText)
}
