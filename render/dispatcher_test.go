package render

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"evolve/chart"
	"evolve/model"
	"evolve/query"
)

func barSpec() *chart.Spec {
	return &chart.Spec{
		Type: chart.TypeBar,
		Data: chart.Data{
			Labels:   chart.LabelList{"Food Delivery", "Quick Commerce"},
			Datasets: []chart.Dataset{{Label: "FY24", Data: []float64{7792, 2301}}},
		},
	}
}

const boardSource = "flowchart TD\nA[Board] --> B[CEO]\nA --> C[Director]"

func chartMessage(id string, spec *chart.Spec) model.Message {
	return model.Message{ID: id, Kind: model.KindChart, Sender: model.SenderAssistant, Content: "Chart",
		Timestamp: time.Now(), Payload: &model.Payload{Chart: spec}}
}

func diagramMessage(id, source string) model.Message {
	return model.Message{ID: id, Kind: model.KindChart, Sender: model.SenderAssistant, Content: "Diagram",
		Timestamp: time.Now(), Payload: &model.Payload{Diagram: source}}
}

// collect runs cmd and flattens any batch into its messages
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func firstDiagramMsg(t *testing.T, cmd tea.Cmd) DiagramRenderedMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if r, ok := msg.(DiagramRenderedMsg); ok {
			return r
		}
	}
	t.Fatal("command did not yield DiagramRenderedMsg")
	return DiagramRenderedMsg{}
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(false)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestSyncMountsAndReleases(t *testing.T) {
	d := newTestDispatcher(t)

	msgs := []model.Message{
		{ID: "welcome", Kind: model.KindText, Content: "hi"},
		chartMessage("c1", barSpec()),
		chartMessage("c2", barSpec()),
	}
	d.Sync(msgs, 80)
	if got := d.Charts().Live(); got != 2 {
		t.Fatalf("live after mount: got %d, want 2", got)
	}

	d.Sync(msgs, 80)
	if got := d.Charts().Live(); got != 2 {
		t.Errorf("resync must not acquire again: got %d", got)
	}

	d.Sync(msgs[:2], 80)
	if got := d.Charts().Live(); got != 1 {
		t.Errorf("live after removal: got %d, want 1", got)
	}
	if d.Mounted("c2") {
		t.Error("c2 should be unmounted")
	}

	d.Close()
	if got := d.Charts().Live(); got != 0 {
		t.Errorf("live after close: got %d, want 0", got)
	}
}

func TestSyncRecreatesOnSpecChange(t *testing.T) {
	d := newTestDispatcher(t)
	defer d.Close()

	first := barSpec()
	d.Sync([]model.Message{chartMessage("c1", first)}, 80)
	old := d.views["c1"].instance

	second := barSpec()
	second.Data.Datasets[0].Data = []float64{1, 2}
	d.Sync([]model.Message{chartMessage("c1", second)}, 80)

	if !old.Disposed() {
		t.Error("previous instance should be disposed")
	}
	if d.views["c1"].instance == old {
		t.Error("expected a new instance")
	}
	if got := d.Charts().Live(); got != 1 {
		t.Errorf("live: got %d, want 1", got)
	}
}

func TestDiagramRenderAndStaleResult(t *testing.T) {
	d := newTestDispatcher(t)
	defer d.Close()

	msg := diagramMessage("m1", boardSource)
	cmd := d.Sync([]model.Message{msg}, 80)
	if cmd == nil {
		t.Fatal("expected a render command")
	}

	if got := d.View(msg, 80); !strings.Contains(got, DiagramPendingText) {
		t.Errorf("before render: got %q", got)
	}

	rendered := firstDiagramMsg(t, cmd)

	stale := rendered
	stale.Generation = rendered.Generation + 100
	if d.HandleDiagramRendered(stale) {
		t.Error("stale generation should be ignored")
	}

	if !d.HandleDiagramRendered(rendered) {
		t.Fatal("current render should be accepted")
	}
	out := d.View(msg, 80)
	if !strings.Contains(out, "CEO") || !strings.Contains(out, "Director") {
		t.Errorf("diagram output missing nodes:\n%s", out)
	}

	d.Sync(nil, 80)
	if d.HandleDiagramRendered(rendered) {
		t.Error("result for unmounted view should be ignored")
	}
}

func TestDiagramFailure(t *testing.T) {
	d := newTestDispatcher(t)
	defer d.Close()

	msg := diagramMessage("m1", "sequenceDiagram\nA->>B: hi")
	cmd := d.Sync([]model.Message{msg}, 80)
	d.HandleDiagramRendered(firstDiagramMsg(t, cmd))

	if got := d.View(msg, 80); !strings.Contains(got, DiagramFailedText) {
		t.Errorf("got %q", got)
	}
}

func TestViewPlaceholders(t *testing.T) {
	d := newTestDispatcher(t)
	defer d.Close()

	tests := []struct {
		name string
		msg  model.Message
		want string
	}{
		{"table", model.Message{ID: "t", Kind: model.KindTable}, TablePlaceholderText},
		{"chart without payload", model.Message{ID: "c", Kind: model.KindChart, Content: "Chart"}, UnsupportedPayloadText},
		{"text verbatim", model.Message{ID: "x", Kind: model.KindText, Content: "plain words"}, "plain words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.View(tt.msg, 60); !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSourceFooter(t *testing.T) {
	tests := []struct {
		name    string
		sources []query.SourceDocument
		want    string
	}{
		{"range", []query.SourceDocument{{Pages: []int{12, 4, 9}}}, "Source: Pages 4-12"},
		{"no pages", []query.SourceDocument{{Title: "Annual report"}}, "Source: Pages ?-?"},
		{"first document only", []query.SourceDocument{{Pages: []int{2}}, {Pages: []int{50}}}, "Source: Pages 2-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceFooter(tt.sources); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModalUsesIndependentInstance(t *testing.T) {
	d := newTestDispatcher(t)

	spec := barSpec()
	d.Sync([]model.Message{chartMessage("c1", spec)}, 80)

	if err := d.OpenModal("missing"); err != ErrNoVisualization {
		t.Errorf("unknown id: got %v", err)
	}
	if err := d.OpenModal("c1"); err != nil {
		t.Fatalf("OpenModal: %v", err)
	}
	if got := d.Charts().Live(); got != 2 {
		t.Errorf("live with modal: got %d, want 2", got)
	}

	modalSpec := d.modal.instance.Spec()
	if modalSpec == spec || modalSpec.Options.MaintainAspectRatio == nil || *modalSpec.Options.MaintainAspectRatio {
		t.Error("modal should use a copy with maintainAspectRatio=false")
	}
	if !modalSpec.Options.Responsive {
		t.Error("modal copy should be responsive")
	}
	if out := d.ModalView(100, 30); !strings.Contains(out, "Food Delivery") {
		t.Errorf("modal view missing labels:\n%s", out)
	}

	d.CloseModal()
	if got := d.Charts().Live(); got != 1 {
		t.Errorf("live after modal close: got %d, want 1", got)
	}

	d.OpenModal("c1")
	d.Close()
	if got := d.Charts().Live(); got != 0 {
		t.Errorf("live after close: got %d, want 0", got)
	}
}

func TestDisposerIsIdempotent(t *testing.T) {
	e := NewChartEngine()
	_, dispose := e.Acquire(barSpec())
	dispose()
	dispose()
	if got := e.Live(); got != 0 {
		t.Errorf("live: got %d", got)
	}
}
