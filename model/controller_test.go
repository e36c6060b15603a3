package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"evolve/chart"
	"evolve/query"
)

type fakeQuerier struct {
	resp  *query.Response
	err   error
	calls int
}

func (f *fakeQuerier) Query(ctx context.Context, utterance string) (*query.Response, error) {
	f.calls++
	return f.resp, f.err
}

func newTestController(q Querier, delay time.Duration) *Controller {
	return NewController(NewSession("zomato", time.Now()), nil, q, delay)
}

func run(t *testing.T, c *Controller, utterance string) ResponseMsg {
	t.Helper()
	cmd, err := c.Submit(utterance)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	msg, ok := cmd().(ResponseMsg)
	if !ok {
		t.Fatalf("command did not return ResponseMsg")
	}
	c.Apply(msg)
	return msg
}

func TestShareholdingScenario(t *testing.T) {
	q := &fakeQuerier{}
	c := newTestController(q, 0)
	defer c.Close()

	msg := run(t, c, "Show me a pie chart of Zomato's shareholding for FY 2024-25")

	if q.calls != 0 {
		t.Errorf("canned scenario must not call the service, got %d calls", q.calls)
	}
	if msg.Intent != IntentShareholdingPie {
		t.Errorf("intent: got %s", msg.Intent)
	}

	msgs := c.Session().Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[1].Sender != SenderUser {
		t.Errorf("second message should be the user's")
	}

	text, viz := msgs[2], msgs[3]
	if text.Kind != KindText || !strings.Contains(text.Content, "94.02%") {
		t.Errorf("narrative: %+v", text)
	}
	if !viz.HasVisualization() || viz.Payload.Chart == nil {
		t.Fatalf("expected chart payload")
	}
	spec := viz.Payload.Chart
	if spec.TitleText() != "Zomato Shareholding Pattern as of March 31, 2025" {
		t.Errorf("title: got %q", spec.TitleText())
	}
	want := []float64{67.92, 26.1, 5.98}
	for i, v := range want {
		if spec.Data.Datasets[0].Data[i] != v {
			t.Errorf("value %d: got %v want %v", i, spec.Data.Datasets[0].Data[i], v)
		}
	}
	if c.Pending() {
		t.Error("pending should be cleared")
	}
}

func TestSalesComparisonScenario(t *testing.T) {
	q := &fakeQuerier{}
	c := newTestController(q, 0)
	defer c.Close()

	msg := run(t, c, "Compare the sales data of FY23 and FY24")

	if q.calls != 0 {
		t.Errorf("canned scenario must not call the service, got %d calls", q.calls)
	}
	if msg.Intent != IntentSalesComparison {
		t.Fatalf("intent: got %s", msg.Intent)
	}
	if len(msg.Messages) != 2 {
		t.Fatalf("expected text then chart, got %d messages", len(msg.Messages))
	}

	text, viz := msg.Messages[0], msg.Messages[1]
	if text.Kind != KindText || !strings.Contains(text.Content, "13,545 crore") {
		t.Errorf("narrative: %+v", text)
	}
	if viz.Kind != KindChart || viz.Payload == nil || viz.Payload.Chart == nil {
		t.Fatalf("expected chart payload, got %+v", viz)
	}
	spec := viz.Payload.Chart
	if spec.Type != chart.TypeBar {
		t.Errorf("type: got %q, want bar", spec.Type)
	}
	if len(spec.Data.Datasets) != 2 {
		t.Fatalf("datasets: got %d, want 2", len(spec.Data.Datasets))
	}
	for i, ds := range spec.Data.Datasets {
		if len(ds.Data) != len(spec.Data.Labels) {
			t.Errorf("dataset %d: %d values for %d labels", i, len(ds.Data), len(spec.Data.Labels))
		}
	}
	if got := spec.AxisTitle("y"); got != "Adjusted Revenue (INR crore)" {
		t.Errorf("y axis: got %q", got)
	}
	if err := spec.Validate(); err != nil {
		t.Errorf("canned spec invalid: %v", err)
	}
	if got := c.Session().Len(); got != 4 {
		t.Errorf("transcript length: got %d, want 4", got)
	}
}

func TestCannedScenarioWaitsForDelay(t *testing.T) {
	c := newTestController(nil, 30*time.Millisecond)
	defer c.Close()

	start := time.Now()
	msg := run(t, c, "what does the board hierarchy of zomato look like")
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("reply arrived after %v, before the delay", elapsed)
	}
	if msg.Intent != IntentBoardHierarchy {
		t.Fatalf("intent: got %s", msg.Intent)
	}
	if len(msg.Messages) != 2 || msg.Messages[1].Payload.Diagram == "" {
		t.Errorf("expected narrative and diagram, got %+v", msg.Messages)
	}
}

func TestLiveQueryBody(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":[
			{"message":"Hi there."},
			{"chart":"const config = {\"type\":\"bar\",\"data\":{\"labels\":[\"a\"],\"datasets\":[{\"data\":[1]}]}};"},
			{"metadata":{"source_documents":[{"pages":[3,7]}]}}
		]}`))
	}))
	defer srv.Close()

	client, err := query.NewClient(srv.URL, "in the context of Zomato", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	c := newTestController(client, 0)
	defer c.Close()

	msg := run(t, c, "hello")

	if body["query"] != "hello in the context of Zomato" {
		t.Errorf("body: got %q", body["query"])
	}
	if msg.Intent != IntentUnmatched || msg.Err != nil {
		t.Fatalf("unexpected reply: %+v", msg)
	}
	if len(msg.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msg.Messages))
	}
	if !msg.Messages[0].HasSources() {
		t.Error("narrative should carry sources")
	}
	if msg.Messages[1].Content != "Chart" || msg.Messages[1].Payload == nil {
		t.Errorf("chart message: %+v", msg.Messages[1])
	}
}

func TestLiveQueryFailures(t *testing.T) {
	tests := []struct {
		name string
		q    *fakeQuerier
		want string
	}{
		{"status error", &fakeQuerier{err: &query.StatusError{Code: 500}}, ErrorReplyText},
		{"transport error", &fakeQuerier{err: query.ErrTransport}, ConnectionReplyText},
		{"missing response", &fakeQuerier{resp: &query.Response{}}, ErrorReplyText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(tt.q, 0)
			defer c.Close()

			msg := run(t, c, "how many orders last week")
			if msg.Err == nil {
				t.Error("expected error on reply")
			}
			last, _ := c.Session().Last()
			if last.Content != tt.want {
				t.Errorf("got %q, want %q", last.Content, tt.want)
			}
			if c.Pending() {
				t.Error("pending should be cleared after failure")
			}
		})
	}
}

func TestLiveQueryEmptyResponse(t *testing.T) {
	c := newTestController(&fakeQuerier{resp: &query.Response{Response: []query.Item{}}}, 0)
	defer c.Close()

	msg := run(t, c, "anything")
	if msg.Err != nil || len(msg.Messages) != 0 {
		t.Errorf("empty array should append nothing: %+v", msg)
	}
	if c.Session().Len() != 2 {
		t.Errorf("transcript length: got %d", c.Session().Len())
	}
}

func TestMalformedChartKeepsMessage(t *testing.T) {
	q := &fakeQuerier{resp: &query.Response{Response: []query.Item{
		{Chart: "config = window.alert(1)"},
		{Mermaid: "flowchart TD\nA-->B"},
	}}}
	c := newTestController(q, 0)
	defer c.Close()

	msg := run(t, c, "draw something")
	if len(msg.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msg.Messages))
	}
	if msg.Messages[0].Payload != nil {
		t.Error("malformed chart should have no payload")
	}
	if msg.Messages[0].Kind != KindChart {
		t.Errorf("kind: got %s", msg.Messages[0].Kind)
	}
	if msg.Messages[1].Content != "Diagram" || msg.Messages[1].Payload.Diagram == "" {
		t.Errorf("diagram message: %+v", msg.Messages[1])
	}
}

func TestSubmitGuards(t *testing.T) {
	c := newTestController(&fakeQuerier{resp: &query.Response{Response: []query.Item{}}}, 0)
	defer c.Close()

	if _, err := c.Submit("   "); !errors.Is(err, ErrEmptyUtterance) {
		t.Errorf("blank: got %v", err)
	}

	cmd, err := c.Submit("first")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Submit("second"); !errors.Is(err, ErrPending) {
		t.Errorf("second submit: got %v", err)
	}
	if c.Session().Len() != 2 {
		t.Errorf("rejected submit must not append, len=%d", c.Session().Len())
	}

	c.Apply(cmd().(ResponseMsg))
	if _, err := c.Submit("third"); err != nil {
		t.Errorf("submit after apply: %v", err)
	}
}

func TestSubmitTrimsInput(t *testing.T) {
	c := newTestController(&fakeQuerier{resp: &query.Response{Response: []query.Item{}}}, 0)
	defer c.Close()

	run(t, c, "  revenue?  ")
	msgs := c.Session().Messages()
	if msgs[1].Content != "revenue?" {
		t.Errorf("got %q", msgs[1].Content)
	}
}

func TestClassifyIsPure(t *testing.T) {
	m := NewMatcher(DefaultRules())
	tests := []struct {
		utterance string
		want      Intent
	}{
		{"pie chart of ZOMATO shareholding 2024", IntentShareholdingPie},
		{"compare sales data for FY23 and FY24", IntentSalesComparison},
		{"Zomato board hierarchy", IntentBoardHierarchy},
		{"pie chart of paytm 2024", IntentUnmatched},
		{"", IntentUnmatched},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			first := m.Classify(tt.utterance)
			second := m.Classify(tt.utterance)
			if first != tt.want || second != first {
				t.Errorf("Classify(%q) = %s, %s; want %s", tt.utterance, first, second, tt.want)
			}
		})
	}
}

func TestPanicStillClearsPending(t *testing.T) {
	rules := []Rule{{
		Intent:  IntentShareholdingPie,
		Require: [][]string{{"boom"}},
		Produce: func(time.Time) []Message { panic("fixture exploded") },
	}}
	c := NewController(NewSession("zomato", time.Now()), NewMatcher(rules), nil, 0)
	defer c.Close()

	msg := run(t, c, "boom")
	if msg.Err == nil {
		t.Fatal("expected recovered error")
	}
	if c.Pending() {
		t.Error("pending should be cleared")
	}
	last, _ := c.Session().Last()
	if last.Content != ErrorReplyText {
		t.Errorf("got %q", last.Content)
	}
}

func TestCloseDropsLateReply(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := newTestController(nil, time.Hour)
	cmd, err := c.Submit("zomato board hierarchy")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan ResponseMsg, 1)
	go func() { done <- cmd().(ResponseMsg) }()

	c.Close()

	select {
	case msg := <-done:
		c.Apply(msg)
		if len(msg.Messages) != 0 {
			t.Errorf("closed controller should produce no messages, got %d", len(msg.Messages))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("canned wait did not stop on close")
	}

	if c.Session().Len() != 2 {
		t.Errorf("closed session must not grow, len=%d", c.Session().Len())
	}
	if _, err := c.Submit("again"); !errors.Is(err, ErrClosed) {
		t.Errorf("submit after close: got %v", err)
	}
}

func TestCloseCancelsLiveRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := query.NewClient(srv.URL, "", 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	c := newTestController(client, 0)

	cmd, err := c.Submit("hello")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan ResponseMsg, 1)
	go func() { done <- cmd().(ResponseMsg) }()

	time.Sleep(20 * time.Millisecond)
	c.Close()

	select {
	case msg := <-done:
		c.Apply(msg)
		if len(msg.Messages) != 0 {
			t.Errorf("expected no messages after close, got %d", len(msg.Messages))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request was not cancelled")
	}
}
