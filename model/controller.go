package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"evolve/chart"
	"evolve/config"
	"evolve/query"
)

const (
	ErrorReplyText      = "Sorry, I encountered an error processing your request. Please try again."
	ConnectionReplyText = "Connection error. Please check your connection and try again."
)

var (
	ErrEmptyUtterance = errors.New("empty utterance")
	ErrPending        = errors.New("a response is already pending")
	ErrClosed         = errors.New("session closed")

	// ErrMissingResponse is reported when the service replies 2xx without a response array.
	ErrMissingResponse = errors.New("query response missing response array")
)

// Querier is the outbound analysis service. *query.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, utterance string) (*query.Response, error)
}

// Controller resolves user utterances against one session. Each Submit
// yields a tea.Cmd that produces exactly one ResponseMsg; Apply folds it
// back into the session and clears the pending flag.
type Controller struct {
	session *Session
	matcher *Matcher
	querier Querier
	delay   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	now func() time.Time
}

func NewController(session *Session, matcher *Matcher, querier Querier, cannedDelay time.Duration) *Controller {
	if matcher == nil {
		matcher = NewMatcher(DefaultRules())
	}
	if cannedDelay < 0 {
		cannedDelay = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		session: session,
		matcher: matcher,
		querier: querier,
		delay:   cannedDelay,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

func (c *Controller) Session() *Session {
	return c.session
}

func (c *Controller) Matcher() *Matcher {
	return c.matcher
}

func (c *Controller) Pending() bool {
	return c.session.Pending()
}

// Submit records the user message, marks the session pending and returns
// the command that resolves the reply.
func (c *Controller) Submit(utterance string) (tea.Cmd, error) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return nil, ErrEmptyUtterance
	}
	if c.session.Closed() {
		return nil, ErrClosed
	}
	if !c.session.beginPending() {
		if c.session.Closed() {
			return nil, ErrClosed
		}
		return nil, ErrPending
	}

	c.session.Append(newMessage("user", SenderUser, KindText, trimmed, nil, c.now()))

	if config.DebugLog != nil {
		config.DebugLog.Debugf("[Controller] submit session=%s utterance=%q", c.session.ID(), trimmed)
	}

	return func() tea.Msg {
		return c.resolve(trimmed)
	}, nil
}

// Apply appends the reply and clears pending. It runs for every outcome,
// including failures, so the input is always re-enabled.
func (c *Controller) Apply(msg ResponseMsg) {
	if len(msg.Messages) > 0 {
		c.session.Append(msg.Messages...)
	}
	c.session.SetPending(false)

	if config.DebugLog != nil {
		if msg.Err != nil {
			config.DebugLog.Warnf("[Controller] reply intent=%s messages=%d err=%v", msg.Intent, len(msg.Messages), msg.Err)
		} else {
			config.DebugLog.Debugf("[Controller] reply intent=%s messages=%d", msg.Intent, len(msg.Messages))
		}
	}
}

// Ask submits and resolves synchronously. Used by the non-interactive CLI path.
func (c *Controller) Ask(utterance string) (ResponseMsg, error) {
	cmd, err := c.Submit(utterance)
	if err != nil {
		return ResponseMsg{}, err
	}
	msg, _ := cmd().(ResponseMsg)
	c.Apply(msg)
	return msg, nil
}

// Close cancels in-flight waits and requests and discards the session.
func (c *Controller) Close() {
	c.cancel()
	c.session.Close()
}

func (c *Controller) resolve(utterance string) (msg ResponseMsg) {
	defer func() {
		if r := recover(); r != nil {
			if config.DebugLog != nil {
				config.DebugLog.Errorf("[Controller] recovered panic: %v", r)
			}
			msg = ResponseMsg{
				Messages: []Message{c.errorMessage(ErrorReplyText)},
				Intent:   msg.Intent,
				Err:      fmt.Errorf("response resolver panic: %v", r),
			}
		}
	}()

	rule, ok := c.matcher.Match(utterance)
	if ok {
		return c.resolveCanned(rule)
	}
	return c.resolveLive(utterance)
}

func (c *Controller) resolveCanned(rule Rule) ResponseMsg {
	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-c.ctx.Done():
		return ResponseMsg{Intent: rule.Intent, Err: c.ctx.Err()}
	}

	return ResponseMsg{Messages: rule.Produce(c.now()), Intent: rule.Intent}
}

func (c *Controller) resolveLive(utterance string) ResponseMsg {
	reply := ResponseMsg{Intent: IntentUnmatched}
	if c.querier == nil {
		reply.Messages = []Message{c.errorMessage(ConnectionReplyText)}
		reply.Err = fmt.Errorf("%w: no query client configured", query.ErrTransport)
		return reply
	}

	resp, err := c.querier.Query(c.ctx, utterance)
	if err != nil {
		if c.ctx.Err() != nil {
			reply.Err = c.ctx.Err()
			return reply
		}
		reply.Err = err
		if errors.Is(err, query.ErrTransport) {
			reply.Messages = []Message{c.errorMessage(ConnectionReplyText)}
		} else {
			reply.Messages = []Message{c.errorMessage(ErrorReplyText)}
		}
		return reply
	}

	if resp == nil || resp.Response == nil {
		reply.Err = ErrMissingResponse
		reply.Messages = []Message{c.errorMessage(ErrorReplyText)}
		return reply
	}

	reply.Messages = convertItems(resp, c.now())
	return reply
}

func (c *Controller) errorMessage(text string) Message {
	return newMessage("error", SenderAssistant, KindText, text, nil, c.now())
}

// convertItems maps service items to messages in item order. Citation
// metadata comes from the first item carrying it and decorates every
// narrative message.
func convertItems(resp *query.Response, now time.Time) []Message {
	sources := resp.Sources()
	var out []Message

	for _, item := range resp.Response {
		if item.Message != "" {
			var payload *Payload
			if len(sources) > 0 {
				payload = &Payload{Sources: sources}
			}
			out = append(out, newMessage("ai_msg", SenderAssistant, KindText, item.Message, payload, now))
		}

		if item.Chart != "" {
			var payload *Payload
			spec, err := chart.Parse(item.Chart)
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Warnf("[Controller] dropping chart directive: %v", err)
				}
			} else {
				payload = &Payload{Chart: spec}
			}
			out = append(out, newMessage("ai_chart", SenderAssistant, KindChart, "Chart", payload, now))
		}

		if strings.TrimSpace(item.Mermaid) != "" {
			out = append(out, newMessage("ai_mermaid", SenderAssistant, KindChart, "Diagram",
				&Payload{Diagram: item.Mermaid}, now))
		}
	}
	return out
}
