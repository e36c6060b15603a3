package model

import (
	"fmt"
	"sync/atomic"
	"time"

	"evolve/chart"
	"evolve/query"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Kind decides how the render dispatcher draws a message
type Kind string

const (
	KindText  Kind = "text"
	KindChart Kind = "chart"
	KindTable Kind = "table"
)

// Payload is the structured part of a message. Which field is meaningful
// depends on the message Kind: a chart message carries Chart or Diagram,
// a narrative message may carry Sources.
type Payload struct {
	Chart   *chart.Spec
	Diagram string
	Sources []query.SourceDocument
}

// Message represents one transcript entry. Messages are never edited after creation.
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	Timestamp time.Time
	Kind      Kind
	Payload   *Payload
}

var idSeq atomic.Uint64

// NewID returns "<prefix>_<unixnano>_<seq>". The sequence keeps ids unique
// even when two messages share a clock reading.
func NewID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%d", prefix, now.UnixNano(), idSeq.Add(1))
}

func newMessage(prefix string, sender Sender, kind Kind, content string, payload *Payload, now time.Time) Message {
	return Message{
		ID:        NewID(prefix, now),
		Content:   content,
		Sender:    sender,
		Timestamp: now,
		Kind:      kind,
		Payload:   payload,
	}
}

// HasVisualization reports whether the message needs a chart or diagram view
func (m Message) HasVisualization() bool {
	return m.Kind == KindChart && m.Payload != nil && (m.Payload.Chart != nil || m.Payload.Diagram != "")
}

// HasSources reports whether citation metadata is attached
func (m Message) HasSources() bool {
	return m.Payload != nil && len(m.Payload.Sources) > 0
}
