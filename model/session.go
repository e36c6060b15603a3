package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const WelcomeMessageID = "welcome"

// Session holds one conversational transcript and its pending flag.
// All mutation goes through Append and SetPending; once Close is called
// (the chat view unmounted) both become no-ops.
type Session struct {
	mu        sync.Mutex
	id        string
	datasetID string
	createdAt time.Time
	messages  []Message
	pending   bool
	closed    bool
}

// NewSession creates a session seeded with the assistant greeting
func NewSession(datasetID string, now time.Time) *Session {
	s := &Session{
		id:        uuid.New().String(),
		datasetID: datasetID,
		createdAt: now,
	}
	s.messages = append(s.messages, Message{
		ID:        WelcomeMessageID,
		Content:   greeting(datasetID),
		Sender:    SenderAssistant,
		Timestamp: now,
		Kind:      KindText,
	})
	return s
}

func greeting(datasetID string) string {
	return fmt.Sprintf("Hello! I'm your AI assistant for analyzing the %s dataset. "+
		"You can ask me questions about the data, request specific analyses, or get insights. "+
		"What would you like to know?", datasetID)
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) DatasetID() string {
	return s.datasetID
}

// Append adds messages in order. Returns false if the session is closed.
func (s *Session) Append(msgs ...Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.messages = append(s.messages, msgs...)
	return true
}

// SetPending sets the pending flag. Returns false if the session is closed.
func (s *Session) SetPending(pending bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pending = pending
	return true
}

// beginPending flips pending from false to true; false means a response is
// already in flight (or the session is closed) and nothing may start.
func (s *Session) beginPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pending {
		return false
	}
	s.pending = true
	return true
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Messages returns a copy of the transcript
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the most recent message, if any
func (s *Session) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Close discards the session. Later mutations are silently ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
