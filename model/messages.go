package model

import (
	"evolve/storage"
)

// ResponseMsg carries the outcome of one Submit. Messages may be empty when
// the controller was closed before the reply arrived.
type ResponseMsg struct {
	Messages []Message
	Intent   Intent
	Err      error
}

type DatasetLoadedMsg struct {
	Dataset     *storage.Dataset
	Suggestions []string
	Err         error
}

type ClipboardCopiedMsg struct {
	Err error
}

type FlashTickMsg struct{}
