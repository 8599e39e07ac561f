package models

import "time"

// Attachment is a design image uploaded during the conversation, hosted by
// the attachment store and referenced in the order notification.
type Attachment struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	MIMEType string `json:"mimeType"`
}

// ChatSession is the full mutable state of one widget conversation: the
// append-only log, the order under construction and a generation stamp that
// increments on every state transition. A gateway reply that resolves after
// the generation has moved on is stale and must be discarded.
type ChatSession struct {
	ID          string       `json:"id"`
	Log         []Turn       `json:"log"`
	Order       OrderState   `json:"order"`
	Generation  uint64       `json:"generation"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Append adds a turn to the conversation log.
func (s *ChatSession) Append(t Turn) {
	s.Log = append(s.Log, t)
}
