// File: services/chat/interface.go
package chat

import (
	"context"
	"errors"

	"cakebox/models"
)

var (
	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("chat session not found")
	// ErrSessionBusy is returned when a request arrives while a prior call
	// for the same session is still in flight. Concurrent slot-filling calls
	// could merge against a stale snapshot and silently lose data, so the
	// second request is rejected rather than queued.
	ErrSessionBusy = errors.New("chat session has a request in flight")
	// ErrNotAwaitingConfirmation is returned when confirm/decline arrives
	// outside the summary confirmation step.
	ErrNotAwaitingConfirmation = errors.New("session is not awaiting summary confirmation")
	// ErrEmptyMessage is returned when a submission carries neither text nor
	// media. Rejected locally, before any external call.
	ErrEmptyMessage = errors.New("message has no content")
)

// Update is what one user action produced: the assistant turns to render and
// the resulting flow position.
type Update struct {
	SessionID            string       `json:"sessionId"`
	Replies              []string     `json:"replies"`
	Phase                models.Phase `json:"phase"`
	SlotKey              string       `json:"slotKey,omitempty"`
	AwaitingConfirmation bool         `json:"awaitingConfirmation"`
}

// ChatService drives widget conversations: free-form Q&A plus the guided
// quick-order flow. One user action is fully processed before the next is
// accepted for the same session.
type ChatService interface {
	CreateSession(ctx context.Context) (*models.ChatSession, error)
	ResetSession(ctx context.Context, sessionID string) (*Update, error)
	SubmitText(ctx context.Context, sessionID, text string) (*Update, error)
	SubmitMedia(ctx context.Context, sessionID, text string, media models.ContentPart, attachment *models.Attachment) (*Update, error)
	StartOrder(ctx context.Context, sessionID string) (*Update, error)
	ConfirmSummary(ctx context.Context, sessionID string, confirm bool) (*Update, error)
}

// SessionStore persists chat sessions for the lifetime of a conversation.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.ChatSession, error)
	Save(ctx context.Context, session *models.ChatSession) error
	Delete(ctx context.Context, sessionID string) error
}
