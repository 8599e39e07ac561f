package models

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is one piece of a turn: either text or inline media, never both.
type ContentPart struct {
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// IsMedia reports whether the part carries inline media rather than text.
func (p ContentPart) IsMedia() bool {
	return p.MIMEType != ""
}

// Turn is one message in the conversation log. The log is append-only and
// replayed in full on every model call; a turn always has at least one part.
type Turn struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

// TextTurn builds a single-part text turn.
func TextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []ContentPart{{Text: text}}}
}
