package domain

import "time"

// ChatSession groups a conversation's messages.
type ChatSession struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn in a session. Assistant messages carry the
// citations that backed the answer.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	Sources   []Citation
	CreatedAt time.Time
}
