package domain

import "time"

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single entry in a session's conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the server-side record of one caller's conversation.
// The ID is immutable once assigned; all mutation goes through the
// session store, which serializes operations per session.
type Session struct {
	ID          string    `json:"id"`
	Turns       []Turn    `json:"turns,omitempty"`
	LastBackend Backend   `json:"lastBackend,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID          string    `json:"id"`
	TurnCount   int       `json:"turnCount"`
	LastBackend Backend   `json:"lastBackend,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
