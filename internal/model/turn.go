package model

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the assistant transcript. Turns are never mutated
// after they are appended.
type Turn struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Properties []Property `json:"properties,omitempty"`
}

// TurnID is the identity projection used by the transcript collection.
func TurnID(t Turn) string {
	return t.ID
}
