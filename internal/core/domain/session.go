package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionID uniquely identifies a chat session
type SessionID string

// MessageRole defines who authored a message or transcript turn
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Turn is one immutable element of the reasoning transcript. The planner
// appends new turns instead of concatenating strings, so label scanning
// always operates on whole blocks.
type Turn struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Session represents a multi-turn chat session
type Session struct {
	ID        SessionID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionMessage is a persisted message within a session, with metadata
// about the planner run that produced it (step counts, tool calls, success).
type SessionMessage struct {
	SessionID SessionID      `json:"session_id"`
	Role      MessageRole    `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"timestamp"`
}

var ErrSessionNotFound = errors.New("session not found")

// NewSessionID generates a random session ID
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}
