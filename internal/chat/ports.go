package chat

import (
	"errors"
	"time"
)

type MessageType string

const (
	MessageUser MessageType = "user"
	MessageBot  MessageType = "bot"
)

// Message is the widget-facing projection of a transcript record. Never mutated after creation.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

type State string

const (
	StateIdle          State = "IDLE"
	StateSubmitting    State = "SUBMITTING"
	StateAwaitingReply State = "AWAITING_REPLY"
	StateFailed        State = "FAILED"
)

type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is a read-only copy of a conversation for presentation.
type Snapshot struct {
	SessionID string    `json:"sessionId"`
	Version   uint64    `json:"version"`
	State     State     `json:"state"`
	Messages  []Message `json:"messages"`
}

// Turn is the outcome of one Submit call.
type Turn struct {
	User           Message `json:"user"`
	Reply          Message `json:"reply"`
	ProviderFailed bool    `json:"providerFailed"`
}

const (
	SeedGreeting  = "Hello! I'm your CDP Support Agent. I can help with questions about Segment, mParticle, Lytics, and Zeotap. How can I assist you today?"
	FallbackReply = "I'm sorry, I couldn't process your request. Please try again."
	ApologyReply  = "I'm sorry, I encountered an error. Please try again later."
)

var (
	ErrEmptyMessage         = errors.New("message text is required")
	ErrTurnInFlight         = errors.New("a reply is still in progress")
	ErrNoSession            = errors.New("session is not started")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidSessionID     = errors.New("invalid session id")
)
