package ai

import "context"

type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// Message is one prior turn of the dialogue in provider-neutral form.
type Message struct {
	Role Role
	Text string
}

// Provider is the external completion service. It knows nothing about sessions or storage.
// Any transport, auth or decoding failure must come back as an error, never as a
// half-parsed reply.
type Provider interface {
	Complete(
		ctx context.Context,
		history []Message,
		newMessage string,
	) (string, error)
}
