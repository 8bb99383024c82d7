package chat

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Vovarama1992/cdp-support-chat/internal/ai"
	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

// Submit runs one user turn: IDLE → SUBMITTING → AWAITING_REPLY → IDLE, via FAILED when
// the provider errors. Only one turn may be in flight; a second Submit is rejected with
// ErrTurnInFlight, never queued. Provider and store failures never surface as errors:
// the turn always ends with a bot message and the conversation back in IDLE.
func (c *Conversation) Submit(ctx context.Context, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return Turn{}, ErrNoSession
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return Turn{}, ErrTurnInFlight
	}

	sessionID := c.session.ID
	history := buildContext(c.messages, c.opts.HistoryWindow)
	userMsg := Message{
		ID:        uuid.NewString(),
		Type:      MessageUser,
		Text:      text,
		Timestamp: c.opts.Now(),
	}
	c.appendLocal(userMsg)
	c.transition(StateSubmitting)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.transition(StateIdle)
		c.mu.Unlock()
	}()

	// The turn outlives the request that started it.
	ctx = context.WithoutCancel(ctx)

	// seed greeting goes to the store before the first user record
	c.pending.Wait()
	c.persist(ctx, sessionID, transcript.RoleUser, text)

	c.mu.Lock()
	c.transition(StateAwaitingReply)
	c.mu.Unlock()

	turn := Turn{User: userMsg}

	reply, err := c.provider.Complete(ctx, history, text)

	c.mu.Lock()
	switch {
	case err != nil:
		log.Printf("[chat] session=%s completion failed: %v", sessionID, err)
		c.transition(StateFailed)
		reply = ApologyReply
		turn.ProviderFailed = true
	case strings.TrimSpace(reply) == "":
		log.Printf("[chat] session=%s empty completion, using fallback", sessionID)
		reply = FallbackReply
	}
	botMsg := Message{
		ID:        uuid.NewString(),
		Type:      MessageBot,
		Text:      reply,
		Timestamp: c.opts.Now(),
	}
	c.appendLocal(botMsg)
	c.mu.Unlock()

	c.persist(ctx, sessionID, transcript.RoleBot, reply)

	turn.Reply = botMsg
	return turn, nil
}

// buildContext projects messages to provider turns in order. window > 0 keeps only the
// newest window messages.
func buildContext(messages []Message, window int) []ai.Message {
	start := 0
	if window > 0 && len(messages) > window {
		start = len(messages) - window
	}

	out := make([]ai.Message, 0, len(messages)-start)
	for _, m := range messages[start:] {
		role := ai.RoleAssistant
		if m.Type == MessageUser {
			role = ai.RoleUser
		}
		out = append(out, ai.Message{Role: role, Text: m.Text})
	}
	return out
}
