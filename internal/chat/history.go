package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

// LoadHistory restores the persisted transcript of sessionID behind the seed message.
// It runs once per conversation. On fetch failure the messages stay as they are and the
// error is returned for the caller to log or ignore.
func (c *Conversation) LoadHistory(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.historyLoaded {
		c.mu.Unlock()
		return nil
	}
	c.historyLoaded = true
	seedText := c.messages[0].Text
	c.mu.Unlock()

	records, err := c.store.FetchHistory(ctx, sessionID)
	if err != nil {
		log.Printf("[chat] session=%s load history failed: %v", sessionID, err)
		return fmt.Errorf("load history: %w", err)
	}

	loaded := reconcile(seedText, records)
	if len(loaded) == 0 {
		return nil
	}

	c.mu.Lock()
	c.mergeHistory(loaded)
	c.mu.Unlock()

	log.Printf("[chat] session=%s restored %d messages", sessionID, len(loaded))
	return nil
}

// reconcile drops the first record when it is the durable copy of the seed greeting and
// maps the rest to messages. Matching is on text only: the seed's record id is assigned
// asynchronously and is not known here.
func reconcile(seedText string, records []transcript.Record) []Message {
	start := 0
	if len(records) > 0 && records[0].Text == seedText {
		start = 1
	}

	out := make([]Message, 0, len(records)-start)
	for _, r := range records[start:] {
		typ := MessageBot
		if r.Role == transcript.RoleUser {
			typ = MessageUser
		}
		out = append(out, Message{
			ID:        r.ID,
			Type:      typ,
			Text:      r.Text,
			Timestamp: r.CreatedAt,
		})
	}
	return out
}
