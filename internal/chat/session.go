package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

const maxSessionIDLen = 128

// NewSessionID builds user_<unix millis>_<7 random hex chars>.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("user_%d_%s", now.UnixMilli(), suffix)
}

// ValidSessionID reports whether a client-supplied identifier is usable as a store key.
func ValidSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.' || r == ':':
		default:
			return false
		}
	}
	return true
}

// EnsureSession mints the session on first call and kicks off the seed greeting write.
// Later calls return the existing session and do nothing else.
func (c *Conversation) EnsureSession(ctx context.Context) Session {
	c.mu.Lock()
	if c.session != nil {
		s := *c.session
		c.mu.Unlock()
		return s
	}

	now := c.opts.Now()
	s := Session{ID: NewSessionID(now), CreatedAt: now}
	c.session = &s
	c.version++
	seed := c.messages[0].Text
	c.pending.Add(1)
	c.mu.Unlock()

	log.Printf("[chat] new session=%s", s.ID)
	c.persistAsync(ctx, s.ID, transcript.RoleBot, seed)
	return s
}

// Resume attaches an identifier kept by the client across a reload. Nothing is written:
// the seed record of that session already exists.
func (c *Conversation) Resume(id string) (Session, error) {
	if !ValidSessionID(id) {
		return Session{}, ErrInvalidSessionID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return *c.session, nil
	}

	s := Session{ID: id, CreatedAt: c.opts.Now()}
	c.session = &s
	c.version++
	log.Printf("[chat] resumed session=%s", id)
	return s, nil
}
