package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Vovarama1992/cdp-support-chat/internal/ai"
	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

const defaultWriteTimeout = 10 * time.Second

type Options struct {
	// HistoryWindow caps how many prior messages go to the provider. 0 sends all of them.
	HistoryWindow int
	// WriteTimeout bounds each transcript write. Defaults to 10s.
	WriteTimeout time.Duration
	Now          func() time.Time
}

// Conversation is the state of one page load: its session, the ordered message list
// and the turn state machine. Mutations go through appendLocal, transition and
// mergeHistory only, each of which bumps the version. Callers hold mu.
type Conversation struct {
	mu            sync.Mutex
	session       *Session
	messages      []Message
	state         State
	version       uint64
	historyLoaded bool
	lastActive    time.Time

	provider ai.Provider
	store    transcript.Store
	opts     Options

	// pending tracks async transcript writes (the seed greeting).
	pending sync.WaitGroup
}

// NewConversation returns a conversation holding only the seed greeting, with no session yet.
func NewConversation(provider ai.Provider, store transcript.Store, opts Options) *Conversation {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	now := opts.Now()
	return &Conversation{
		messages: []Message{{
			ID:        "seed",
			Type:      MessageBot,
			Text:      SeedGreeting,
			Timestamp: now,
		}},
		state:      StateIdle,
		lastActive: now,
		provider:   provider,
		store:      store,
		opts:       opts,
	}
}

// Snapshot returns a copy safe to hand to presentation code.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Version:  c.version,
		State:    c.state,
		Messages: make([]Message, len(c.messages)),
	}
	copy(snap.Messages, c.messages)
	if c.session != nil {
		snap.SessionID = c.session.ID
	}
	return snap
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until background transcript writes have finished.
func (c *Conversation) Wait() {
	c.pending.Wait()
}

func (c *Conversation) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Conversation) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.opts.Now()
}

func (c *Conversation) appendLocal(msgs ...Message) {
	c.messages = append(c.messages, msgs...)
	c.lastActive = c.opts.Now()
	c.version++
}

func (c *Conversation) transition(to State) {
	if c.state == to {
		return
	}
	c.state = to
	c.version++
}

func (c *Conversation) mergeHistory(loaded []Message) {
	c.messages = append(c.messages, loaded...)
	c.version++
}

// persist writes one record and logs failures. Transcript durability never blocks the chat.
func (c *Conversation) persist(ctx context.Context, sessionID string, role transcript.Role, text string) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()

	if _, err := c.store.Append(ctx, sessionID, role, text); err != nil {
		log.Printf("[chat] session=%s role=%s save failed: %v", sessionID, role, err)
	}
}

// persistAsync runs persist in the background. The caller has already done pending.Add(1)
// while holding mu, so a concurrent Submit cannot miss the write when it waits.
func (c *Conversation) persistAsync(ctx context.Context, sessionID string, role transcript.Role, text string) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer c.pending.Done()
		c.persist(ctx, sessionID, role, text)
	}()
}
