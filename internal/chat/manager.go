package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Vovarama1992/cdp-support-chat/internal/ai"
	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

// Manager keeps the live conversations of this process, one per page load.
type Manager struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation

	provider ai.Provider
	store    transcript.Store
	opts     Options
	idleTTL  time.Duration
}

func NewManager(provider ai.Provider, store transcript.Store, opts Options, idleTTL time.Duration) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		conversations: make(map[string]*Conversation),
		provider:      provider,
		store:         store,
		opts:          opts,
		idleTTL:       idleTTL,
	}
}

// Start begins a page load. An empty sessionID mints a new session; otherwise the
// conversation resumes that session and restores its history. Either way the seed
// greeting is the first message and history is reconciled before returning.
//
// A session that is still live in this process is handed back as is, so a reload
// during a turn sees that turn instead of opening a second one beside it.
func (m *Manager) Start(ctx context.Context, sessionID string) (*Conversation, error) {
	if sessionID != "" {
		if !ValidSessionID(sessionID) {
			return nil, ErrInvalidSessionID
		}
		if live, err := m.Get(sessionID); err == nil {
			live.touch()
			return live, nil
		}
	}

	conv := NewConversation(m.provider, m.store, m.opts)

	var session Session
	if sessionID == "" {
		session = conv.EnsureSession(ctx)
	} else {
		var err error
		if session, err = conv.Resume(sessionID); err != nil {
			return nil, err
		}
	}

	// failure already logged; the widget keeps the seed only
	_ = conv.LoadHistory(ctx, session.ID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if live, ok := m.conversations[session.ID]; ok {
		// a concurrent reload of the same session registered first
		return live, nil
	}
	m.conversations[session.ID] = conv

	return conv, nil
}

func (m *Manager) Get(sessionID string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[sessionID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// Transcript returns the persisted records of a session straight from the store.
func (m *Manager) Transcript(ctx context.Context, sessionID string) ([]transcript.Record, error) {
	return m.store.FetchHistory(ctx, sessionID)
}

// EvictIdle drops conversations that are idle past the TTL and not mid-turn. Returns how
// many were removed.
func (m *Manager) EvictIdle() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, conv := range m.conversations {
		if conv.State() != StateIdle || conv.idleSince().After(cutoff) {
			continue
		}
		delete(m.conversations, id)
		removed++
	}
	return removed
}

// RunJanitor evicts idle conversations every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				log.Printf("[chat] evicted %d idle conversations", n)
			}
		}
	}
}

// Wait blocks until background writes of every live conversation are done.
func (m *Manager) Wait() {
	m.mu.RLock()
	convs := make([]*Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		convs = append(convs, c)
	}
	m.mu.RUnlock()

	for _, c := range convs {
		c.Wait()
	}
}
