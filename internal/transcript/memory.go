package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps transcripts in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Record
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Record),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, role Role, text string) (Record, error) {
	if err := validate(sessionID, role, text); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.sessions[sessionID]
	createdAt := s.now()
	if n := len(existing); n > 0 {
		createdAt = nextTimestamp(createdAt, existing[n-1].CreatedAt)
	}

	rec := Record{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: createdAt,
	}
	s.sessions[sessionID] = append(existing, rec)
	return rec, nil
}

func (s *MemoryStore) FetchHistory(_ context.Context, sessionID string) ([]Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.sessions[sessionID]
	copied := make([]Record, len(records))
	copy(copied, records)
	return copied, nil
}
