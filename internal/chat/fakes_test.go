package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/Vovarama1992/cdp-support-chat/internal/ai"
	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore wraps the memory store with switchable failures.
type fakeStore struct {
	*transcript.MemoryStore

	mu         sync.Mutex
	failAppend func(role transcript.Role, text string) bool
	failFetch  bool
	appends    int
	fetches    int

	// beforeAppend and beforeFetch run ahead of each call and let a test fix the order
	// of otherwise racing writes and reads.
	beforeAppend func()
	beforeFetch  func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: transcript.NewMemoryStore()}
}

func (s *fakeStore) Append(ctx context.Context, sessionID string, role transcript.Role, text string) (transcript.Record, error) {
	s.mu.Lock()
	s.appends++
	fail := s.failAppend != nil && s.failAppend(role, text)
	hook := s.beforeAppend
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if fail {
		return transcript.Record{}, errStoreDown
	}
	return s.MemoryStore.Append(ctx, sessionID, role, text)
}

func (s *fakeStore) FetchHistory(ctx context.Context, sessionID string) ([]transcript.Record, error) {
	s.mu.Lock()
	s.fetches++
	fail := s.failFetch
	hook := s.beforeFetch
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if fail {
		return nil, errStoreDown
	}
	return s.MemoryStore.FetchHistory(ctx, sessionID)
}

func (s *fakeStore) texts(sessionID string) []string {
	records, _ := s.MemoryStore.FetchHistory(context.Background(), sessionID)
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Text)
	}
	return out
}

type providerCall struct {
	history    []ai.Message
	newMessage string
}

type fakeProvider struct {
	mu    sync.Mutex
	calls []providerCall
	reply string
	err   error

	// started and release let a test hold a call open.
	started chan struct{}
	release chan struct{}
}

func (p *fakeProvider) Complete(_ context.Context, history []ai.Message, newMessage string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, providerCall{history: history, newMessage: newMessage})
	p.mu.Unlock()

	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	return p.reply, p.err
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func historyTexts(msgs []ai.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func messageTexts(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}
