package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

func setupRouter(provider *fakeProvider, store *fakeStore) (*chi.Mux, *Manager) {
	mgr := NewManager(provider, store, Options{}, time.Hour)
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(mgr))
	return r, mgr
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandler_StartSessionWithoutBody(t *testing.T) {
	r, _ := setupRouter(&fakeProvider{}, newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	snap := decode[Snapshot](t, resp)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, []string{SeedGreeting}, messageTexts(snap.Messages))
}

func TestHandler_ChatRoundTrip(t *testing.T) {
	store := newFakeStore()
	r, mgr := setupRouter(&fakeProvider{reply: "Hello!"}, store)

	resp := doJSON(t, r, http.MethodPost, "/api/sessions", map[string]string{})
	require.Equal(t, http.StatusCreated, resp.Code)
	sessionID := decode[Snapshot](t, resp).SessionID

	resp = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/messages", map[string]string{"text": "Hi"})
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[struct {
		Turn     Turn     `json:"turn"`
		Snapshot Snapshot `json:"snapshot"`
	}](t, resp)
	assert.Equal(t, "Hello!", body.Turn.Reply.Text)
	assert.Equal(t, []string{SeedGreeting, "Hi", "Hello!"}, messageTexts(body.Snapshot.Messages))

	resp = doJSON(t, r, http.MethodGet, "/api/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[Snapshot](t, resp).Messages, 3)

	mgr.Wait()
	resp = doJSON(t, r, http.MethodGet, "/api/sessions/"+sessionID+"/history", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	records := decode[[]transcript.Record](t, resp)
	require.Len(t, records, 3)
	assert.Equal(t, transcript.RoleBot, records[0].Role)
	assert.Equal(t, "Hi", records[1].Text)
}

func TestHandler_SubmitErrors(t *testing.T) {
	provider := &fakeProvider{
		reply:   "ok",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r, mgr := setupRouter(provider, newFakeStore())

	conv, err := mgr.Start(context.Background(), "")
	require.NoError(t, err)
	sessionID := conv.Snapshot().SessionID
	path := "/api/sessions/" + sessionID + "/messages"

	resp := doJSON(t, r, http.MethodPost, "/api/sessions/unknown/messages", map[string]string{"text": "Hi"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(t, r, http.MethodPost, path, map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = conv.Submit(context.Background(), "first")
	}()
	<-provider.started

	resp = doJSON(t, r, http.MethodPost, path, map[string]string{"text": "second"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	close(provider.release)
	<-done
}

func TestHandler_ProviderFailureIsNotAnHTTPError(t *testing.T) {
	r, _ := setupRouter(&fakeProvider{err: errors.New("timeout")}, newFakeStore())

	resp := doJSON(t, r, http.MethodPost, "/api/sessions", nil)
	sessionID := decode[Snapshot](t, resp).SessionID

	resp = doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/messages", map[string]string{"text": "Hi"})
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[struct {
		Turn Turn `json:"turn"`
	}](t, resp)
	assert.True(t, body.Turn.ProviderFailed)
	assert.Equal(t, ApologyReply, body.Turn.Reply.Text)
}

func TestHandler_OversizedBody(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	store := newFakeStore()
	r, mgr := setupRouter(provider, store)

	conv, err := mgr.Start(context.Background(), "")
	require.NoError(t, err)
	sessionID := conv.Snapshot().SessionID

	huge := strings.Repeat("a", maxBodyBytes+1)
	resp := doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/messages", map[string]string{"text": huge})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Zero(t, provider.callCount())

	resp = doJSON(t, r, http.MethodPost, "/api/sessions", map[string]string{"sessionId": huge})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	mgr.Wait()
	assert.Equal(t, []string{SeedGreeting}, store.texts(sessionID))
	assert.Equal(t, []string{SeedGreeting}, messageTexts(conv.Snapshot().Messages))
}

func TestHandler_StartSessionInvalidID(t *testing.T) {
	r, _ := setupRouter(&fakeProvider{}, newFakeStore())

	resp := doJSON(t, r, http.MethodPost, "/api/sessions", map[string]string{"sessionId": "../../etc"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandler_GetUnknownSession(t *testing.T) {
	r, _ := setupRouter(&fakeProvider{}, newFakeStore())

	resp := doJSON(t, r, http.MethodGet, "/api/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandler_TranscriptStoreDown(t *testing.T) {
	store := newFakeStore()
	store.failFetch = true
	r, _ := setupRouter(&fakeProvider{}, store)

	resp := doJSON(t, r, http.MethodGet, "/api/sessions/user_1_abc/history", nil)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestHandler_Links(t *testing.T) {
	r, _ := setupRouter(&fakeProvider{}, newFakeStore())

	resp := doJSON(t, r, http.MethodGet, "/api/links", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	links := decode[WidgetLinks](t, resp)
	assert.Len(t, links.Docs, 4)
	assert.Len(t, links.Platforms, 4)
	assert.Contains(t, links.QuickQuestions, "How does Segment compare to mParticle?")
}
