package chat

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies; a chat message is far smaller.
const maxBodyBytes = 32 << 10

type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// StartSession — page load. Body may carry the id the widget kept from an earlier load.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}

	if err := decodeBody(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		respondDecodeError(w, err)
		return
	}

	conv, err := h.mgr.Start(r.Context(), payload.SessionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, conv.Snapshot())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, conv.Snapshot())
}

func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeBody(w, r, &payload); err != nil {
		respondDecodeError(w, err)
		return
	}

	turn, err := conv.Submit(r.Context(), payload.Text)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrTurnInFlight):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "processing error")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Turn     Turn     `json:"turn"`
		Snapshot Snapshot `json:"snapshot"`
	}{turn, conv.Snapshot()})
}

// GetTranscript returns persisted rows as stored, for support staff debugging a session.
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !ValidSessionID(sessionID) {
		respondError(w, http.StatusBadRequest, ErrInvalidSessionID.Error())
		return
	}

	records, err := h.mgr.Transcript(r.Context(), sessionID)
	if err != nil {
		log.Printf("[chat] session=%s transcript read failed: %v", sessionID, err)
		respondError(w, http.StatusBadGateway, "transcript store unavailable")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) GetLinks(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, defaultLinks)
}

func (h *Handler) conversation(w http.ResponseWriter, r *http.Request) (*Conversation, bool) {
	conv, err := h.mgr.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return conv, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	respondError(w, http.StatusBadRequest, "invalid json")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
