package chat

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/api", func(api chi.Router) {
		api.Get("/links", h.GetLinks)
		api.Post("/sessions", h.StartSession)
		api.Get("/sessions/{sessionID}", h.GetSession)
		api.Post("/sessions/{sessionID}/messages", h.SubmitMessage)
		api.Get("/sessions/{sessionID}/history", h.GetTranscript)
	})
}
