// Package api provides HTTP handlers for the honeypot API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/honeypot-ai/honeypot-server/internal/callback"
	"github.com/honeypot-ai/honeypot-server/internal/pipeline"
	"github.com/honeypot-ai/honeypot-server/internal/store"
)

// Handler serves the honeypot HTTP API.
type Handler struct {
	pipe      *pipeline.Pipeline
	repo      store.Repository
	callbacks *callback.Client
}

// NewHandler creates a new Handler with its dependencies.
func NewHandler(pipe *pipeline.Pipeline, repo store.Repository, callbacks *callback.Client) *Handler {
	return &Handler{
		pipe:      pipe,
		repo:      repo,
		callbacks: callbacks,
	}
}

// RegisterRoutes mounts the API under /api/v1. The message-processing
// endpoints sit behind the provided auth middleware; the dashboard reads
// do not.
func (h *Handler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/message", h.HandleMessage)
			r.Post("/simulator/message", h.HandleSimulatorMessage)
		})
		r.Get("/sessions", h.HandleListSessions)
		r.Get("/sessions/{id}", h.HandleGetSession)
		r.Get("/stats", h.HandleStats)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response in the {error, message} wire shape.
func Error(w http.ResponseWriter, status int, errLabel, message string) {
	JSON(w, status, map[string]string{"error": errLabel, "message": message})
}
