package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/honeypot-ai/honeypot-server/internal/callback"
	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

// sessionView decorates a stored session with its callback delivery status
// for the dashboard.
type sessionView struct {
	*domain.Session
	CallbackStatus callback.Status `json:"callbackStatus"`
}

// HandleListSessions returns all sessions in insertion order.
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.repo.ListSessions(r.Context())
	if err != nil {
		slog.Error("Failed to list sessions", "error", err)
		Error(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list sessions.")
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{Session: s, CallbackStatus: h.callbacks.StatusFor(s.ID)})
	}
	JSON(w, http.StatusOK, views)
}

// HandleGetSession returns one session by id.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.repo.GetSession(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load session.")
		return
	}
	if session == nil {
		Error(w, http.StatusNotFound, "Not Found", "No session with that id.")
		return
	}
	JSON(w, http.StatusOK, sessionView{Session: session, CallbackStatus: h.callbacks.StatusFor(id)})
}

// statsResponse aggregates the stored sessions for the dashboard.
type statsResponse struct {
	TotalSessions int            `json:"totalSessions"`
	ScamsDetected int            `json:"scamsDetected"`
	TotalMessages int            `json:"totalMessages"`
	AvgConfidence int            `json:"avgConfidence"`
	Intelligence  map[string]int `json:"intelligence"`
}

// HandleStats computes dashboard aggregates across all sessions.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.repo.ListSessions(r.Context())
	if err != nil {
		slog.Error("Failed to list sessions for stats", "error", err)
		Error(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute stats.")
		return
	}

	stats := statsResponse{
		Intelligence: map[string]int{
			"bankAccounts":       0,
			"upiIds":             0,
			"phishingLinks":      0,
			"phoneNumbers":       0,
			"suspiciousKeywords": 0,
		},
	}
	confidenceSum := 0
	for _, s := range sessions {
		stats.TotalSessions++
		stats.TotalMessages += len(s.Messages)
		confidenceSum += s.ScamConfidence
		if s.ScamDetected {
			stats.ScamsDetected++
		}
		stats.Intelligence["bankAccounts"] += len(s.Intelligence.BankAccounts)
		stats.Intelligence["upiIds"] += len(s.Intelligence.UPIIDs)
		stats.Intelligence["phishingLinks"] += len(s.Intelligence.PhishingLinks)
		stats.Intelligence["phoneNumbers"] += len(s.Intelligence.PhoneNumbers)
		stats.Intelligence["suspiciousKeywords"] += len(s.Intelligence.SuspiciousKeywords)
	}
	if stats.TotalSessions > 0 {
		stats.AvgConfidence = confidenceSum / stats.TotalSessions
	}

	JSON(w, http.StatusOK, stats)
}
