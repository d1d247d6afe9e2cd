package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/honeypot-ai/honeypot-server/internal/domain"
	"github.com/honeypot-ai/honeypot-server/internal/pipeline"
)

// simulatorRequest is the inbound body of POST /api/v1/simulator/message.
// SessionID is optional; a new sim session is started when absent.
type simulatorRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

// simulatorResponse returns the turn outcome plus the updated session so
// the simulator view can render without a second fetch.
type simulatorResponse struct {
	Status  string          `json:"status"`
	Reply   string          `json:"reply"`
	Session *domain.Session `json:"session"`
}

// HandleSimulatorMessage runs one simulator turn: the caller plays the
// scammer, the honeypot persona answers.
func (h *Handler) HandleSimulatorMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		Error(w, http.StatusBadRequest, "Bad Request", "Failed to read request body.")
		return
	}

	var req simulatorRequest
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid JSON", "The Request Body is not valid JSON.")
		return
	}
	if req.Text == "" {
		Error(w, http.StatusBadRequest, "Bad Request", "Missing required field (text)")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = newSimSessionID()
	}

	res, err := h.pipe.Process(r.Context(), pipeline.Turn{
		SessionID: sessionID,
		Text:      req.Text,
		Mode:      pipeline.ModeSimulator,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrSessionBusy) {
			Error(w, http.StatusConflict, "Conflict", "A message for this session is already being processed.")
			return
		}
		slog.Error("Simulator pipeline failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process message.")
		return
	}

	JSON(w, http.StatusOK, simulatorResponse{
		Status:  "success",
		Reply:   res.Reply,
		Session: res.Session,
	})
}

func newSimSessionID() string {
	return fmt.Sprintf("sim-%s", uuid.NewString()[:8])
}
