package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
	"github.com/honeypot-ai/honeypot-server/internal/pipeline"
)

// maxRequestBodySize caps inbound request bodies (1MB).
const maxRequestBodySize = 1 << 20

// wireMessage is a conversation entry as it appears on the wire. Text is
// kept raw so non-string values can be stringified instead of rejected;
// timestamps are epoch milliseconds.
type wireMessage struct {
	Sender    string          `json:"sender"`
	Text      json.RawMessage `json:"text"`
	Timestamp int64           `json:"timestamp"`
}

// messageRequest is the inbound body of POST /api/v1/message.
type messageRequest struct {
	SessionID           string        `json:"sessionId"`
	Message             *wireMessage  `json:"message"`
	ConversationHistory []wireMessage `json:"conversationHistory"`
	Metadata            *struct {
		Channel  string `json:"channel"`
		Language string `json:"language"`
		Locale   string `json:"locale"`
	} `json:"metadata"`
}

// messageResponse is the successful reply shape.
type messageResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// HandleMessage processes one inbound scam message through the pipeline.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		Error(w, http.StatusBadRequest, "Bad Request", "Failed to read request body.")
		return
	}

	var req messageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid JSON", "The Request Body is not valid JSON.")
		return
	}

	text, ok := textString(req.Message)
	if req.SessionID == "" || !ok {
		Error(w, http.StatusBadRequest, "Bad Request", "Missing required fields (sessionId, message.text)")
		return
	}

	history := make([]domain.Message, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		history = append(history, coerceMessage(m))
	}

	turn := pipeline.Turn{
		SessionID: req.SessionID,
		Text:      text,
		Timestamp: epochToTime(req.Message.Timestamp),
		History:   history,
		Mode:      pipeline.ModeAPI,
	}
	if req.Metadata != nil {
		slog.Debug("Processing message with metadata",
			"session_id", req.SessionID,
			"channel", req.Metadata.Channel,
			"locale", req.Metadata.Locale)
	}

	res, err := h.pipe.Process(r.Context(), turn)
	if err != nil {
		if errors.Is(err, pipeline.ErrSessionBusy) {
			Error(w, http.StatusConflict, "Conflict", "A message for this session is already being processed.")
			return
		}
		slog.Error("Pipeline failed", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process message.")
		return
	}

	JSON(w, http.StatusOK, messageResponse{Status: "success", Reply: res.Reply})
}

// textString extracts message.text, accepting only JSON strings.
func textString(m *wireMessage) (string, bool) {
	if m == nil || len(m.Text) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(m.Text, &s); err != nil {
		return "", false
	}
	return s, true
}

// coerceMessage normalizes a wire entry: unknown senders become user,
// non-string text is stringified, missing timestamps default to now.
func coerceMessage(m wireMessage) domain.Message {
	sender := domain.Sender(m.Sender)
	if !sender.IsValid() {
		sender = domain.SenderUser
	}

	var text string
	if err := json.Unmarshal(m.Text, &text); err != nil {
		text = string(m.Text)
	}

	return domain.Message{
		Sender:    sender,
		Text:      text,
		Timestamp: epochToTime(m.Timestamp),
	}
}

func epochToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
