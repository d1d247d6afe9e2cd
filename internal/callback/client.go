// Package callback delivers scam-detection results to the external
// evaluation endpoint.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

// Status tracks the delivery state of the most recent callback for a
// session. It is surfaced on the dashboard only; delivery failures never
// affect the committed session state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Client POSTs CallbackPayload JSON to a fixed URL and remembers the last
// delivery status per session.
type Client struct {
	url    string
	client *http.Client

	mu       sync.RWMutex
	statuses map[string]Status
}

// New creates a callback client for the given endpoint URL.
func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		statuses: make(map[string]Status),
	}
}

// Deliver POSTs the payload. The error return is informational: callers
// have already committed the session and must not roll back on failure.
func (c *Client) Deliver(ctx context.Context, payload domain.CallbackPayload) error {
	c.setStatus(payload.SessionID, StatusSending)

	body, err := json.Marshal(payload)
	if err != nil {
		c.setStatus(payload.SessionID, StatusError)
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		c.setStatus(payload.SessionID, StatusError)
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.setStatus(payload.SessionID, StatusError)
		return fmt.Errorf("deliver callback: %w", err)
	}
	defer resp.Body.Close()

	// The response body is not consulted; only transport success matters.
	if resp.StatusCode >= 400 {
		c.setStatus(payload.SessionID, StatusError)
		return fmt.Errorf("callback endpoint returned %d", resp.StatusCode)
	}

	c.setStatus(payload.SessionID, StatusSuccess)
	slog.Info("Callback delivered",
		"session_id", payload.SessionID,
		"entities", payload.ExtractedIntelligence.TotalEntities())
	return nil
}

// StatusFor returns the last delivery status for a session, or StatusIdle
// when no callback was attempted.
func (c *Client) StatusFor(sessionID string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.statuses[sessionID]; ok {
		return s
	}
	return StatusIdle
}

func (c *Client) setStatus(sessionID string, s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[sessionID] = s
}
