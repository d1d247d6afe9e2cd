package domain

import (
	"time"
)

// Status describes the lifecycle state of a session.
type Status string

const (
	// StatusActive is a simulator session with no scam detected yet.
	StatusActive Status = "active"
	// StatusCompleted is a session that was explicitly wrapped up.
	StatusCompleted Status = "completed"
	// StatusScamDetected is a session flagged as a scam engagement.
	StatusScamDetected Status = "scam_detected"
	// StatusSafe is an API session whose latest turn was classified clean.
	StatusSafe Status = "safe"
)

// Session is one conversation with a suspected scammer. It is created on the
// first message and upserted on every turn; there is no delete lifecycle
// beyond retention cleanup.
type Session struct {
	ID             string       `json:"id"`
	Status         Status       `json:"status"`
	Messages       []Message    `json:"messages"`
	ScamConfidence int          `json:"scamConfidence"`
	Intelligence   Intelligence `json:"extractedIntelligence"`
	AgentNotes     string       `json:"agentNotes"`
	// ScamDetected is monotonic: once true it stays true for the lifetime of
	// the session, regardless of how later turns classify.
	ScamDetected bool      `json:"scamDetected"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// NewSession creates an empty session in the given initial status.
func NewSession(id string, status Status) *Session {
	return &Session{
		ID:           id,
		Status:       status,
		Messages:     []Message{},
		Intelligence: EmptyIntelligence(),
		LastUpdated:  time.Now(),
	}
}

// Append adds messages to the conversation, preserving order.
func (s *Session) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// MarkScam flags the session as a scam engagement. The flag never reverts.
func (s *Session) MarkScam() {
	s.ScamDetected = true
	s.Status = StatusScamDetected
}
