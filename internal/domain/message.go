// Package domain contains core domain types for the honeypot server.
package domain

import (
	"time"
)

// Sender identifies who produced a message in an engagement.
type Sender string

const (
	// SenderScammer is the inbound party being engaged.
	SenderScammer Sender = "scammer"
	// SenderUser is a real human target (appears in imported histories).
	SenderUser Sender = "user"
	// SenderAgent is the honeypot persona.
	SenderAgent Sender = "agent"
)

// IsValid reports whether s is one of the known senders.
func (s Sender) IsValid() bool {
	switch s {
	case SenderScammer, SenderUser, SenderAgent:
		return true
	}
	return false
}

// Message is a single conversation entry. Messages are immutable once
// created and ordered by insertion, not re-sorted by timestamp.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(sender Sender, text string) Message {
	return Message{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
}
