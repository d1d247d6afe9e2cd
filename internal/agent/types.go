// Package agent implements the AI capability layer of the honeypot:
// scam detection, persona replies, and intelligence extraction.
package agent

import (
	"context"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

// Detection is the classifier's judgment on a single inbound message.
type Detection struct {
	IsScam     bool   `json:"isScam"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// Extraction is the structured intelligence pulled from a full conversation.
type Extraction struct {
	Intelligence domain.Intelligence `json:"intelligence"`
	Notes        string              `json:"notes"`
}

// Engine is the generative-model backend. Implementations may fail; callers
// go through Service, which applies the fallback policy.
type Engine interface {
	// DetectScamIntent classifies the current message given prior history.
	DetectScamIntent(ctx context.Context, text string, history []domain.Message) (Detection, error)

	// GenerateReply produces the next persona reply to the scammer.
	GenerateReply(ctx context.Context, text string, history []domain.Message) (string, error)

	// ExtractIntelligence mines the full conversation for actionable entities.
	ExtractIntelligence(ctx context.Context, history []domain.Message) (Extraction, error)
}
