package agent

import (
	"context"
	"log/slog"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

// Fallback values returned when a model call fails. Classification fails
// closed as non-scam so a transient API error never crashes a turn; the
// pipeline favors forward progress over accurate error propagation.
const (
	// FallbackReply is returned when persona reply generation fails.
	FallbackReply = "Hello? I am not understanding. Please explain clearly."
	// FallbackNotes is returned when intelligence extraction fails.
	FallbackNotes = "Extraction failed."

	fallbackDetectionReason = "Error in analysis or API connectivity."
)

// Service wraps an Engine with the unified failure policy: every call gets
// a single attempt, and any error is absorbed into a safe default. Errors
// never propagate past this boundary.
type Service struct {
	engine Engine
}

// NewService creates a service around the given engine. A nil engine is
// allowed (AI disabled); every call then returns its fallback.
func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// DetectScamIntent classifies a message, defaulting to non-scam on failure.
func (s *Service) DetectScamIntent(ctx context.Context, text string, history []domain.Message) Detection {
	if s.engine == nil {
		return fallbackDetection()
	}
	d, err := s.engine.DetectScamIntent(ctx, text, history)
	if err != nil {
		slog.Error("Scam detection failed, classifying as non-scam", "error", err)
		return fallbackDetection()
	}
	return d
}

// GenerateReply produces the next persona reply, with a fixed fallback.
func (s *Service) GenerateReply(ctx context.Context, text string, history []domain.Message) string {
	if s.engine == nil {
		return FallbackReply
	}
	reply, err := s.engine.GenerateReply(ctx, text, history)
	if err != nil {
		slog.Error("Persona reply generation failed, using fallback", "error", err)
		return FallbackReply
	}
	return reply
}

// ExtractIntelligence mines the conversation, returning an empty snapshot
// on failure.
func (s *Service) ExtractIntelligence(ctx context.Context, history []domain.Message) Extraction {
	if s.engine == nil {
		return fallbackExtraction()
	}
	ex, err := s.engine.ExtractIntelligence(ctx, history)
	if err != nil {
		slog.Error("Intelligence extraction failed", "error", err)
		return fallbackExtraction()
	}
	return ex
}

func fallbackDetection() Detection {
	return Detection{IsScam: false, Confidence: 0, Reason: fallbackDetectionReason}
}

func fallbackExtraction() Extraction {
	return Extraction{
		Intelligence: domain.EmptyIntelligence(),
		Notes:        FallbackNotes,
	}
}
