package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
	"google.golang.org/genai"
)

const defaultModel = "gemini-3-flash-preview"

// Interface compliance check.
var _ Engine = (*GeminiEngine)(nil)

// GeminiEngine implements Engine using the Google Gemini API.
type GeminiEngine struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// Option configures a [GeminiEngine].
type Option func(*GeminiEngine)

// WithModel sets the model ID. Default is gemini-3-flash-preview.
func WithModel(model string) Option {
	return func(e *GeminiEngine) {
		if model != "" {
			e.model = model
		}
	}
}

// WithTimeout bounds each model call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *GeminiEngine) { e.timeout = d }
}

// NewGemini creates a Gemini-backed engine with the given API key.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*GeminiEngine, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	e := &GeminiEngine{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// DetectScamIntent classifies the current message given prior history.
func (e *GeminiEngine) DetectScamIntent(ctx context.Context, text string, history []domain.Message) (Detection, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"isScam":     {Type: genai.TypeBoolean},
				"confidence": {Type: genai.TypeInteger},
				"reason":     {Type: genai.TypeString},
			},
			Required: []string{"isScam", "confidence", "reason"},
		},
	}

	raw, err := e.generate(ctx, detectionPrompt(text, history), config)
	if err != nil {
		return Detection{}, err
	}

	var d Detection
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &d); err != nil {
		return Detection{}, fmt.Errorf("decode detection response: %w", err)
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 100 {
		d.Confidence = 100
	}
	return d, nil
}

// GenerateReply produces the next persona reply to the scammer.
func (e *GeminiEngine) GenerateReply(ctx context.Context, text string, history []domain.Message) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: personaInstruction}},
		},
	}

	reply, err := e.generate(ctx, replyPrompt(text, history), config)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "...", nil
	}
	return reply, nil
}

// extractionResponse is the wire shape of the extraction call; agentNotes
// rides alongside the entity arrays.
type extractionResponse struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
	AgentNotes         string   `json:"agentNotes"`
}

// ExtractIntelligence mines the full conversation for actionable entities.
func (e *GeminiEngine) ExtractIntelligence(ctx context.Context, history []domain.Message) (Extraction, error) {
	stringArray := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"bankAccounts":       stringArray,
				"upiIds":             stringArray,
				"phishingLinks":      stringArray,
				"phoneNumbers":       stringArray,
				"suspiciousKeywords": stringArray,
				"agentNotes":         {Type: genai.TypeString},
			},
		},
	}

	raw, err := e.generate(ctx, extractionPrompt(history), config)
	if err != nil {
		return Extraction{}, err
	}

	var resp extractionResponse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &resp); err != nil {
		return Extraction{}, fmt.Errorf("decode extraction response: %w", err)
	}

	notes := resp.AgentNotes
	if notes == "" {
		notes = "No notes generated."
	}
	return Extraction{
		Intelligence: domain.Intelligence{
			BankAccounts:       orEmpty(resp.BankAccounts),
			UPIIDs:             orEmpty(resp.UPIIDs),
			PhishingLinks:      orEmpty(resp.PhishingLinks),
			PhoneNumbers:       orEmpty(resp.PhoneNumbers),
			SuspiciousKeywords: orEmpty(resp.SuspiciousKeywords),
		},
		Notes: notes,
	}, nil
}

func (e *GeminiEngine) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", e.model)
	}
	return text, nil
}

// cleanJSON strips markdown code fences the model sometimes wraps around
// JSON output despite the response MIME type.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
