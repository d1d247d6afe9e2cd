package domain

// CallbackPayload is the projection of a Session reported to the external
// evaluation endpoint. It is derived per scam-positive turn and never stored.
type CallbackPayload struct {
	SessionID              string       `json:"sessionId"`
	ScamDetected           bool         `json:"scamDetected"`
	TotalMessagesExchanged int          `json:"totalMessagesExchanged"`
	ExtractedIntelligence  Intelligence `json:"extractedIntelligence"`
	AgentNotes             string       `json:"agentNotes"`
}

// NewCallbackPayload builds the callback projection from a session.
func NewCallbackPayload(s *Session) CallbackPayload {
	return CallbackPayload{
		SessionID:              s.ID,
		ScamDetected:           s.ScamDetected,
		TotalMessagesExchanged: len(s.Messages),
		ExtractedIntelligence:  s.Intelligence,
		AgentNotes:             s.AgentNotes,
	}
}
