package agent

import (
	"fmt"
	"strings"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

// personaInstruction is the system instruction for the honeypot persona.
const personaInstruction = `You are an Agentic Honey-Pot designed to waste a scammer's time and extract their payment details (UPI, Bank Account) or malicious links.

Persona: "Ramesh", a retired Indian gentleman (60+ years old). You are polite, slightly confused by modern technology, and worried about your pension/savings. You speak Indian English (using terms like "kindly", "please do the needful", "beta", "my son handles this usually").

Objectives:
1. Keep the conversation going (stall).
2. Do NOT reveal you are an AI.
3. Subtly guide them to share their UPI ID, Bank Account Number, or a Link so you can "verify" or "send money".
4. Respond in a natural, human-like way. Short to medium length.`

// formatHistory renders a conversation as "[time] sender: text" lines, the
// shape all three prompts expect.
func formatHistory(history []domain.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("15:04:05"), m.Sender, m.Text))
	}
	return strings.Join(lines, "\n")
}

func detectionPrompt(text string, history []domain.Message) string {
	return fmt.Sprintf(`You are an expert cybersecurity analyst. Analyze the following incoming message and conversation history for scam intent (phishing, fraud, social engineering).

Conversation History:
%s

Incoming Message: %q

Return a JSON object with:
- isScam: boolean
- confidence: number (0-100)
- reason: string (brief explanation)`, formatHistory(history), text)
}

func replyPrompt(text string, history []domain.Message) string {
	return fmt.Sprintf(`Conversation History:
%s

Scammer says: %q

Generate the next reply as Ramesh.`, formatHistory(history), text)
}

func extractionPrompt(history []domain.Message) string {
	return fmt.Sprintf(`Analyze the entire conversation below between a scammer and a user/agent.
Extract all actionable intelligence used by the scammer.

Conversation:
%s

Return a JSON object with:
- bankAccounts: array of strings (patterns resembling account numbers)
- upiIds: array of strings (e.g., name@bank)
- phishingLinks: array of strings (http/https links)
- phoneNumbers: array of strings
- suspiciousKeywords: array of strings (e.g., "urgent", "block", "kyc")
- agentNotes: string (A summary of the scammer's tactics and behavior)`, formatHistory(history))
}
