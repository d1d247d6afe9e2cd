package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

type fakeEngine struct {
	detection  Detection
	reply      string
	extraction Extraction
	err        error
}

func (f *fakeEngine) DetectScamIntent(_ context.Context, _ string, _ []domain.Message) (Detection, error) {
	return f.detection, f.err
}

func (f *fakeEngine) GenerateReply(_ context.Context, _ string, _ []domain.Message) (string, error) {
	return f.reply, f.err
}

func (f *fakeEngine) ExtractIntelligence(_ context.Context, _ []domain.Message) (Extraction, error) {
	return f.extraction, f.err
}

func TestServicePassesThroughOnSuccess(t *testing.T) {
	svc := NewService(&fakeEngine{
		detection: Detection{IsScam: true, Confidence: 88, Reason: "UPI solicitation"},
		reply:     "Beta, which UPI id should I use?",
		extraction: Extraction{
			Intelligence: domain.Intelligence{UPIIDs: []string{"fraud@upi"}},
			Notes:        "urgency play",
		},
	})
	ctx := context.Background()

	d := svc.DetectScamIntent(ctx, "send UPI payment", nil)
	if !d.IsScam || d.Confidence != 88 {
		t.Errorf("unexpected detection: %+v", d)
	}
	if got := svc.GenerateReply(ctx, "send UPI payment", nil); got != "Beta, which UPI id should I use?" {
		t.Errorf("unexpected reply: %q", got)
	}
	ex := svc.ExtractIntelligence(ctx, nil)
	if len(ex.Intelligence.UPIIDs) != 1 {
		t.Errorf("unexpected extraction: %+v", ex)
	}
}

func TestServiceAbsorbsEngineErrors(t *testing.T) {
	svc := NewService(&fakeEngine{err: errors.New("model unavailable")})
	ctx := context.Background()

	d := svc.DetectScamIntent(ctx, "anything", nil)
	if d.IsScam {
		t.Error("detection error must fail closed as non-scam")
	}
	if d.Confidence != 0 {
		t.Errorf("expected zero confidence on failure, got %d", d.Confidence)
	}

	if got := svc.GenerateReply(ctx, "anything", nil); got != FallbackReply {
		t.Errorf("expected fallback reply, got %q", got)
	}

	ex := svc.ExtractIntelligence(ctx, nil)
	if !ex.Intelligence.IsEmpty() {
		t.Error("expected empty intelligence on failure")
	}
	if ex.Notes != FallbackNotes {
		t.Errorf("expected fallback notes, got %q", ex.Notes)
	}
}

func TestServiceNilEngineUsesFallbacks(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	if d := svc.DetectScamIntent(ctx, "hello", nil); d.IsScam {
		t.Error("nil engine must classify non-scam")
	}
	if got := svc.GenerateReply(ctx, "hello", nil); got != FallbackReply {
		t.Errorf("expected fallback reply, got %q", got)
	}
	if ex := svc.ExtractIntelligence(ctx, nil); ex.Notes != FallbackNotes {
		t.Errorf("expected fallback notes, got %q", ex.Notes)
	}
}

func TestCleanJSONStripsFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"isScam\":true}", "{\"isScam\":true}"},
		{"```json\n{\"isScam\":true}\n```", "{\"isScam\":true}"},
		{"```\n{\"isScam\":false}\n```", "{\"isScam\":false}"},
	}
	for _, tc := range cases {
		if got := cleanJSON(tc.in); got != tc.want {
			t.Errorf("cleanJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatHistory(t *testing.T) {
	history := []domain.Message{
		domain.NewMessage(domain.SenderScammer, "your account is blocked"),
		domain.NewMessage(domain.SenderAgent, "oh no, what to do?"),
	}
	out := formatHistory(history)
	for _, want := range []string{"scammer: your account is blocked", "agent: oh no, what to do?"} {
		if !containsLine(out, want) {
			t.Errorf("expected history to contain %q, got:\n%s", want, out)
		}
	}
}

func containsLine(haystack, needle string) bool {
	for _, line := range splitLines(haystack) {
		if len(line) >= len(needle) && line[len(line)-len(needle):] == needle {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
