package agent

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEngagementLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewEngagementLogger(EngagementLogConfig{
		Enabled:   true,
		Dir:       dir,
		QueueSize: 16,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewEngagementLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Log(EngagementEvent{
		SessionID:    "sess-1",
		Mode:         "simulator",
		Sender:       "scammer",
		Text:         "send UPI payment to verify",
		ScamDetected: true,
		Confidence:   92,
	})

	path := filepath.Join(dir, "sess-1.ndjson")
	line := waitForLogLine(t, path)
	var got EngagementEvent
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if got.Text != "send UPI payment to verify" {
		t.Fatalf("unexpected Text: %q", got.Text)
	}
	if !got.ScamDetected || got.Confidence != 92 {
		t.Fatalf("unexpected flags: detected=%v confidence=%d", got.ScamDetected, got.Confidence)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be populated")
	}
}

func TestEngagementLoggerDisabledIsNoOp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewEngagementLogger(EngagementLogConfig{Enabled: false, Dir: dir}, slog.Default())
	if err != nil {
		t.Fatalf("NewEngagementLogger failed: %v", err)
	}
	logger.Log(EngagementEvent{SessionID: "sess-1", Text: "hello"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files from disabled logger, found %d", len(entries))
	}
}

func TestSessionFileNameSanitizesUnsafeIDs(t *testing.T) {
	t.Parallel()

	got := sessionFileName("../etc/passwd")
	if strings.Contains(got, "/") || strings.Contains(got, "..") {
		t.Fatalf("expected sanitized file name, got %q", got)
	}
	if !strings.HasSuffix(got, ".ndjson") {
		t.Fatalf("expected .ndjson suffix, got %q", got)
	}
}

func TestSanitizeTextStripsControlCharacters(t *testing.T) {
	t.Parallel()

	raw := "\x1b[31murgent\x1b[0m\x00 verify now"
	clean := sanitizeText(raw)
	if strings.ContainsRune(clean, '\x1b') || strings.ContainsRune(clean, '\x00') {
		t.Fatalf("expected control characters stripped: %q", clean)
	}
	if !strings.Contains(clean, "verify now") {
		t.Fatalf("expected readable text to remain: %q", clean)
	}
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for log file %s", path)
	return ""
}
