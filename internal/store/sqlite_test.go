package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "honeypot.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newTestSession(id string) *domain.Session {
	s := domain.NewSession(id, domain.StatusActive)
	s.Append(domain.NewMessage(domain.SenderScammer, "hello"))
	return s
}

func TestGetSessionMissing(t *testing.T) {
	repo := newTestStore(t)

	sess, err := repo.GetSession(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil session for unknown id, got %+v", sess)
	}
}

func TestUpsertSessionReplacesNotDuplicates(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	s := newTestSession("s1")
	if err := repo.UpsertSession(ctx, s); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	s.Append(domain.NewMessage(domain.SenderAgent, "who is this?"))
	s.ScamConfidence = 12
	if err := repo.UpsertSession(ctx, s); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	n, err := repo.CountSessions(ctx)
	if err != nil {
		t.Fatalf("CountSessions failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 session after double upsert, got %d", n)
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.ScamConfidence != 12 {
		t.Errorf("expected confidence 12, got %d", got.ScamConfidence)
	}
}

func TestUpsertSessionNewIDGrowsStoreByOne(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.UpsertSession(ctx, newTestSession("s1")); err != nil {
		t.Fatalf("upsert s1 failed: %v", err)
	}
	if err := repo.UpsertSession(ctx, newTestSession("s2")); err != nil {
		t.Fatalf("upsert s2 failed: %v", err)
	}

	n, err := repo.CountSessions(ctx)
	if err != nil {
		t.Fatalf("CountSessions failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 sessions, got %d", n)
	}
}

func TestListSessionsInsertionOrder(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.UpsertSession(ctx, newTestSession(id)); err != nil {
			t.Fatalf("upsert %s failed: %v", id, err)
		}
	}
	// Updating the first entry must not move it.
	first := newTestSession("a")
	first.ScamConfidence = 99
	if err := repo.UpsertSession(ctx, first); err != nil {
		t.Fatalf("update a failed: %v", err)
	}

	sessions, err := repo.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(sessions) != len(want) {
		t.Fatalf("expected %d sessions, got %d", len(want), len(sessions))
	}
	for i, id := range want {
		if sessions[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, sessions[i].ID)
		}
	}
	if sessions[0].ScamConfidence != 99 {
		t.Errorf("expected updated confidence on a, got %d", sessions[0].ScamConfidence)
	}
}

func TestScamFlagNeverReverts(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	s := newTestSession("s1")
	s.MarkScam()
	s.ScamConfidence = 90
	if err := repo.UpsertSession(ctx, s); err != nil {
		t.Fatalf("upsert flagged session failed: %v", err)
	}

	// A later turn classified clean must not clear the stored flag.
	clean := newTestSession("s1")
	clean.ScamDetected = false
	clean.Status = domain.StatusScamDetected
	clean.ScamConfidence = 0
	if err := repo.UpsertSession(ctx, clean); err != nil {
		t.Fatalf("upsert clean turn failed: %v", err)
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !got.ScamDetected {
		t.Fatal("stored scam flag reverted on clean upsert")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	s := newTestSession("s1")
	s.Intelligence = domain.Intelligence{
		BankAccounts:       []string{"1234567890"},
		UPIIDs:             []string{"fraud@upi"},
		PhishingLinks:      []string{"http://scam-link.com"},
		PhoneNumbers:       []string{"+911234567890"},
		SuspiciousKeywords: []string{"urgent", "kyc"},
	}
	s.AgentNotes = "classic KYC pressure play"
	if err := repo.UpsertSession(ctx, s); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.AgentNotes != s.AgentNotes {
		t.Errorf("agent notes mismatch: %q", got.AgentNotes)
	}
	if got.Intelligence.TotalEntities() != 6 {
		t.Errorf("expected 6 entities after round trip, got %d", got.Intelligence.TotalEntities())
	}
	if got.Messages[0].Sender != domain.SenderScammer {
		t.Errorf("unexpected first sender: %s", got.Messages[0].Sender)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	stale := newTestSession("stale")
	stale.LastUpdated = time.Now().Add(-48 * time.Hour)
	fresh := newTestSession("fresh")

	if err := repo.UpsertSession(ctx, stale); err != nil {
		t.Fatalf("upsert stale failed: %v", err)
	}
	if err := repo.UpsertSession(ctx, fresh); err != nil {
		t.Fatalf("upsert fresh failed: %v", err)
	}

	deleted, err := repo.CleanupExpiredSessions(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	if got, _ := repo.GetSession(ctx, "stale"); got != nil {
		t.Error("stale session survived cleanup")
	}
	if got, _ := repo.GetSession(ctx, "fresh"); got == nil {
		t.Error("fresh session was deleted")
	}
}
