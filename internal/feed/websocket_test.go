package feed

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d subscriber(s), got %d", want, hub.SubscriberCount())
}

func TestWebSocketForwardsBroadcasts(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewWebSocketHandler(hub, "", true))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForSubscribers(t, hub, 1)

	session := domain.NewSession("ws-1", domain.StatusActive)
	session.MarkScam()
	hub.Broadcast(session)

	typ, payload, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if typ != websocket.MessageText {
		t.Errorf("expected text message, got %v", typ)
	}
	var got domain.Session
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("failed to decode update: %v", err)
	}
	if got.ID != "ws-1" || !got.ScamDetected {
		t.Errorf("unexpected update: %+v", got)
	}
}

func TestWebSocketUnsubscribesOnClientClose(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewWebSocketHandler(hub, "", true))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	waitForSubscribers(t, hub, 1)

	// A clean client close must tear the subscription down without any
	// broadcast happening in between.
	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	waitForSubscribers(t, hub, 0)
}
