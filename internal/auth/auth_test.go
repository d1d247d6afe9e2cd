package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func protectedHandler(t *testing.T, hit *bool) http.Handler {
	t.Helper()
	return Middleware("secret-key")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddlewareAllowsMatchingKey(t *testing.T) {
	var hit bool
	h := protectedHandler(t, &hit)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message", nil)
	req.Header.Set(HeaderName, "secret-key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !hit {
		t.Fatal("expected handler to run")
	}
}

func TestMiddlewareTrimsWhitespace(t *testing.T) {
	var hit bool
	h := protectedHandler(t, &hit)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message", nil)
	req.Header.Set(HeaderName, "  secret-key  ")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !hit {
		t.Fatalf("expected trimmed key to be accepted, got %d", w.Code)
	}
}

func TestMiddlewareRejectsBadKey(t *testing.T) {
	for _, key := range []string{"", "wrong-key"} {
		var hit bool
		h := protectedHandler(t, &hit)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/message", nil)
		if key != "" {
			req.Header.Set(HeaderName, key)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("key %q: expected 401, got %d", key, w.Code)
		}
		if hit {
			t.Errorf("key %q: handler must not run", key)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode 401 body: %v", err)
		}
		if body["error"] != "Unauthorized" {
			t.Errorf("expected Unauthorized error, got %q", body["error"])
		}
	}
}
