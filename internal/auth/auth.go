// Package auth provides the x-api-key gate for the honeypot API.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// HeaderName is the header carrying the caller's API key.
const HeaderName = "x-api-key"

// Middleware rejects requests whose x-api-key header does not match the
// configured server secret. The check runs before any model call: a
// credential mismatch short-circuits the whole pipeline.
func Middleware(apiKey string) func(http.Handler) http.Handler {
	secret := []byte(strings.TrimSpace(apiKey))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := []byte(strings.TrimSpace(r.Header.Get(HeaderName)))
			if subtle.ConstantTimeCompare(provided, secret) != 1 {
				slog.Warn("Rejected request with invalid API key",
					"path", r.URL.Path, "remote", r.RemoteAddr)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": "Invalid x-api-key provided.",
	})
}
