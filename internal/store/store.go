// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

// Repository defines the interface for persisting honeypot sessions.
type Repository interface {
	// GetSession retrieves a session by its id. Returns (nil, nil) when no
	// session with that id exists.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// UpsertSession creates or replaces a session record. The match key is
	// the session id; an existing row is replaced in place, a new id is
	// appended after all existing rows. The stored scam flag is monotonic:
	// an upsert can set it but never clear it.
	UpsertSession(ctx context.Context, session *domain.Session) error

	// ListSessions returns all sessions in insertion order.
	ListSessions(ctx context.Context) ([]*domain.Session, error)

	// CountSessions returns the number of stored sessions.
	CountSessions(ctx context.Context) (int64, error)

	// CleanupExpiredSessions removes sessions not updated within ttl and
	// returns how many rows were deleted.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
