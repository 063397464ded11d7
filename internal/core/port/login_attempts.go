package port

import (
	"context"
	"time"
)

// LoginAttemptStore tracks login attempts per client so the transport layer
// can throttle brute-force attempts against /login. Keys are opaque to the
// store; the caller scopes them (one key per client IP).
type LoginAttemptStore interface {
	// Record registers one attempt at the given instant.
	Record(ctx context.Context, key string, at time.Time) error
	// Prune discards attempts made strictly before the given instant.
	Prune(ctx context.Context, key string, before time.Time) error
	// CountSince returns how many attempts were made at or after since.
	CountSince(ctx context.Context, key string, since time.Time) (int, error)
	// OldestSince returns the earliest attempt at or after since, and false
	// when none is recorded.
	OldestSince(ctx context.Context, key string, since time.Time) (time.Time, bool, error)
}
