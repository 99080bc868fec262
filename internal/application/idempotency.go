package application

import "context"

// IdempotencyStore dedupes manual refresh requests for a short window.
type IdempotencyStore interface {
	// TryReserve returns true if key was absent and is now reserved,
	// false if it was already taken.
	TryReserve(ctx context.Context, key string) (bool, error)
}

// NoopIdempotency accepts every key; used when no Redis is configured.
type NoopIdempotency struct{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }

// RefreshKey scopes a client idempotency key to a session.
func RefreshKey(sessionID, key string) string {
	if sessionID == "" {
		sessionID = "default"
	}
	return "ratesync:refresh:" + sessionID + ":" + key
}
