package storage

import (
	"context"

	"github.com/poiesic/tastevec/core"
)

// UserStateRepository provides durable storage for online user taste
// vectors. Implementations must be safe for concurrent use; per-user
// write atomicity is the caller's responsibility (the engine serializes
// read-modify-write per user_id).
type UserStateRepository interface {
	// LoadAll returns every persisted user state. Used once at startup
	// to seed the in-memory table.
	LoadAll(ctx context.Context) ([]*core.UserState, error)

	// Save persists the current state for one user, overwriting any
	// previous vector.
	Save(ctx context.Context, state *core.UserState) error

	// Get retrieves one user's state. Returns ErrNotFound if absent.
	Get(ctx context.Context, userID string) (*core.UserState, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// InteractionLogger is the append-only interaction log.
type InteractionLogger interface {
	// Append durably writes one record. Each record is a single write;
	// a concurrent reader never observes a partial record.
	Append(record *core.InteractionRecord) error

	// LastIndices scans existing log contents and returns the highest
	// msg_index seen per user_id, so restarts continue each user's
	// sequence instead of resetting it. Unparseable lines are skipped.
	LastIndices() (map[string]int, error)

	// Close closes the underlying log file.
	Close() error
}
