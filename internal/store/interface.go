package store

import (
	"context"

	"github.com/tzkusman/live-storefront/internal/domain"
)

// PresenceStore shares channel state across server instances: a keyed
// snapshot of the latest record per participant, plus a pub/sub fan-out of
// individual updates.
type PresenceStore interface {
	// SetCursor stores a participant's latest record and sequence number.
	SetCursor(ctx context.Context, c domain.Cursor, seq uint64) error
	// RemoveCursor drops a participant from the shared snapshot.
	RemoveCursor(ctx context.Context, userID string) error
	// LoadCursors returns the shared snapshot for warm-starting a registry.
	LoadCursors(ctx context.Context) (map[string]StoredCursor, error)
	// PublishUpdate fans an update (or leave) out to peer instances.
	PublishUpdate(ctx context.Context, payload domain.CursorUpdatePayload) error
	Close() error
}

// StoredCursor is a record plus its sequence number as kept in the store.
type StoredCursor struct {
	Cursor    domain.Cursor `json:"cursor"`
	Seq       uint64        `json:"seq"`
	UpdatedAt int64         `json:"updated_at"`
}
