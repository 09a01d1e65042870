package presence

import (
	"sync"
	"time"

	"github.com/tzkusman/live-storefront/internal/domain"
)

type entry struct {
	cursor   domain.Cursor
	lastSeq  uint64
	lastSeen time.Time
}

// Registry is the channel's aggregate state: a mapping from participant
// identity to its most recently published record. Each participant is a
// single overwrite slot guarded by a per-publisher sequence number, so an
// update arriving late can never regress the displayed position.
type Registry struct {
	mu sync.RWMutex
	m  map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]entry)}
}

// Apply records a participant's update. The first update for an identity is
// always accepted; after that, updates with seq at or below the last applied
// one are discarded. Returns whether the update was applied and whether the
// identity is new to the registry.
func (r *Registry) Apply(c domain.Cursor, seq uint64, now time.Time) (applied, joined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.m[c.UserID]
	if ok && seq <= e.lastSeq {
		// Stale or duplicate; keep the newer record but refresh liveness,
		// since the participant is evidently still publishing.
		e.lastSeen = now
		r.m[c.UserID] = e
		return false, false
	}

	r.m[c.UserID] = entry{cursor: c, lastSeq: seq, lastSeen: now}
	return true, !ok
}

// Rejoin resets the seq guard for an identity so a fresh session publishes
// from seq 1 again. A prior session that died without a leave may have left a
// high watermark behind (a warm-loaded snapshot carries it across restarts);
// without the reset every publish of the new session would be discarded as
// stale. The old record is kept until the next accepted publish overwrites it.
func (r *Registry) Rejoin(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.m[userID]; ok {
		e.lastSeq = 0
		r.m[userID] = e
	}
}

// Touch refreshes a participant's liveness without changing its record.
func (r *Registry) Touch(userID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.m[userID]; ok {
		e.lastSeen = now
		r.m[userID] = e
	}
}

// Remove drops a participant. Returns true if it was present.
func (r *Registry) Remove(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[userID]; !ok {
		return false
	}
	delete(r.m, userID)
	return true
}

// Get returns a participant's current record.
func (r *Registry) Get(userID string) (domain.Cursor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.m[userID]
	return e.cursor, ok
}

// Snapshot returns the full membership state. The returned map is a copy;
// every sync sent to clients is built from one of these, so a receiver
// replacing its view with a snapshot observes exactly the aggregate state.
func (r *Registry) Snapshot() map[string]domain.Cursor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]domain.Cursor, len(r.m))
	for id, e := range r.m {
		snap[id] = e.cursor
	}
	return snap
}

// Sweep removes every participant not seen within ttl and returns the
// removed identities. This replaces the managed channel's implicit leave
// for connections that vanish without one.
func (r *Registry) Sweep(ttl time.Duration, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []string
	for id, e := range r.m {
		if now.Sub(e.lastSeen) > ttl {
			delete(r.m, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// Len returns the number of tracked participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}
