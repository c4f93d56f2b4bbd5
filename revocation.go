package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationEntry records a revoked access token until its natural expiry.
type RevocationEntry struct {
	TokenID   string
	ExpiresAt time.Time
}

// RevocationRegistry is the process local denylist of access token jtis
// that must be rejected before their natural expiry. It is volatile by
// design: a restart resets it, which is acceptable because access token
// TTLs are short. The registry is always an injected instance shared by
// the request path and the sweep loop, never package state, and all
// operations are safe under concurrent use.
type RevocationRegistry struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	clock   Clock
	logger  Logger
}

// NewRevocationRegistry creates an empty registry.
func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{
		entries: make(map[string]time.Time),
		clock:   systemClock{},
		logger:  defLogger{},
	}
}

// WithClock overrides the time source, mostly for tests.
func (r *RevocationRegistry) WithClock(clock Clock) *RevocationRegistry {
	if clock != nil {
		r.clock = clock
	}
	return r
}

func (r *RevocationRegistry) WithLogger(logger Logger) *RevocationRegistry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Revoke adds a token id to the registry until expiresAt. Revoking the
// same id again is a no-op.
func (r *RevocationRegistry) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[tokenID]; ok {
		return
	}
	r.entries[tokenID] = expiresAt
}

// IsRevoked reports membership. Safe to call concurrently with Revoke and
// Sweep.
func (r *RevocationRegistry) IsRevoked(tokenID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[tokenID]
	return ok
}

// Len returns the number of live entries.
func (r *RevocationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Sweep removes every entry whose expiry has passed as of call time and
// returns how many were dropped. An entry expiring exactly now is
// removed; one expiring a nanosecond later is kept.
func (r *RevocationRegistry) Sweep() int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for tokenID, expiresAt := range r.entries {
		if expiresAt.After(now) {
			continue
		}
		delete(r.entries, tokenID)
		removed++
	}

	return removed
}

// Run sweeps on a fixed interval until ctx is cancelled. Start it once at
// process startup; it owns no per-iteration timeout, and the registry
// lock is held only for the duration of each O(n) scan so a slow pass
// cannot stall request handling beyond that.
func (r *RevocationRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				r.logger.Debug("revocation sweep removed %d expired entries", removed)
			}
		}
	}
}

// Entries returns a snapshot of the registry, mostly for diagnostics.
func (r *RevocationRegistry) Entries() []RevocationEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RevocationEntry, 0, len(r.entries))
	for tokenID, expiresAt := range r.entries {
		out = append(out, RevocationEntry{TokenID: tokenID, ExpiresAt: expiresAt})
	}
	return out
}
