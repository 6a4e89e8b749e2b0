package ledger

import (
	"maps"
	"strings"
	"sync"
)

const (
	StatusCreated = "created"
	StatusPaid    = "paid"

	// StatusNotFound is synthetic: returned for unknown identifiers, never stored.
	StatusNotFound = "not_found"
)

// NormalizeID lowercases a provider payment identifier. The provider is not
// consistent about casing between the creation response and the webhook, so
// every read and write goes through this.
func NormalizeID(id string) string {
	return strings.ToLower(id)
}

// Ledger tracks the latest known status per payment identifier. Entries are
// never deleted; see the /payments endpoint for the current size.
type Ledger struct {
	mu       sync.RWMutex
	statuses map[string]string
}

func New() *Ledger {
	return &Ledger{
		statuses: make(map[string]string),
	}
}

// SetStatus stores status for the normalized identifier, overwriting any
// previous value, and returns the previous status (StatusNotFound when the
// identifier was unknown).
func (l *Ledger) SetStatus(id, status string) string {
	key := NormalizeID(id)

	l.mu.Lock()
	defer l.mu.Unlock()

	prev, ok := l.statuses[key]
	if !ok {
		prev = StatusNotFound
	}
	l.statuses[key] = status
	return prev
}

// GetStatus returns the stored status for the normalized identifier, or
// StatusNotFound.
func (l *Ledger) GetStatus(id string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	status, ok := l.statuses[NormalizeID(id)]
	if !ok {
		return StatusNotFound
	}
	return status
}

func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.statuses)
}

// Snapshot returns a copy of the current id -> status mapping.
func (l *Ledger) Snapshot() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return maps.Clone(l.statuses)
}
