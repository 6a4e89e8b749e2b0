package attribution

import (
	"strings"
	"sync"
)

// Metadata carries the marketing identifiers captured when the payment
// intent was created. Both fields are opaque browser cookie values.
type Metadata struct {
	FBP string `json:"fbp,omitempty"`
	FBC string `json:"fbc,omitempty"`
}

func (m Metadata) IsEmpty() bool {
	return m.FBP == "" && m.FBC == ""
}

// Store holds attribution metadata keyed by normalized payment identifier
// until the paid webhook consumes it. One entry per payment awaiting
// confirmation; TakeAndClear is the only way an entry leaves the store.
type Store struct {
	mu      sync.Mutex
	records map[string]Metadata
}

func New() *Store {
	return &Store{
		records: make(map[string]Metadata),
	}
}

// Put stores metadata for the normalized identifier, silently overwriting
// any existing record.
func (s *Store) Put(id string, md Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[strings.ToLower(id)] = md
}

// TakeAndClear removes and returns the record for the normalized identifier.
// The read and the delete happen under one lock acquisition, so concurrent
// callers for the same identifier cannot both observe the record: duplicate
// webhook deliveries consume it at most once.
func (s *Store) TakeAndClear(id string) (Metadata, bool) {
	key := strings.ToLower(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	md, ok := s.records[key]
	if !ok {
		return Metadata{}, false
	}
	delete(s.records, key)
	return md, true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
