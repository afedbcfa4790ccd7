package adapter

import (
	"sync"

	"teamsbot/internal/domain"
)

// MemoryStore is the process-lifetime conversation reference cache. Entries
// are never evicted; the latest write for a conversation id wins. Unbounded
// growth over very long-lived processes is a known limitation.
type MemoryStore struct {
	mu   sync.RWMutex
	refs map[string]domain.ConversationReference
}

// NewMemoryStore creates an empty in-memory conversation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{refs: make(map[string]domain.ConversationReference)}
}

func (s *MemoryStore) Get(conversationID string) (domain.ConversationReference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[conversationID]
	return ref, ok
}

func (s *MemoryStore) Put(conversationID string, ref domain.ConversationReference) {
	if conversationID == "" {
		return
	}
	s.mu.Lock()
	s.refs[conversationID] = ref
	s.mu.Unlock()
}

// Len returns the number of cached references.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refs)
}
