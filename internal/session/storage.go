package session

import "sync"

// Key is the tab storage key holding the session identifier.
const Key = "chatWidgetSessionId"

// Storage is tab-scoped string storage. One Storage lives exactly as long as the tab
// it belongs to.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryStorage implements Storage with an in-memory map.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// Get looks up a key.
func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	return value, ok
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStorage) Set(key, value string) {
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

// Clear drops every key, the way a browser clears sessionStorage when the tab closes.
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	s.items = make(map[string]string)
	s.mu.Unlock()
}
