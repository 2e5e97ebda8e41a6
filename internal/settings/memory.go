package settings

import "sync"

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	strings map[string]string
	bools   map[string]bool
	hub     hub
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		bools:   make(map[string]bool),
	}
}

func (s *MemoryStore) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, ok := s.strings[key]; ok {
		return value
	}
	return DefaultString(key)
}

func (s *MemoryStore) SetString(key, value string) error {
	s.mu.Lock()
	previous, ok := s.strings[key]
	if !ok {
		previous = DefaultString(key)
	}
	s.strings[key] = value
	s.mu.Unlock()

	if previous != value {
		s.hub.notify(key)
	}
	return nil
}

func (s *MemoryStore) GetBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, ok := s.bools[key]; ok {
		return value
	}
	return DefaultBool(key)
}

func (s *MemoryStore) SetBool(key string, value bool) error {
	s.mu.Lock()
	previous, ok := s.bools[key]
	if !ok {
		previous = DefaultBool(key)
	}
	s.bools[key] = value
	s.mu.Unlock()

	if previous != value {
		s.hub.notify(key)
	}
	return nil
}

func (s *MemoryStore) Subscribe(key string, fn func(key string)) func() {
	return s.hub.subscribe(key, fn)
}
