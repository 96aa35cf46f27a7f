package session

import (
	"context"
	"fmt"
	"sync"

	"tradedesk/pkg/platform/sentinel"
)

// InMemoryStore keeps session credentials in memory for tests and
// single-instance deployments.
type InMemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credentials
}

// NewInMemoryStore constructs an empty in-memory credential store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{creds: make(map[string]Credentials)}
}

func (s *InMemoryStore) Save(_ context.Context, key string, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[key] = creds
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, key string) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if creds, ok := s.creds[key]; ok {
		return creds, nil
	}
	return Credentials{}, fmt.Errorf("session credentials not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, key)
	return nil
}
