package session

import "context"

// Credentials is the primary session credential and its optional refresh
// companion. The two slots live and die together: logout and expiry purge
// clear both.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Error Contract:
// All store methods follow this error pattern:
// - Load returns sentinel.ErrNotFound (wrapped) when the key has no credentials
// - Clear is idempotent: clearing an absent key succeeds
// - Infrastructure failures are returned wrapped with context
//
// Store holds session credentials keyed by console session key. Writes must
// be visible to the next read; there is no caching layer between the store
// and the oracle.
type Store interface {
	Save(ctx context.Context, key string, creds Credentials) error
	Load(ctx context.Context, key string) (Credentials, error)
	Clear(ctx context.Context, key string) error
}
