package audit

import "context"

// Store persists the decision trail. Append-only; events are never updated
// or deleted by the console.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
