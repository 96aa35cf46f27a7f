package domain

// IDs issued by the upstream trading backend are opaque to the console; we
// never parse or generate them, only carry them through.
type (
	// RequestID identifies a deposit or withdrawal request.
	RequestID string

	// UserID identifies a backend user (client, mediator or admin).
	UserID string
)

func (id RequestID) String() string { return string(id) }
func (id UserID) String() string    { return string(id) }
