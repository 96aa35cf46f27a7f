package domain

import "time"

// RequestKind distinguishes the two parallel financial request directories.
// The kinds share a shape but not a backend contract: withdrawal rejection
// carries a reason, deposit rejection does not.
type RequestKind string

const (
	KindDeposit    RequestKind = "DEPOSIT"
	KindWithdrawal RequestKind = "WITHDRAWAL"
)

func (k RequestKind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// RequestStatus is the three-state request lifecycle. PENDING is the only
// mutable state; APPROVED and REJECTED are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// StatusFilter is the display filter applied client-side over a full fetch.
type StatusFilter string

const (
	FilterAll      StatusFilter = "ALL"
	FilterPending  StatusFilter = "PENDING"
	FilterApproved StatusFilter = "APPROVED"
	FilterRejected StatusFilter = "REJECTED"
)

func (f StatusFilter) Valid() bool {
	switch f {
	case FilterAll, FilterPending, FilterApproved, FilterRejected:
		return true
	default:
		return false
	}
}

// Matches reports whether a request with the given status passes the filter.
func (f StatusFilter) Matches(status RequestStatus) bool {
	return f == FilterAll || string(f) == string(status)
}

// FinancialRequest is a deposit or withdrawal awaiting disposition. The
// backend owns the authoritative copy; the console only ever holds a fetched
// snapshot of it.
type FinancialRequest struct {
	ID       RequestID `json:"id"`
	UserID   UserID    `json:"userId"`
	UserName string    `json:"userName"`
	Email    string    `json:"email"`
	// Amount is a positive decimal; the backend contract transmits it as a
	// JSON number.
	Amount          float64       `json:"amount"`
	Note            string        `json:"note,omitempty"`
	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	// ProcessedAt is set exactly once, when the request leaves PENDING.
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// Pending reports whether the request may still be mutated.
func (r FinancialRequest) Pending() bool {
	return r.Status == StatusPending
}

// PendingUser is a client or mediator account awaiting onboarding approval.
type PendingUser struct {
	ID            UserID    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	RequestedRole Role      `json:"requestedRole"`
	CreatedAt     time.Time `json:"createdAt"`
}
