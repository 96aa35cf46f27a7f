package audit

import (
	"time"

	"tradedesk/pkg/domain"
)

// Action names the console operations worth an audit line.
type Action string

const (
	ActionRequestApproved Action = "request.approved"
	ActionRequestRejected Action = "request.rejected"
	ActionUserApproved    Action = "user.approved"
	ActionUserRejected    Action = "user.rejected"
)

// Event is one operator decision. The upstream backend owns request state;
// this trail records who did what from this console and why.
type Event struct {
	ID        string
	Timestamp time.Time
	ActorRole domain.Role
	Action    Action
	// Kind is empty for user-directory events.
	Kind      domain.RequestKind
	SubjectID string
	Reason    string
}
