// Package approval implements the financial request workflow: deposit and
// withdrawal directories fetched in full from the trading backend, filtered
// locally, and mutated one request at a time by an operator.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tradedesk/internal/approval/metrics"
	"tradedesk/internal/audit"
	"tradedesk/pkg/domain"
	domainerrors "tradedesk/pkg/domain-errors"
	"tradedesk/pkg/requestcontext"
)

// DefaultRejectionReason substitutes for a blank withdrawal rejection reason.
// Deposit rejections never transmit a reason.
const DefaultRejectionReason = "No reason provided"

// Directory is the upstream request directory. Listing is always a full
// fetch; there is no server-side filtering or pagination in the contract.
type Directory interface {
	ListRequests(ctx context.Context, kind domain.RequestKind) ([]domain.FinancialRequest, error)
	ApproveRequest(ctx context.Context, kind domain.RequestKind, id domain.RequestID) error
	RejectRequest(ctx context.Context, kind domain.RequestKind, id domain.RequestID, reason *string) error
}

// AuditPublisher records operator decisions. Audit failures never fail the
// decision itself.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Engine coordinates the approval workflow over one active request kind.
// It owns the fetched snapshot, the per-request processing markers, and the
// PENDING precondition checks that the upstream API leaves to callers.
type Engine struct {
	dir     Directory
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *metrics.Metrics

	group singleflight.Group

	mu         sync.Mutex
	activeKind domain.RequestKind
	snapshots  map[domain.RequestKind][]domain.FinancialRequest
	processing map[domain.RequestID]struct{}
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(e *Engine) {
		e.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func New(dir Directory, opts ...Option) (*Engine, error) {
	if dir == nil {
		return nil, fmt.Errorf("directory is required")
	}

	e := &Engine{
		dir:        dir,
		logger:     slog.Default(),
		snapshots:  make(map[domain.RequestKind][]domain.FinancialRequest),
		processing: make(map[domain.RequestID]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// List returns the requests of the given kind that pass the filter.
//
// Switching kinds discards the previous kind's snapshot and fetches fresh;
// changing only the filter re-slices the held snapshot without touching the
// directory. Concurrent listers of the same kind share a single fetch.
func (e *Engine) List(ctx context.Context, kind domain.RequestKind, filter domain.StatusFilter) ([]domain.FinancialRequest, error) {
	if !kind.Valid() {
		return nil, domainerrors.New(domainerrors.CodeValidation, fmt.Sprintf("unknown request kind %q", kind))
	}
	if !filter.Valid() {
		return nil, domainerrors.New(domainerrors.CodeValidation, fmt.Sprintf("unknown status filter %q", filter))
	}

	e.mu.Lock()
	if e.activeKind != kind {
		delete(e.snapshots, kind)
		e.activeKind = kind
	}
	snapshot, ok := e.snapshots[kind]
	e.mu.Unlock()

	if !ok {
		var err error
		snapshot, err = e.fetch(ctx, kind)
		if err != nil {
			return nil, err
		}
	}

	filtered := make([]domain.FinancialRequest, 0, len(snapshot))
	for _, req := range snapshot {
		if filter.Matches(req.Status) {
			filtered = append(filtered, req)
		}
	}
	return filtered, nil
}

// Approve transitions a PENDING request to APPROVED through the directory.
func (e *Engine) Approve(ctx context.Context, kind domain.RequestKind, id domain.RequestID) error {
	return e.decide(ctx, kind, id, decisionApprove, "")
}

// Reject transitions a PENDING request to REJECTED through the directory.
// For withdrawals a blank reason is replaced with DefaultRejectionReason;
// for deposits the reason is discarded entirely.
func (e *Engine) Reject(ctx context.Context, kind domain.RequestKind, id domain.RequestID, reason string) error {
	return e.decide(ctx, kind, id, decisionReject, reason)
}

type decision string

const (
	decisionApprove decision = "approved"
	decisionReject  decision = "rejected"
)

func (e *Engine) decide(ctx context.Context, kind domain.RequestKind, id domain.RequestID, outcome decision, reason string) error {
	if !kind.Valid() {
		return domainerrors.New(domainerrors.CodeValidation, fmt.Sprintf("unknown request kind %q", kind))
	}
	if id == "" {
		return domainerrors.New(domainerrors.CodeValidation, "request id is required")
	}

	role := requestcontext.ActorRole(ctx)
	if role == domain.RoleMediator {
		return domainerrors.New(domainerrors.CodeForbidden, "mediators have read-only access to financial requests")
	}

	if !e.acquire(id) {
		return domainerrors.New(domainerrors.CodeConflict, "request is already being processed")
	}
	defer e.release(id)

	if _, err := e.lookupPending(ctx, kind, id); err != nil {
		return err
	}

	var coerced *string
	if outcome == decisionReject && kind == domain.KindWithdrawal {
		r := strings.TrimSpace(reason)
		if r == "" {
			r = DefaultRejectionReason
		}
		coerced = &r
	}

	var err error
	switch outcome {
	case decisionApprove:
		err = e.dir.ApproveRequest(ctx, kind, id)
	case decisionReject:
		err = e.dir.RejectRequest(ctx, kind, id, coerced)
	}
	if err != nil {
		e.metrics.IncrementMutationFailure(string(kind))
		return err
	}

	e.metrics.IncrementDecision(string(kind), string(outcome))
	e.emitAudit(ctx, role, kind, id, outcome, coerced)

	// The directory owns request state; refetch rather than patching the
	// snapshot locally. A failed refetch only invalidates, so the next List
	// fetches fresh.
	e.invalidate(kind)
	e.group.Forget(string(kind))
	if _, err := e.fetch(ctx, kind); err != nil {
		e.logger.WarnContext(ctx, "snapshot refresh after decision failed",
			"kind", kind,
			"request_id", id,
			"error", err)
	}
	return nil
}

// lookupPending enforces the PENDING precondition against the snapshot,
// refetching once when the request is not in the held copy.
func (e *Engine) lookupPending(ctx context.Context, kind domain.RequestKind, id domain.RequestID) (domain.FinancialRequest, error) {
	req, ok := e.cached(kind, id)
	if !ok {
		if _, err := e.fetch(ctx, kind); err != nil {
			return domain.FinancialRequest{}, err
		}
		req, ok = e.cached(kind, id)
	}
	if !ok {
		return domain.FinancialRequest{}, domainerrors.New(domainerrors.CodeNotFound, "financial request not found")
	}
	if !req.Pending() {
		return domain.FinancialRequest{}, domainerrors.New(domainerrors.CodeConflict,
			fmt.Sprintf("request has already been %s", strings.ToLower(string(req.Status))))
	}
	return req, nil
}

// fetch performs a full directory fetch, deduplicated across concurrent
// callers, and stores the result as the kind's snapshot.
func (e *Engine) fetch(ctx context.Context, kind domain.RequestKind) ([]domain.FinancialRequest, error) {
	result, err, _ := e.group.Do(string(kind), func() (any, error) {
		start := time.Now()
		requests, err := e.dir.ListRequests(ctx, kind)
		if err != nil {
			return nil, err
		}
		e.metrics.ObserveFetchLatency(string(kind), time.Since(start))

		e.mu.Lock()
		e.snapshots[kind] = requests
		e.mu.Unlock()
		return requests, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.FinancialRequest), nil
}

func (e *Engine) cached(kind domain.RequestKind, id domain.RequestID) (domain.FinancialRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, req := range e.snapshots[kind] {
		if req.ID == id {
			return req, true
		}
	}
	return domain.FinancialRequest{}, false
}

func (e *Engine) invalidate(kind domain.RequestKind) {
	e.mu.Lock()
	delete(e.snapshots, kind)
	e.mu.Unlock()
}

func (e *Engine) acquire(id domain.RequestID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.processing[id]; busy {
		return false
	}
	e.processing[id] = struct{}{}
	return true
}

func (e *Engine) release(id domain.RequestID) {
	e.mu.Lock()
	delete(e.processing, id)
	e.mu.Unlock()
}

func (e *Engine) emitAudit(ctx context.Context, role domain.Role, kind domain.RequestKind, id domain.RequestID, outcome decision, reason *string) {
	if e.auditor == nil {
		return
	}

	action := audit.ActionRequestApproved
	if outcome == decisionReject {
		action = audit.ActionRequestRejected
	}
	event := audit.Event{
		ActorRole: role,
		Action:    action,
		Kind:      kind,
		SubjectID: string(id),
	}
	if reason != nil {
		event.Reason = *reason
	}

	if err := e.auditor.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "audit emit failed",
			"action", action,
			"request_id", id,
			"error", err)
	}
}
