// Package users handles the onboarding queue: accounts awaiting an
// operator's approval before they can sign in.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tradedesk/internal/audit"
	"tradedesk/pkg/domain"
	domainerrors "tradedesk/pkg/domain-errors"
	"tradedesk/pkg/requestcontext"
)

// PendingDirectory is the upstream user onboarding directory.
type PendingDirectory interface {
	ListPendingUsers(ctx context.Context) ([]domain.PendingUser, error)
	ApproveUser(ctx context.Context, id domain.UserID) error
	RejectUser(ctx context.Context, id domain.UserID) error
}

// AuditPublisher records operator decisions on pending accounts.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service mediates onboarding decisions. Unlike financial requests, the
// pending list is small and changes rarely, so every List is a fresh fetch.
type Service struct {
	dir     PendingDirectory
	logger  *slog.Logger
	auditor AuditPublisher

	mu         sync.Mutex
	processing map[domain.UserID]struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func New(dir PendingDirectory, opts ...Option) (*Service, error) {
	if dir == nil {
		return nil, fmt.Errorf("pending directory is required")
	}

	s := &Service{
		dir:        dir,
		logger:     slog.Default(),
		processing: make(map[domain.UserID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns all accounts awaiting approval.
func (s *Service) List(ctx context.Context) ([]domain.PendingUser, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	return s.dir.ListPendingUsers(ctx)
}

// Approve activates a pending account.
func (s *Service) Approve(ctx context.Context, id domain.UserID) error {
	return s.decide(ctx, id, s.dir.ApproveUser, audit.ActionUserApproved)
}

// Reject declines a pending account.
func (s *Service) Reject(ctx context.Context, id domain.UserID) error {
	return s.decide(ctx, id, s.dir.RejectUser, audit.ActionUserRejected)
}

func (s *Service) decide(ctx context.Context, id domain.UserID, op func(context.Context, domain.UserID) error, action audit.Action) error {
	if id == "" {
		return domainerrors.New(domainerrors.CodeValidation, "user id is required")
	}
	if err := s.authorize(ctx); err != nil {
		return err
	}

	if !s.acquire(id) {
		return domainerrors.New(domainerrors.CodeConflict, "user is already being processed")
	}
	defer s.release(id)

	if err := op(ctx, id); err != nil {
		return err
	}

	s.emitAudit(ctx, action, id)
	return nil
}

// authorize admits admins and mediators; onboarding is the one admin surface
// where mediators may also act.
func (s *Service) authorize(ctx context.Context) error {
	role := requestcontext.ActorRole(ctx)
	if !role.In(domain.RoleAdmin, domain.RoleMediator) {
		return domainerrors.New(domainerrors.CodeForbidden, "insufficient role for user onboarding")
	}
	return nil
}

func (s *Service) acquire(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.processing[id]; busy {
		return false
	}
	s.processing[id] = struct{}{}
	return true
}

func (s *Service) release(id domain.UserID) {
	s.mu.Lock()
	delete(s.processing, id)
	s.mu.Unlock()
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, id domain.UserID) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		ActorRole: requestcontext.ActorRole(ctx),
		Action:    action,
		SubjectID: string(id),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", action,
			"user_id", id,
			"error", err)
	}
}
