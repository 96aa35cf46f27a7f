// Package handler exposes the user onboarding queue over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradedesk/pkg/domain"
	"tradedesk/pkg/platform/httputil"
	"tradedesk/pkg/requestcontext"
)

// Service is the onboarding service surface the transport layer consumes.
type Service interface {
	List(ctx context.Context) ([]domain.PendingUser, error)
	Approve(ctx context.Context, id domain.UserID) error
	Reject(ctx context.Context, id domain.UserID) error
}

// Handler wires onboarding endpoints to the users service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an onboarding handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts onboarding endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/users/pending", h.HandleList)
	r.Post("/admin/users/{id}/approve", h.HandleApprove)
	r.Post("/admin/users/{id}/reject", h.HandleReject)
}

// HandleList handles GET /admin/users/pending requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "pending user listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}

// HandleApprove handles POST /admin/users/{id}/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve", h.service.Approve)
}

// HandleReject handles POST /admin/users/{id}/reject requests.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject", h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, verb string, op func(context.Context, domain.UserID) error) {
	ctx := r.Context()
	id := domain.UserID(chi.URLParam(r, "id"))

	if err := op(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "user decision failed",
			"verb", verb,
			"id", id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user decision applied",
		"verb", verb,
		"id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
