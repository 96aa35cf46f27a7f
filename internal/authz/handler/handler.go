// Package handler exposes route authorization decisions over HTTP so the
// console can gate every navigation against the live session.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradedesk/internal/authz"
	"tradedesk/internal/platform/metrics"
	"tradedesk/pkg/domain"
	domainerrors "tradedesk/pkg/domain-errors"
	"tradedesk/pkg/platform/httputil"
	"tradedesk/pkg/requestcontext"
)

// SessionOracle answers authentication and role questions for a session key.
type SessionOracle interface {
	IsAuthenticated(ctx context.Context, key string) bool
	CurrentRole(ctx context.Context, key string) domain.Role
}

// Handler resolves route authorization decisions.
type Handler struct {
	oracle  SessionOracle
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs an authorization handler.
func New(oracle SessionOracle, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		oracle:  oracle,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts authorization endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/console/route", h.HandleResolveRoute)
}

// HandleResolveRoute handles GET /console/route?path=... requests. It is
// called on every navigation; the decision is computed fresh each time so a
// logout elsewhere takes effect immediately.
func (h *Handler) HandleResolveRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "path query parameter is required"))
		return
	}

	key := requestcontext.SessionKey(ctx)
	authenticated := key != "" && h.oracle.IsAuthenticated(ctx, key)

	role := domain.RoleUnknown
	if authenticated {
		role = h.oracle.CurrentRole(ctx, key)
	}

	decision := authz.Resolve(path, authenticated, role)
	if !decision.Allow {
		if h.metrics != nil {
			h.metrics.PolicyRedirects.WithLabelValues(decision.Target).Inc()
		}
		h.logger.InfoContext(ctx, "navigation redirected",
			"path", path,
			"target", decision.Target,
			"role", role,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, decision)
}
