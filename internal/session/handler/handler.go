// Package handler exposes the session lifecycle over HTTP: login, logout,
// and password changes proxied to the trading backend.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tradedesk/internal/authz"
	"tradedesk/internal/backend"
	"tradedesk/internal/platform/metrics"
	"tradedesk/internal/session"
	"tradedesk/pkg/domain"
	domainerrors "tradedesk/pkg/domain-errors"
	"tradedesk/pkg/platform/httputil"
	"tradedesk/pkg/requestcontext"
)

// Authenticator is the slice of the backend client the session layer needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	ChangePassword(ctx context.Context, current, next, confirmation string) error
}

// Handler wires session endpoints to the credential store and the backend.
type Handler struct {
	auth    Authenticator
	store   session.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a session handler with its dependencies.
func New(auth Authenticator, store session.Store, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		auth:    auth,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts session endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Patch("/auth/change-password", h.HandleChangePassword)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the console session key plus the role-derived
// landing route so the client can navigate without a second round trip.
type LoginResponse struct {
	SessionKey string `json:"sessionKey"`
	Role       string `json:"role"`
	RedirectTo string `json:"redirectTo"`
}

// HandleLogin handles POST /auth/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "email and password are required"))
		return
	}

	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.LoginFailures.Inc()
		}
		h.logger.WarnContext(ctx, "login failed",
			"email", req.Email,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	key := uuid.NewString()
	creds := session.Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	if err := h.store.Save(ctx, key, creds); err != nil {
		h.logger.ErrorContext(ctx, "failed to persist session credentials",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to establish session"))
		return
	}

	role := domain.RoleUnknown
	if claims, err := session.DecodeClaims(result.AccessToken); err == nil {
		role = claims.Role()
	} else {
		h.logger.WarnContext(ctx, "issued credential does not decode",
			"request_id", requestID,
			"error", err,
		)
	}

	if h.metrics != nil {
		h.metrics.LoginsTotal.Inc()
	}
	h.logger.InfoContext(ctx, "login succeeded",
		"role", role,
		"request_id", requestID,
	)

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		SessionKey: key,
		Role:       string(role),
		RedirectTo: authz.HomeRoute(role),
	})
}

// HandleLogout handles POST /auth/logout requests. Logout of an already
// dead session succeeds; clearing is idempotent.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := requestcontext.SessionKey(ctx)
	if key == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.store.Clear(ctx, key); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear session",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to clear session"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePasswordRequest mirrors the backend's password change contract.
type ChangePasswordRequest struct {
	CurrentPassword      string `json:"currentPassword"`
	NewPassword          string `json:"newPassword"`
	ConfirmationPassword string `json:"confirmationPassword"`
}

// HandleChangePassword handles PATCH /auth/change-password requests.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.Credential(ctx) == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChangePasswordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.NewPassword == "" || req.NewPassword != req.ConfirmationPassword {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "new password and confirmation must match"))
		return
	}

	if err := h.auth.ChangePassword(ctx, req.CurrentPassword, req.NewPassword, req.ConfirmationPassword); err != nil {
		h.logger.WarnContext(ctx, "password change failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
