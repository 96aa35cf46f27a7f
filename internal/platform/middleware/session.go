package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"tradedesk/internal/session"
	"tradedesk/pkg/domain"
	domainerrors "tradedesk/pkg/domain-errors"
	"tradedesk/pkg/platform/httputil"
	"tradedesk/pkg/requestcontext"
)

// Session resolves the caller's console session from the Authorization
// header. Anonymous requests pass through with no actor role set; role
// enforcement is RequireRoles' concern so public endpoints stay reachable.
func Session(oracle *session.Oracle, store session.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bearerToken(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := requestcontext.WithSessionKey(r.Context(), key)

			if !oracle.IsAuthenticated(ctx, key) {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = requestcontext.WithActorRole(ctx, oracle.CurrentRole(ctx, key))
			if creds, err := store.Load(ctx, key); err == nil {
				ctx = requestcontext.WithCredential(ctx, creds.AccessToken)
			} else {
				logger.WarnContext(ctx, "authenticated session lost its credentials mid-request",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects requests whose session did not resolve to one of the
// allowed roles: 401 when no role resolved at all, 403 otherwise.
func RequireRoles(logger *slog.Logger, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.ActorRole(ctx)

			if role == domain.RoleUnknown {
				logger.WarnContext(ctx, "unauthenticated request rejected",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
				return
			}

			if !role.In(allowed...) {
				logger.WarnContext(ctx, "request rejected for role",
					"path", r.URL.Path,
					"role", role,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, domainerrors.New(domainerrors.CodeForbidden, "insufficient role"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
