// Package httptransport assembles the console's HTTP surface: shared
// middleware, per-domain handlers, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	approvalhandler "tradedesk/internal/approval/handler"
	authzhandler "tradedesk/internal/authz/handler"
	"tradedesk/internal/platform/middleware"
	"tradedesk/internal/session"
	sessionhandler "tradedesk/internal/session/handler"
	usershandler "tradedesk/internal/users/handler"
	"tradedesk/pkg/domain"
)

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Logger   *slog.Logger
	Oracle   *session.Oracle
	Store    session.Store
	Session  *sessionhandler.Handler
	Authz    *authzhandler.Handler
	Approval *approvalhandler.Handler
	Users    *usershandler.Handler
}

// NewRouter wires all console endpoints behind the shared middleware chain.
// Session resolution runs on every request; role gates apply per subtree.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Session(deps.Oracle, deps.Store, deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public: login plus the per-navigation route decision, which must stay
	// reachable for anonymous sessions so it can redirect them.
	deps.Session.Register(r)
	deps.Authz.Register(r)

	// Admin surfaces. Mediators reach them read-only for financial requests;
	// the workflow engine blocks their mutations.
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRoles(deps.Logger, domain.RoleAdmin, domain.RoleMediator))
		deps.Approval.Register(admin)
		deps.Users.Register(admin)
	})

	return r
}
