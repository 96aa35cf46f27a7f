// Package authz maps console routes to allowed roles and decides, per
// navigation, whether a session may render a route or where to send it
// instead. Decisions are pure: role and authentication state come in as
// arguments, nothing is cached between navigations.
package authz

import "tradedesk/pkg/domain"

// Console route identifiers, matching the SPA's paths.
const (
	RouteLogin                     = "/login"
	RouteClientDashboard           = "/dashboard"
	RouteAdminClients              = "/admin/clients"
	RouteAdminCreateUser           = "/admin/create-user"
	RouteAdminPendingUsers         = "/admin/pending-users"
	RouteAdminTransactionApprovals = "/admin/transaction-approvals"
)

// knownRoutes is the full SPA route table. Paths outside it (including the
// root) redirect to login.
var knownRoutes = map[string]struct{}{
	RouteLogin:                     {},
	RouteClientDashboard:           {},
	RouteAdminClients:              {},
	RouteAdminCreateUser:           {},
	RouteAdminPendingUsers:         {},
	RouteAdminTransactionApprovals: {},
}

// requiredRoles is the authorization table. A known route with no entry is
// unrestricted (login). Mediators share the admin overview screens but are
// excluded from transaction approvals.
var requiredRoles = map[string][]domain.Role{
	RouteClientDashboard:           {domain.RoleClient},
	RouteAdminClients:              {domain.RoleAdmin, domain.RoleMediator},
	RouteAdminCreateUser:           {domain.RoleAdmin, domain.RoleMediator},
	RouteAdminPendingUsers:         {domain.RoleAdmin, domain.RoleMediator},
	RouteAdminTransactionApprovals: {domain.RoleAdmin},
}

// RequiredRoles returns the allowed-role set for a route. A nil result means
// the route is unrestricted.
func RequiredRoles(route string) []domain.Role {
	return requiredRoles[route]
}

// Decision is the outcome of a route authorization check.
type Decision struct {
	Allow bool `json:"allow"`
	// Target is the redirect destination when Allow is false.
	Target string `json:"target,omitempty"`
	// From carries the originally requested location on login redirects so
	// the SPA can return there after login. Opaque to this package.
	From string `json:"from,omitempty"`
}

// HomeRoute is the fallback landing route for a role when it is denied a
// route it asked for. Mediators share the admin client overview.
func HomeRoute(role domain.Role) string {
	switch role {
	case domain.RoleAdmin, domain.RoleMediator:
		return RouteAdminClients
	case domain.RoleClient:
		return RouteClientDashboard
	default:
		// Unrecognized role means an invalid session, never silent access.
		return RouteLogin
	}
}

// Resolve decides whether the caller may render route. It must be invoked
// on every navigation: authentication and role can change between
// navigations (logout in another tab), so decisions are never cached.
func Resolve(route string, authenticated bool, role domain.Role) Decision {
	if _, known := knownRoutes[route]; !known {
		return Decision{Target: RouteLogin}
	}

	required := requiredRoles[route]
	if len(required) == 0 {
		return Decision{Allow: true}
	}

	if !authenticated {
		return Decision{Target: RouteLogin, From: route}
	}

	if !role.In(required...) {
		return Decision{Target: HomeRoute(role)}
	}

	return Decision{Allow: true}
}
