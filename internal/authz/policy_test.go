package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradedesk/pkg/domain"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name          string
		route         string
		authenticated bool
		role          domain.Role
		want          Decision
	}{
		{
			name:  "login is public",
			route: RouteLogin,
			want:  Decision{Allow: true},
		},
		{
			name:          "unauthenticated dashboard preserves location",
			route:         RouteClientDashboard,
			authenticated: false,
			want:          Decision{Target: RouteLogin, From: RouteClientDashboard},
		},
		{
			name:          "unauthenticated admin route preserves location",
			route:         RouteAdminTransactionApprovals,
			authenticated: false,
			role:          domain.RoleAdmin, // stale role must not matter
			want:          Decision{Target: RouteLogin, From: RouteAdminTransactionApprovals},
		},
		{
			name:          "client allowed on dashboard",
			route:         RouteClientDashboard,
			authenticated: true,
			role:          domain.RoleClient,
			want:          Decision{Allow: true},
		},
		{
			name:          "client denied admin route goes home, not to login",
			route:         RouteAdminTransactionApprovals,
			authenticated: true,
			role:          domain.RoleClient,
			want:          Decision{Target: RouteClientDashboard},
		},
		{
			name:          "mediator denied transaction approvals lands on admin clients",
			route:         RouteAdminTransactionApprovals,
			authenticated: true,
			role:          domain.RoleMediator,
			want:          Decision{Target: RouteAdminClients},
		},
		{
			name:          "mediator shares the admin overview",
			route:         RouteAdminClients,
			authenticated: true,
			role:          domain.RoleMediator,
			want:          Decision{Allow: true},
		},
		{
			name:          "admin allowed on transaction approvals",
			route:         RouteAdminTransactionApprovals,
			authenticated: true,
			role:          domain.RoleAdmin,
			want:          Decision{Allow: true},
		},
		{
			name:          "admin denied client dashboard goes to admin clients",
			route:         RouteClientDashboard,
			authenticated: true,
			role:          domain.RoleAdmin,
			want:          Decision{Target: RouteAdminClients},
		},
		{
			name:          "unknown role on guarded route is forced to login",
			route:         RouteAdminClients,
			authenticated: true,
			role:          domain.RoleUnknown,
			want:          Decision{Target: RouteLogin},
		},
		{
			name:          "root redirects to login",
			route:         "/",
			authenticated: true,
			role:          domain.RoleAdmin,
			want:          Decision{Target: RouteLogin},
		},
		{
			name:          "unknown path redirects to login",
			route:         "/nonsense",
			authenticated: true,
			role:          domain.RoleAdmin,
			want:          Decision{Target: RouteLogin},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.route, tc.authenticated, tc.role)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHomeRoute(t *testing.T) {
	assert.Equal(t, RouteAdminClients, HomeRoute(domain.RoleAdmin))
	assert.Equal(t, RouteAdminClients, HomeRoute(domain.RoleMediator))
	assert.Equal(t, RouteClientDashboard, HomeRoute(domain.RoleClient))
	assert.Equal(t, RouteLogin, HomeRoute(domain.RoleUnknown))
}

func TestRequiredRoles(t *testing.T) {
	assert.Nil(t, RequiredRoles(RouteLogin))
	assert.ElementsMatch(t,
		[]domain.Role{domain.RoleAdmin},
		RequiredRoles(RouteAdminTransactionApprovals))
	assert.ElementsMatch(t,
		[]domain.Role{domain.RoleAdmin, domain.RoleMediator},
		RequiredRoles(RouteAdminPendingUsers))
}
