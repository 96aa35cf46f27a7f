package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/authz"
	"tradedesk/internal/platform/logger"
	"tradedesk/pkg/domain"
	"tradedesk/pkg/requestcontext"
)

type fakeOracle struct {
	authenticated bool
	role          domain.Role
}

func (f *fakeOracle) IsAuthenticated(context.Context, string) bool {
	return f.authenticated
}

func (f *fakeOracle) CurrentRole(context.Context, string) domain.Role {
	return f.role
}

func resolve(t *testing.T, oracle SessionOracle, path, sessionKey string) authz.Decision {
	t.Helper()
	h := New(oracle, logger.Discard(), nil)
	r := chi.NewRouter()
	h.Register(r)

	req := httptest.NewRequest(http.MethodGet, "/console/route?path="+path, nil)
	if sessionKey != "" {
		req = req.WithContext(requestcontext.WithSessionKey(req.Context(), sessionKey))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var decision authz.Decision
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&decision))
	return decision
}

func TestHandleResolveRoute(t *testing.T) {
	t.Run("requires a path", func(t *testing.T) {
		h := New(&fakeOracle{}, logger.Discard(), nil)
		r := chi.NewRouter()
		h.Register(r)

		req := httptest.NewRequest(http.MethodGet, "/console/route", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("anonymous navigation to a protected route preserves the origin", func(t *testing.T) {
		decision := resolve(t, &fakeOracle{}, authz.RouteAdminClients, "")

		assert.False(t, decision.Allow)
		assert.Equal(t, authz.RouteLogin, decision.Target)
		assert.Equal(t, authz.RouteAdminClients, decision.From)
	})

	t.Run("an authenticated admin reaches approvals", func(t *testing.T) {
		oracle := &fakeOracle{authenticated: true, role: domain.RoleAdmin}

		decision := resolve(t, oracle, authz.RouteAdminTransactionApprovals, "key-1")

		assert.True(t, decision.Allow)
	})

	t.Run("a mediator is bounced from approvals to the client overview", func(t *testing.T) {
		oracle := &fakeOracle{authenticated: true, role: domain.RoleMediator}

		decision := resolve(t, oracle, authz.RouteAdminTransactionApprovals, "key-1")

		assert.False(t, decision.Allow)
		assert.Equal(t, authz.RouteAdminClients, decision.Target)
		assert.Empty(t, decision.From)
	})

	t.Run("unknown paths land on login", func(t *testing.T) {
		oracle := &fakeOracle{authenticated: true, role: domain.RoleAdmin}

		decision := resolve(t, oracle, "/definitely-not-a-route", "key-1")

		assert.False(t, decision.Allow)
		assert.Equal(t, authz.RouteLogin, decision.Target)
	})
}
