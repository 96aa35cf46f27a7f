package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/approval"
	approvalhandler "tradedesk/internal/approval/handler"
	authzhandler "tradedesk/internal/authz/handler"
	"tradedesk/internal/backend"
	"tradedesk/internal/platform/logger"
	"tradedesk/internal/session"
	sessionhandler "tradedesk/internal/session/handler"
	"tradedesk/internal/users"
	usershandler "tradedesk/internal/users/handler"
	"tradedesk/pkg/domain"
)

// stubDirectory backs both the approval engine and the users service for
// end-to-end routing tests.
type stubDirectory struct {
	mu       sync.Mutex
	requests []domain.FinancialRequest
	approved []domain.RequestID
}

func (s *stubDirectory) ListRequests(_ context.Context, _ domain.RequestKind) ([]domain.FinancialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.FinancialRequest, len(s.requests))
	copy(out, s.requests)
	return out, nil
}

func (s *stubDirectory) ApproveRequest(_ context.Context, _ domain.RequestKind, id domain.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved = append(s.approved, id)
	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Status = domain.StatusApproved
		}
	}
	return nil
}

func (s *stubDirectory) RejectRequest(_ context.Context, _ domain.RequestKind, id domain.RequestID, _ *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Status = domain.StatusRejected
		}
	}
	return nil
}

func (s *stubDirectory) ListPendingUsers(context.Context) ([]domain.PendingUser, error) {
	return nil, nil
}

func (s *stubDirectory) ApproveUser(context.Context, domain.UserID) error { return nil }
func (s *stubDirectory) RejectUser(context.Context, domain.UserID) error  { return nil }

type stubAuthenticator struct{}

func (stubAuthenticator) Login(context.Context, string, string) (*backend.LoginResult, error) {
	return &backend.LoginResult{AccessToken: "never-used"}, nil
}

func (stubAuthenticator) ChangePassword(context.Context, string, string, string) error {
	return nil
}

func mintToken(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"rol": []string{role},
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

func newTestRouter(t *testing.T, dir *stubDirectory) (http.Handler, session.Store) {
	t.Helper()
	log := logger.Discard()

	store := session.NewInMemoryStore()
	oracle, err := session.NewOracle(store, session.WithLogger(log))
	require.NoError(t, err)

	engine, err := approval.New(dir, approval.WithLogger(log))
	require.NoError(t, err)

	usersService, err := users.New(dir, users.WithLogger(log))
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		Logger:   log,
		Oracle:   oracle,
		Store:    store,
		Session:  sessionhandler.New(stubAuthenticator{}, store, log, nil),
		Authz:    authzhandler.New(oracle, log, nil),
		Approval: approvalhandler.New(engine, log),
		Users:    usershandler.New(usersService, log),
	})
	return router, store
}

func openSession(t *testing.T, store session.Store, role string) string {
	t.Helper()
	key := "session-" + role
	err := store.Save(context.Background(), key, session.Credentials{AccessToken: mintToken(t, role)})
	require.NoError(t, err)
	return key
}

func doRequest(router http.Handler, method, path, sessionKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if sessionKey != "" {
		req.Header.Set("Authorization", "Bearer "+sessionKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterAccessControl(t *testing.T) {
	dir := &stubDirectory{requests: []domain.FinancialRequest{
		{ID: "dep-1", Status: domain.StatusPending},
	}}
	router, store := newTestRouter(t, dir)

	t.Run("health endpoint is public", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("anonymous callers cannot reach admin surfaces", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/admin/requests/deposits", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("clients cannot reach admin surfaces", func(t *testing.T) {
		key := openSession(t, store, "CLIENT")
		rec := doRequest(router, http.MethodGet, "/admin/requests/deposits", key)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admins list and approve", func(t *testing.T) {
		key := openSession(t, store, "ROLE_ADMIN")

		rec := doRequest(router, http.MethodGet, "/admin/requests/deposits?status=pending", key)
		require.Equal(t, http.StatusOK, rec.Code)
		var listed []domain.FinancialRequest
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
		require.Len(t, listed, 1)

		rec = doRequest(router, http.MethodPost, "/admin/requests/deposits/dep-1/approve", key)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []domain.RequestID{"dep-1"}, dir.approved)
	})

	t.Run("mediators read but cannot mutate", func(t *testing.T) {
		dir := &stubDirectory{requests: []domain.FinancialRequest{
			{ID: "dep-9", Status: domain.StatusPending},
		}}
		router, store := newTestRouter(t, dir)
		key := openSession(t, store, "MEDIATOR")

		rec := doRequest(router, http.MethodGet, "/admin/requests/deposits", key)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(router, http.MethodPost, "/admin/requests/deposits/dep-9/approve", key)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, dir.approved)
	})

	t.Run("expired sessions are purged and rejected", func(t *testing.T) {
		expired := jwt.MapClaims{
			"sub": "user-2",
			"rol": []string{"ADMIN"},
			"exp": time.Now().Add(-time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-signing-key"))
		require.NoError(t, err)
		require.NoError(t, store.Save(context.Background(), "stale-key", session.Credentials{AccessToken: token}))

		rec := doRequest(router, http.MethodGet, "/admin/requests/deposits", "stale-key")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		_, loadErr := store.Load(context.Background(), "stale-key")
		assert.Error(t, loadErr)
	})
}

func TestRouterRouteResolution(t *testing.T) {
	dir := &stubDirectory{}
	router, store := newTestRouter(t, dir)

	t.Run("anonymous route checks stay reachable", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/console/route?path=/admin/clients", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"target":"/login"`)
	})

	t.Run("role-aware redirects flow through the live session", func(t *testing.T) {
		key := openSession(t, store, "MEDIATOR")
		rec := doRequest(router, http.MethodGet, "/console/route?path=/admin/transaction-approvals", key)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"target":"/admin/clients"`)
	})
}
