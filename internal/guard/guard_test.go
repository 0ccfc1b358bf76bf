package guard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/guard"
	"github.com/tallybook/tallybook/internal/identity"
	"github.com/tallybook/tallybook/internal/shared"
	_ "github.com/tallybook/tallybook/testing"
)

type mapSource struct {
	users map[string]*identity.CurrentUser
}

func (s *mapSource) Resolve(ctx context.Context, token string) (*identity.CurrentUser, error) {
	return s.users[token], nil
}

type fixture struct {
	guard    *guard.Guard
	sessions *shared.SessionManager
	registry *authz.Registry
}

func newFixture(t *testing.T, users map[string]*identity.CurrentUser) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	registry, err := authz.DefaultRegistry()
	require.NoError(t, err)
	provider := identity.NewProvider(&mapSource{users: users}, nil, time.Minute)
	return &fixture{
		guard:    guard.New(registry, provider, sessions, nil),
		sessions: sessions,
		registry: registry,
	}
}

func (f *fixture) serve(t *testing.T, req *http.Request, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	sess, err := f.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	f := newFixture(t, nil)
	protected := f.guard.Authenticated()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	res := f.serve(t, req, protected)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/login?next=%2Fdashboard", res.Header().Get("Location"))
}

func TestUnauthenticatedAPIClientGets401WithLocation(t *testing.T) {
	f := newFixture(t, nil)
	protected := f.guard.Authenticated()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.Header.Set("Accept", "application/json")
	res := f.serve(t, req, protected)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Contains(t, res.Body.String(), guard.LoginPath)
}

func TestAuthenticatedWithoutPermissionIsDeniedNotLoggedOut(t *testing.T) {
	saleID := mustID(t, authz.PermSale)
	f := newFixture(t, map[string]*identity.CurrentUser{
		"tok": {ID: 1, Active: true, Permissions: authz.NewSet(saleID)},
	})
	protected := f.guard.Authenticated()(
		f.guard.Require(authz.PermUserRolesManagement)(http.HandlerFunc(okHandler)),
	)

	req := httptest.NewRequest(http.MethodGet, "/setup/companysetup/access-setup", nil)
	req.Header.Set("Authorization", "Bearer tok")
	res := f.serve(t, req, protected)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, guard.DeniedPath, res.Header().Get("Location"))
}

func TestAuthenticatedWithPermissionIsAllowed(t *testing.T) {
	rolesID := mustID(t, authz.PermUserRolesManagement)
	f := newFixture(t, map[string]*identity.CurrentUser{
		"tok": {ID: 1, Active: true, Permissions: authz.NewSet(rolesID)},
	})
	protected := f.guard.Authenticated()(
		f.guard.Require(authz.PermUserRolesManagement)(http.HandlerFunc(okHandler)),
	)

	req := httptest.NewRequest(http.MethodGet, "/setup/companysetup/access-setup", nil)
	req.Header.Set("Authorization", "Bearer tok")
	res := f.serve(t, req, protected)

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "ok", res.Body.String())
}

func TestAuthenticatedRouteWithoutPermissionRequirement(t *testing.T) {
	f := newFixture(t, map[string]*identity.CurrentUser{
		"tok": {ID: 1, Active: true},
	})
	protected := f.guard.Authenticated()(
		f.guard.Require("")(http.HandlerFunc(okHandler)),
	)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer tok")
	res := f.serve(t, req, protected)

	require.Equal(t, http.StatusOK, res.Code)
}

func TestGuardStoresIntendedDestination(t *testing.T) {
	f := newFixture(t, nil)
	protected := f.guard.Authenticated()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/dashboard?tab=sales", nil)
	sess, err := f.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	protected.ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/dashboard?tab=sales", sess.Get(shared.LoginNextKey))
}

func mustID(t *testing.T, name string) authz.PermissionID {
	t.Helper()
	reg, err := authz.DefaultRegistry()
	require.NoError(t, err)
	id, ok := reg.ID(name)
	require.True(t, ok)
	return id
}
