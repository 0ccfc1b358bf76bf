package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/authz"
)

func noop(w http.ResponseWriter, r *http.Request) {}

func TestValidateRejectsDuplicatePath(t *testing.T) {
	reg, err := authz.DefaultRegistry()
	require.NoError(t, err)

	table := NewTable([]Route{
		{Method: http.MethodGet, Path: "/api/sales", Permission: authz.PermSale, Handler: noop},
		{Method: http.MethodGet, Path: "/api/sales", Permission: authz.PermSalesReports, Handler: noop},
	})
	err = table.Validate(reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate route")
}

func TestValidateAllowsSamePathDifferentMethod(t *testing.T) {
	reg, err := authz.DefaultRegistry()
	require.NoError(t, err)

	table := NewTable([]Route{
		{Method: http.MethodGet, Path: "/api/sales", Permission: authz.PermSale, Handler: noop},
		{Method: http.MethodPost, Path: "/api/sales", Permission: authz.PermSale, Handler: noop},
	})
	require.NoError(t, table.Validate(reg))
}

func TestValidateRejectsUnknownPermission(t *testing.T) {
	reg, err := authz.DefaultRegistry()
	require.NoError(t, err)

	table := NewTable([]Route{
		{Method: http.MethodGet, Path: "/api/sales", Permission: "User Roles", Handler: noop},
	})
	err = table.Validate(reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown permission")
}

func TestValidateAllowsUnrestrictedRoute(t *testing.T) {
	reg, err := authz.DefaultRegistry()
	require.NoError(t, err)

	table := NewTable([]Route{
		{Method: http.MethodGet, Path: "/api/dashboard", Handler: noop},
	})
	require.NoError(t, table.Validate(reg))
}

func TestPermissionFor(t *testing.T) {
	table := NewTable([]Route{
		{Method: http.MethodGet, Path: "/api/expenses", Permission: authz.PermViewExpenses, Handler: noop},
	})

	perm, ok := table.PermissionFor(http.MethodGet, "/api/expenses")
	require.True(t, ok)
	require.Equal(t, authz.PermViewExpenses, perm)

	_, ok = table.PermissionFor(http.MethodGet, "/api/unknown")
	require.False(t, ok)
}
