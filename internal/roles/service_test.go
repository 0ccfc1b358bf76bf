package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	roles  map[int64]Role
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{roles: make(map[int64]Role)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	return role, nil
}

func (r *memoryRepo) Create(ctx context.Context, name string, isActive bool, set authz.Set) (Role, error) {
	r.nextID++
	role := Role{ID: r.nextID, Name: name, IsActive: isActive, Permissions: set, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, name string, isActive bool, set authz.Set) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	role.Name = name
	role.IsActive = isActive
	role.Permissions = set
	r.roles[id] = role
	return role, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	registry, err := authz.DefaultRegistry()
	require.NoError(t, err)
	repo := newMemoryRepo()
	return NewService(repo, registry), repo
}

func TestCreateResolvesPermissionNames(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.Create(context.Background(), RoleInput{
		Name:        "Accountant",
		IsActive:    true,
		Permissions: []string{authz.PermViewExpenses, authz.PermAddExpense, authz.PermExpenseManagement},
	})
	require.NoError(t, err)
	require.Equal(t, 3, role.Permissions.Len())

	registry, err := authz.DefaultRegistry()
	require.NoError(t, err)
	id, ok := registry.ID(authz.PermViewExpenses)
	require.True(t, ok)
	require.True(t, role.Permissions.Has(id))
}

func TestCreateRejectsUnknownPermission(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Create(context.Background(), RoleInput{
		Name:        "Accountant",
		Permissions: []string{"Expenses Admin"},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.roles)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), RoleInput{Name: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateReplacesGrants(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.Create(context.Background(), RoleInput{
		Name:        "Cashier",
		IsActive:    true,
		Permissions: []string{authz.PermSale},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), role.ID, RoleInput{
		Name:        "Cashier",
		IsActive:    false,
		Permissions: []string{authz.PermBankAccounts},
	})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, 1, updated.Permissions.Len())

	registry, err := authz.DefaultRegistry()
	require.NoError(t, err)
	saleID, _ := registry.ID(authz.PermSale)
	require.False(t, updated.Permissions.Has(saleID))
}

func TestDeleteMissingRole(t *testing.T) {
	svc, _ := newTestService(t)
	require.ErrorIs(t, svc.Delete(context.Background(), 99), httpx.ErrNotFound)
}
