package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User)}
}

func (r *memoryRepo) List(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) Create(ctx context.Context, u User) (User, error) {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return User{}, httpx.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryRepo) Update(ctx context.Context, u User) (User, error) {
	if _, ok := r.users[u.ID]; !ok {
		return User{}, httpx.ErrNotFound
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost

	u, err := svc.Create(context.Background(), CreateInput{
		Name: "Casey", Email: "Casey@Example.com", Password: "hunter2hunter2", RoleID: 1, IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, "casey@example.com", u.Email)
	require.NotEqual(t, "hunter2hunter2", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2hunter2")))
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost

	_, err := svc.Create(context.Background(), CreateInput{Name: "A", Email: "a@example.com", Password: "longenough", RoleID: 1})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{Name: "B", Email: "a@example.com", Password: "longenough", RoleID: 1})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateKeepsPasswordWhenBlank(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost

	created, err := svc.Create(context.Background(), CreateInput{Name: "Casey", Email: "c@example.com", Password: "hunter2hunter2", RoleID: 1, IsActive: true})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Name: "Casey", Email: "c@example.com", RoleID: 2, IsActive: false})
	require.NoError(t, err)
	require.Equal(t, created.PasswordHash, updated.PasswordHash)
	require.Equal(t, int64(2), updated.RoleID)
	require.False(t, updated.IsActive)
}

func TestUpdateRejectsShortPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost

	created, err := svc.Create(context.Background(), CreateInput{Name: "Casey", Email: "c@example.com", Password: "hunter2hunter2", RoleID: 1})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Name: "Casey", Email: "c@example.com", Password: "short", RoleID: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
