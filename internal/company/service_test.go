package company

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	company  *Company
	profiles map[int64]Profile
	hashes   map[int64]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{profiles: make(map[int64]Profile), hashes: make(map[int64]string)}
}

func (r *memoryRepo) Get(ctx context.Context) (Company, error) {
	if r.company == nil {
		return Company{}, nil
	}
	return *r.company, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, input Input) (Company, error) {
	c := Company{
		ID: 1, Name: input.Name, Address: input.Address, Phone: input.Phone,
		Email: input.Email, Currency: input.Currency, FiscalYearStart: input.FiscalYearStart,
	}
	r.company = &c
	return c, nil
}

func (r *memoryRepo) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return Profile{}, httpx.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) UpdateProfile(ctx context.Context, userID int64, name, email, passwordHash string) (Profile, error) {
	if _, ok := r.profiles[userID]; !ok {
		return Profile{}, httpx.ErrNotFound
	}
	p := Profile{ID: userID, Name: name, Email: email}
	r.profiles[userID] = p
	if passwordHash != "" {
		r.hashes[userID] = passwordHash
	}
	return p, nil
}

func TestSaveCompanyValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Save(ctx, Input{Name: "", Currency: "USD", FiscalYearStart: time.January})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Save(ctx, Input{Name: "Tally Traders", Currency: "dollars", FiscalYearStart: time.January})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Save(ctx, Input{Name: "Tally Traders", Currency: "usd", FiscalYearStart: 0})
	require.ErrorIs(t, err, httpx.ErrValidation)

	c, err := svc.Save(ctx, Input{Name: "Tally Traders", Currency: "usd", FiscalYearStart: time.July})
	require.NoError(t, err)
	require.Equal(t, "USD", c.Currency)
	require.Equal(t, time.July, c.FiscalYearStart)
}

func TestGetReturnsBlankBeforeSetup(t *testing.T) {
	svc := NewService(newMemoryRepo())
	c, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Zero(t, c.ID)
	require.Empty(t, c.Name)
}

func TestUpdateProfile(t *testing.T) {
	repo := newMemoryRepo()
	repo.profiles[7] = Profile{ID: 7, Name: "Casey", Email: "c@example.com"}
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, 7, ProfileInput{Name: "", Email: "c@example.com"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.UpdateProfile(ctx, 7, ProfileInput{Name: "Casey", Email: "c@example.com", Password: "short"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	p, err := svc.UpdateProfile(ctx, 7, ProfileInput{Name: "Casey J", Email: "CJ@Example.com", Password: "longenough"})
	require.NoError(t, err)
	require.Equal(t, "cj@example.com", p.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[7]), []byte("longenough")))
}
