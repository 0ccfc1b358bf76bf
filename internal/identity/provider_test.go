package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/authz"
)

type fakeSource struct {
	calls int64
	block chan struct{}
	user  *CurrentUser
	err   error
}

func (f *fakeSource) Resolve(ctx context.Context, token string) (*CurrentUser, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	return f.user, f.err
}

func TestCurrentUserEmptyTokenSkipsLookup(t *testing.T) {
	source := &fakeSource{user: &CurrentUser{ID: 7}}
	provider := NewProvider(source, nil, time.Minute)

	user, err := provider.CurrentUser(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, user)
	require.EqualValues(t, 0, atomic.LoadInt64(&source.calls))
}

func TestCurrentUserDeduplicatesConcurrentLookups(t *testing.T) {
	source := &fakeSource{
		user:  &CurrentUser{ID: 7, Permissions: authz.NewSet(1301)},
		block: make(chan struct{}),
	}
	provider := NewProvider(source, nil, time.Minute)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*CurrentUser, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := provider.CurrentUser(context.Background(), "tok")
			require.NoError(t, err)
			results[i] = user
		}(i)
	}

	// Give all callers time to join the in-flight resolution.
	time.Sleep(50 * time.Millisecond)
	close(source.block)
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt64(&source.calls))
	for _, user := range results {
		require.NotNil(t, user)
		require.EqualValues(t, 7, user.ID)
	}
}

func TestCurrentUserCachesUntilInvalidated(t *testing.T) {
	source := &fakeSource{user: &CurrentUser{ID: 7}}
	provider := NewProvider(source, nil, time.Minute)

	_, err := provider.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	_, err = provider.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt64(&source.calls))

	provider.Invalidate("tok")
	_, err = provider.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt64(&source.calls))
}

func TestCurrentUserResolvesFailureToLoggedOut(t *testing.T) {
	source := &fakeSource{err: errors.New("backend down")}
	provider := NewProvider(source, nil, time.Minute)

	user, err := provider.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestCurrentUserHonoursCancellation(t *testing.T) {
	source := &fakeSource{user: &CurrentUser{ID: 7}, block: make(chan struct{})}
	defer close(source.block)
	provider := NewProvider(source, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := provider.CurrentUser(ctx, "tok")
	require.ErrorIs(t, err, context.Canceled)
}

func TestAllowedDeniesUnknownNames(t *testing.T) {
	reg, err := authz.DefaultRegistry()
	require.NoError(t, err)

	saleID, _ := reg.ID(authz.PermSale)
	user := &CurrentUser{Permissions: authz.NewSet(saleID)}
	require.True(t, user.Allowed(reg, authz.PermSale))
	require.False(t, user.Allowed(reg, "No Such Permission"))

	var nobody *CurrentUser
	require.False(t, nobody.Allowed(reg, authz.PermSale))
}
