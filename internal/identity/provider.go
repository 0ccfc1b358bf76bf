package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source loads the principal behind a token from the backing stores. A nil
// user with nil error means the token is unknown or expired.
type Source interface {
	Resolve(ctx context.Context, token string) (*CurrentUser, error)
}

// Provider caches token resolutions. Near-simultaneous lookups for the same
// token share one backend round-trip.
type Provider struct {
	source Source
	logger *slog.Logger
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
	group singleflight.Group
}

type cacheEntry struct {
	user      *CurrentUser
	fetchedAt time.Time
}

// DefaultCacheTTL bounds how stale a cached principal may get before a
// re-resolve. Login and logout invalidate explicitly; the TTL only covers
// out-of-band role edits.
const DefaultCacheTTL = 30 * time.Second

// NewProvider constructs a Provider.
func NewProvider(source Source, logger *slog.Logger, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Provider{
		source: source,
		logger: logger,
		ttl:    ttl,
		cache:  make(map[string]cacheEntry),
	}
}

// CurrentUser resolves the principal for the token. An empty token
// short-circuits to nil without touching any store. A failed lookup resolves
// to nil (treated as logged out), never to a surfaced error; only context
// cancellation propagates, so a caller that navigated away does not apply a
// stale result.
func (p *Provider) CurrentUser(ctx context.Context, token string) (*CurrentUser, error) {
	if token == "" {
		return nil, nil
	}

	p.mu.RLock()
	entry, ok := p.cache[token]
	p.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < p.ttl {
		return entry.user, nil
	}

	resultChan := p.group.DoChan(token, func() (any, error) {
		user, err := p.source.Resolve(context.WithoutCancel(ctx), token)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("identity resolve failed", slog.Any("error", err))
			}
			return (*CurrentUser)(nil), nil
		}
		p.store(token, user)
		return user, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		user, _ := res.Val.(*CurrentUser)
		return user, nil
	}
}

// Invalidate drops the cached snapshot for a token. Called on login and
// logout, when the token changes meaning.
func (p *Provider) Invalidate(token string) {
	if token == "" {
		return
	}
	p.mu.Lock()
	delete(p.cache, token)
	p.mu.Unlock()
	p.group.Forget(token)
}

func (p *Provider) store(token string, user *CurrentUser) {
	p.mu.Lock()
	p.cache[token] = cacheEntry{user: user, fetchedAt: time.Now()}
	p.mu.Unlock()
}
