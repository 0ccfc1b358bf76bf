// Package guard implements the route-level access gate. It wraps protected
// subtrees with an authentication check and layers per-route permission
// checks on top, so nested routes inherit authentication without
// re-declaring it.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/identity"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/shared"
)

// Redirect targets. Both are reachable without passing through the guard.
const (
	LoginPath  = "/login"
	DeniedPath = "/not-authorized"
)

type userContextKey struct{}

// ContextWithUser stores the resolved principal in the request context.
func ContextWithUser(ctx context.Context, user *identity.CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the principal placed by Authenticated.
func UserFromContext(ctx context.Context) *identity.CurrentUser {
	user, _ := ctx.Value(userContextKey{}).(*identity.CurrentUser)
	return user
}

// Guard authorizes requests against the identity provider and the
// permission registry.
type Guard struct {
	registry *authz.Registry
	provider *identity.Provider
	sessions *shared.SessionManager
	logger   *slog.Logger
}

// New constructs a Guard.
func New(registry *authz.Registry, provider *identity.Provider, sessions *shared.SessionManager, logger *slog.Logger) *Guard {
	return &Guard{registry: registry, provider: provider, sessions: sessions, logger: logger}
}

// Authenticated gates a subtree on a resolved principal. The identity check
// is awaited, never guessed: a request only redirects to login once the
// provider has settled on "no user", so an in-flight check can never flash an
// authenticated user to the login page.
func (g *Guard) Authenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := g.sessions.Token(r)
			user, err := g.provider.CurrentUser(r.Context(), token)
			if err != nil {
				// Context cancelled: the caller navigated away, do not
				// apply the result to a gone consumer.
				return
			}
			if user == nil {
				g.redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// Require layers a permission check on a route already inside an
// Authenticated subtree. An authenticated user lacking the permission is
// sent to the denial page, never back to login.
func (g *Guard) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				g.redirectToLogin(w, r)
				return
			}
			if permission != "" && !user.Allowed(g.registry, permission) {
				g.redirectToDenied(w, r, permission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	// Preserve the originally requested destination so login can return the
	// user to it. Consumed exactly once by the login handler.
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Set(shared.LoginNextKey, r.URL.RequestURI())
	}
	if wantsJSON(r) {
		httpx.ProblemWithLocation(w, http.StatusUnauthorized, "Unauthorized", "authentication required", LoginPath)
		return
	}
	target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (g *Guard) redirectToDenied(w http.ResponseWriter, r *http.Request, permission string) {
	if g.logger != nil {
		g.logger.Info("permission denied",
			slog.String("path", r.URL.Path),
			slog.String("permission", permission))
	}
	if wantsJSON(r) {
		httpx.ProblemWithLocation(w, http.StatusForbidden, "Forbidden", "missing permission", DeniedPath)
		return
	}
	http.Redirect(w, r, DeniedPath, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") || strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
