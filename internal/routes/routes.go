// Package routes holds the declarative route table: every API path, the
// handler behind it and the permission it requires. The table is validated
// once at startup; configuration defects (duplicate paths, permission names
// missing from the registry) abort boot instead of surfacing as silent
// allow-or-deny behaviour at request time.
package routes

import (
	"fmt"
	"net/http"

	"github.com/tallybook/tallybook/internal/authz"
)

// Route declares one endpoint. Permission is a registry name; empty means
// any authenticated user may call it. Dynamic {id} segments carry no
// permission semantics of their own.
type Route struct {
	Method     string
	Path       string
	Permission string
	Handler    http.HandlerFunc
}

// Table aggregates the routes contributed by each feature module.
type Table struct {
	routes []Route
}

// NewTable builds a Table from route groups.
func NewTable(groups ...[]Route) *Table {
	t := &Table{}
	for _, group := range groups {
		t.routes = append(t.routes, group...)
	}
	return t
}

// Add appends routes after construction, for handlers that themselves need
// a reference to the table (the navigation endpoint).
func (t *Table) Add(routes ...Route) {
	t.routes = append(t.routes, routes...)
}

// All returns the declared routes in registration order.
func (t *Table) All() []Route {
	return t.routes
}

// PermissionFor returns the permission name declared for a GET path, used by
// the navigation model to derive entry gating from the table instead of
// hand-maintaining it twice.
func (t *Table) PermissionFor(method, path string) (string, bool) {
	for _, route := range t.routes {
		if route.Method == method && route.Path == path {
			return route.Permission, true
		}
	}
	return "", false
}

// Validate rejects duplicate method+path pairs and permission names absent
// from the registry.
func (t *Table) Validate(reg *authz.Registry) error {
	seen := make(map[string]struct{}, len(t.routes))
	for _, route := range t.routes {
		if route.Method == "" || route.Path == "" {
			return fmt.Errorf("routes: route %q %q is incomplete", route.Method, route.Path)
		}
		if route.Handler == nil {
			return fmt.Errorf("routes: %s %s has no handler", route.Method, route.Path)
		}
		key := route.Method + " " + route.Path
		if _, dup := seen[key]; dup {
			return fmt.Errorf("routes: duplicate route %s", key)
		}
		seen[key] = struct{}{}
		if route.Permission != "" {
			if _, ok := reg.ID(route.Permission); !ok {
				return fmt.Errorf("routes: %s declares unknown permission %q", key, route.Permission)
			}
		}
	}
	return nil
}
