// Package identity resolves the current authenticated principal from the
// credential token and exposes the derived permission set. It is the single
// writer of the current-user snapshot; everything else only reads it.
package identity

import (
	"github.com/tallybook/tallybook/internal/authz"
)

// CurrentUser is the authenticated principal with the resolved permission
// set. Instances are immutable once published; a refresh replaces the whole
// snapshot so readers never observe a half-updated grant set.
type CurrentUser struct {
	ID          int64
	Name        string
	Email       string
	RoleID      int64
	RoleName    string
	Active      bool
	Permissions authz.Set
}

// Allowed reports whether the user holds the named permission. Unknown names
// resolve to deny.
func (u *CurrentUser) Allowed(reg *authz.Registry, name string) bool {
	if u == nil {
		return false
	}
	id, ok := reg.ID(name)
	if !ok {
		return false
	}
	return u.Permissions.Has(id)
}
