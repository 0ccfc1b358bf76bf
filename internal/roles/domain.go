package roles

import (
	"time"

	"github.com/tallybook/tallybook/internal/authz"
)

// Role represents a named permission grant assigned to users. Permissions
// holds the flat decoded set; the sections/areas split only exists at the
// storage and wire boundary.
type Role struct {
	ID          int64
	Name        string
	IsActive    bool
	Permissions authz.Set
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleInput carries the fields accepted on create and update. Permission
// names are resolved against the registry before anything is stored.
type RoleInput struct {
	Name        string
	IsActive    bool
	Permissions []string
}
