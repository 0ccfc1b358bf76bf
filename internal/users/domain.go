package users

import "time"

// User is a dashboard account. PasswordHash never leaves the repository
// layer; handlers only ever see the public fields.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	RoleID       int64
	RoleName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput carries the fields accepted when provisioning an account.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	RoleID   int64
	IsActive bool
}

// UpdateInput carries the fields accepted on update. Password is optional;
// empty means keep the current hash.
type UpdateInput struct {
	Name     string
	Email    string
	Password string
	RoleID   int64
	IsActive bool
}
