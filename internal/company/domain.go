package company

import "time"

// Company is the single business profile the dashboard operates on.
type Company struct {
	ID              int64
	Name            string
	Address         string
	Phone           string
	Email           string
	Currency        string
	FiscalYearStart time.Month
	UpdatedAt       time.Time
}

// Input carries the editable company fields.
type Input struct {
	Name            string
	Address         string
	Phone           string
	Email           string
	Currency        string
	FiscalYearStart time.Month
}

// Profile is the signed-in user's own editable slice of their account.
type Profile struct {
	ID    int64
	Name  string
	Email string
}

// ProfileInput carries the fields a user may change about themselves.
// Password is optional; empty keeps the current one.
type ProfileInput struct {
	Name     string
	Email    string
	Password string
}
