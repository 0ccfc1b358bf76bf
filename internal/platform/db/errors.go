package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// MapError translates pgx errors into the sentinel errors the handlers
// understand. Unrecognised errors pass through untouched.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return httpx.ErrDuplicate
		case foreignKeyViolation:
			return httpx.ErrValidation
		}
	}
	return err
}
