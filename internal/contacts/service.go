package contacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort defines data access methods for contact ledgers.
type RepositoryPort interface {
	List(ctx context.Context, kind Kind) ([]Contact, error)
	Create(ctx context.Context, kind Kind, input Input) (Contact, error)
	Update(ctx context.Context, kind Kind, id int64, input Input) (Contact, error)
	Delete(ctx context.Context, kind Kind, id int64) error
}

// Service handles contact business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns one ledger.
func (s *Service) List(ctx context.Context, kind Kind) ([]Contact, error) {
	return s.repo.List(ctx, kind)
}

// Create validates and inserts a contact.
func (s *Service) Create(ctx context.Context, kind Kind, input Input) (Contact, error) {
	input, err := check(kind, input)
	if err != nil {
		return Contact{}, err
	}
	return s.repo.Create(ctx, kind, input)
}

// Update validates and rewrites a contact.
func (s *Service) Update(ctx context.Context, kind Kind, id int64, input Input) (Contact, error) {
	input, err := check(kind, input)
	if err != nil {
		return Contact{}, err
	}
	return s.repo.Update(ctx, kind, id, input)
}

// Delete removes a contact.
func (s *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	return s.repo.Delete(ctx, kind, id)
}

func check(kind Kind, input Input) (Input, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	if !kind.HasBalance() && input.Balance != 0 {
		return input, fmt.Errorf("%w: %s entries do not carry a balance", httpx.ErrValidation, kind)
	}
	return input, nil
}
