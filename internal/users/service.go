package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles account business logic.
type Service struct {
	repo RepositoryPort
	cost int
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create provisions an account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		RoleID:       input.RoleID,
		IsActive:     input.IsActive,
	})
}

// Update rewrites an account. An empty password keeps the stored hash, so
// editing a role does not force a reset.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	hash := current.PasswordHash
	if input.Password != "" {
		if len(input.Password) < 8 {
			return User{}, fmt.Errorf("%w: password too short", httpx.ErrValidation)
		}
		h, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}
	return s.repo.Update(ctx, User{
		ID:           id,
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		RoleID:       input.RoleID,
		IsActive:     input.IsActive,
	})
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
