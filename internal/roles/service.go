package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, name string, isActive bool, set authz.Set) (Role, error)
	Update(ctx context.Context, id int64, name string, isActive bool, set authz.Set) (Role, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles role business logic.
type Service struct {
	repo     RepositoryPort
	registry *authz.Registry
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, registry *authz.Registry) *Service {
	return &Service{repo: repo, registry: registry}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get returns one role.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the grant names and inserts a role. Unknown permission
// names are rejected rather than silently dropped; a typo in a grant must
// surface to whoever is editing the role.
func (s *Service) Create(ctx context.Context, input RoleInput) (Role, error) {
	set, err := s.resolve(input)
	if err != nil {
		return Role{}, err
	}
	return s.repo.Create(ctx, strings.TrimSpace(input.Name), input.IsActive, set)
}

// Update rewrites an existing role.
func (s *Service) Update(ctx context.Context, id int64, input RoleInput) (Role, error) {
	set, err := s.resolve(input)
	if err != nil {
		return Role{}, err
	}
	return s.repo.Update(ctx, id, strings.TrimSpace(input.Name), input.IsActive, set)
}

// Delete removes a role.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) resolve(input RoleInput) (authz.Set, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	set := authz.NewSet()
	for _, name := range input.Permissions {
		id, ok := s.registry.ID(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown permission %q", httpx.ErrValidation, name)
		}
		set[id] = struct{}{}
	}
	return set, nil
}
