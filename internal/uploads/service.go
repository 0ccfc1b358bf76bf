package uploads

import (
	"context"
	"fmt"
	"strings"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

const defaultListLimit = 100

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	List(ctx context.Context, limit int) ([]Record, error)
	Create(ctx context.Context, input Input) (Record, error)
	Delete(ctx context.Context, id int64) error
}

// Service coordinates upload bookkeeping.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the most recent upload records.
func (s *Service) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}
	return s.repo.List(ctx, limit)
}

// Record validates and stores an upload entry.
func (s *Service) Record(ctx context.Context, input Input) (Record, error) {
	input.Filename = strings.TrimSpace(input.Filename)
	if input.Filename == "" {
		return Record{}, fmt.Errorf("%w: filename required", httpx.ErrValidation)
	}
	input.Kind = strings.ToLower(strings.TrimSpace(input.Kind))
	if input.Kind == "" {
		return Record{}, fmt.Errorf("%w: kind required", httpx.ErrValidation)
	}
	if input.Size < 0 {
		return Record{}, fmt.Errorf("%w: size cannot be negative", httpx.ErrValidation)
	}
	if input.RowCount < 0 {
		return Record{}, fmt.Errorf("%w: row count cannot be negative", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, input)
}

// Delete removes an upload record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
