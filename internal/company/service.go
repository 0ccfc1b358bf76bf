package company

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort defines data access for company and profile settings.
type RepositoryPort interface {
	Get(ctx context.Context) (Company, error)
	Upsert(ctx context.Context, input Input) (Company, error)
	GetProfile(ctx context.Context, userID int64) (Profile, error)
	UpdateProfile(ctx context.Context, userID int64, name, email, passwordHash string) (Profile, error)
}

// Service handles company/profile business logic.
type Service struct {
	repo RepositoryPort
	cost int
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// Get returns the company profile.
func (s *Service) Get(ctx context.Context) (Company, error) {
	return s.repo.Get(ctx)
}

// Save validates and writes the company profile.
func (s *Service) Save(ctx context.Context, input Input) (Company, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Company{}, fmt.Errorf("%w: company name required", httpx.ErrValidation)
	}
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if len(input.Currency) != 3 {
		return Company{}, fmt.Errorf("%w: currency must be a 3-letter code", httpx.ErrValidation)
	}
	if input.FiscalYearStart < time.January || input.FiscalYearStart > time.December {
		return Company{}, fmt.Errorf("%w: fiscal year start must be a month", httpx.ErrValidation)
	}
	return s.repo.Upsert(ctx, input)
}

// GetProfile returns the signed-in user's profile.
func (s *Service) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfile applies self-service edits for the signed-in user.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, input ProfileInput) (Profile, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" {
		return Profile{}, fmt.Errorf("%w: name and email required", httpx.ErrValidation)
	}
	hash := ""
	if input.Password != "" {
		if len(input.Password) < 8 {
			return Profile{}, fmt.Errorf("%w: password too short", httpx.ErrValidation)
		}
		h, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
		if err != nil {
			return Profile{}, fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}
	return s.repo.UpdateProfile(ctx, userID, input.Name, input.Email, hash)
}
