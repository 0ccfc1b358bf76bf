package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tallybook/tallybook/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// WithAudit enables audit logging of session lifecycle events.
func (s *Service) WithAudit(audit *shared.AuditLogger) *Service {
	s.audit = audit
	return s
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if err := s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: userID, Action: "login", Entity: "session", EntityID: id,
			Meta: map[string]any{"ip": ip},
		})
	}
	return nil
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action: "logout", Entity: "session", EntityID: id,
		})
	}
	return nil
}
