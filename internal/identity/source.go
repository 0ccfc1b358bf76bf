package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/tallybook/tallybook/internal/authz"
)

// UserStore loads a user row with its role grants from persistent storage.
type UserStore interface {
	FindUserWithGrants(ctx context.Context, id int64) (UserRecord, error)
}

// UserRecord is the raw user row plus the role grant strings as stored.
type UserRecord struct {
	ID         int64
	Name       string
	Email      string
	Active     bool
	RoleID     int64
	RoleName   string
	RoleActive bool
	Sections   string
	Areas      string
}

// ErrUserNotFound is returned by UserStore implementations for missing rows.
var ErrUserNotFound = errors.New("identity: user not found")

// SessionSource resolves tokens through the Redis session store and the user
// store. It mirrors the session payload layout written by shared.SessionManager.
type SessionSource struct {
	client   *redis.Client
	registry *authz.Registry
	users    UserStore
}

// NewSessionSource constructs a SessionSource.
func NewSessionSource(client *redis.Client, registry *authz.Registry, users UserStore) *SessionSource {
	return &SessionSource{client: client, registry: registry, users: users}
}

type sessionPayload struct {
	UserID string `json:"user_id"`
}

// Resolve maps token -> session -> user, deriving the permission set from the
// role grants. Unknown tokens and anonymous sessions resolve to (nil, nil).
func (s *SessionSource) Resolve(ctx context.Context, token string) (*CurrentUser, error) {
	raw, err := s.client.Get(ctx, "session:"+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload.UserID == "" {
		return nil, nil
	}
	userID, err := strconv.ParseInt(payload.UserID, 10, 64)
	if err != nil {
		return nil, err
	}

	record, err := s.users.FindUserWithGrants(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !record.Active {
		return nil, nil
	}

	perms := authz.Set{}
	if record.RoleActive {
		// A user with no grant strings simply holds no permissions.
		perms = authz.DecodeGrants(s.registry, record.Sections, record.Areas)
	}
	return &CurrentUser{
		ID:          record.ID,
		Name:        record.Name,
		Email:       record.Email,
		RoleID:      record.RoleID,
		RoleName:    record.RoleName,
		Active:      record.Active,
		Permissions: perms,
	}, nil
}
