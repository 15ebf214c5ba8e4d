package repository

import (
	"context"
	"time"

	authdomain "ireporter-backend/internal/auth/domain"
)

// UserRepository defines data access for user records
type UserRepository interface {
	// Create hashes password and inserts user. Duplicate usernames or emails
	// return domain.ErrDuplicateUsername / domain.ErrDuplicateEmail.
	Create(user *authdomain.User, password string) error

	// FindByUsername returns nil, nil when no user matches
	FindByUsername(username string) (*authdomain.User, error)

	// FindByID returns nil, nil when no user matches
	FindByID(id string) (*authdomain.User, error)

	// UpdatePassword replaces the stored hash with one for password
	UpdatePassword(id, password string) error

	// ExistsByField checks uniqueness of "username" or "email" before insert
	ExistsByField(field, value string) (bool, error)
}

// RevokedTokenRepository is the token denylist
type RevokedTokenRepository interface {
	Revoke(token *authdomain.RevokedToken) error
	IsRevoked(jti string) (bool, error)
	// PurgeExpired drops entries whose token has expired anyway
	PurgeExpired(now time.Time) (int64, error)
}

// Repositories are bound to the single connection of one Store session.
type Repositories struct {
	Users         UserRepository
	RevokedTokens RevokedTokenRepository
}

// Store hands out repositories scoped to one pooled connection.
type Store interface {
	// Session acquires a connection, runs fn with repositories bound to it and
	// releases the connection on every exit path.
	Session(ctx context.Context, fn func(repos Repositories) error) error
}
