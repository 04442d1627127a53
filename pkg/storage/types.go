package storage

import (
	"context"
	"errors"
	"time"

	"github.com/versemark/versemark/pkg/index"
)

// ErrSessionNotFound is returned for unknown or expired session tokens.
var ErrSessionNotFound = errors.New("session not found")

// ErrUserNotFound is returned when no user matches a lookup.
var ErrUserNotFound = errors.New("user not found")

// ProgressStore persists per-user read markers.
type ProgressStore interface {
	ReadProgress(ctx context.Context, userID string) (index.Progress, error)
	ApplyPatch(ctx context.Context, userID string, patch index.Patch) error
	Close() error
}

// User is an account created on first sign-in with a provider.
type User struct {
	ID          string
	Provider    string
	Subject     string
	DisplayName string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// Session binds a cookie token to a user until ExpiresAt.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ProviderStats is one row of `db stats`.
type ProviderStats struct {
	Provider     string
	UserCount    int
	SessionCount int
	MarkCount    int
}
