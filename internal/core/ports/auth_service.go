package ports

import (
	"context"
	"time"

	"github.com/agrovision/farm-api/internal/core/domain"
)

// Session is the result of a successful register, login, or refresh: the
// user, a short-lived access token, and the refresh token destined for the
// httpOnly cookie.
type Session struct {
	User             *domain.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService is the session protocol: the only writer of refresh-token
// state in the credential store.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)

	// Refresh exchanges a valid refresh token for a new session. The refresh
	// token is rotated on every call; presenting a superseded token fails
	// with domain.ErrInvalidRefreshToken.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// Logout clears the refresh-token slot. Idempotent.
	Logout(ctx context.Context, userID string) error
}
