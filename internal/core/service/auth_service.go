package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agrovision/farm-api/internal/api/metrics"
	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
)

// LoginThrottle abstracts the failed-attempt store (Redis). Errors from the
// throttle never block a login: the service logs and fails open.
type LoginThrottle interface {
	TooManyAttempts(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

type authService struct {
	users    ports.UserRepository
	tokens   *TokenService
	throttle LoginThrottle
	audit    ports.AuditRecorder
	log      zerolog.Logger
}

// NewAuthService returns the session-protocol implementation. It is the sole
// writer of refresh-token state in the credential store.
func NewAuthService(
	users ports.UserRepository,
	tokens *TokenService,
	throttle LoginThrottle,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) ports.AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		throttle: throttle,
		audit:    audit,
		log:      log,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*ports.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if err != domain.ErrUserNotFound {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		UserType:     domain.UserTypeInternal,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.openSession(ctx, created)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{UserID: created.ID, Action: domain.AuditRegister, Timestamp: now})
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return session, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if locked, err := s.throttle.TooManyAttempts(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
	} else if locked {
		metrics.LoginAttemptsTotal.WithLabelValues("locked_out").Inc()
		return nil, domain.ErrTooManyAttempts
	}

	// Lookup failure and password mismatch are indistinguishable to the
	// caller, so there is no user-existence leak.
	user, err := s.users.FindByEmail(ctx, email)
	if err == domain.ErrUserNotFound {
		s.noteFailure(ctx, email, "")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: lookup email: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, password) {
		s.noteFailure(ctx, email, user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.throttle.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("login throttle reset failed")
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.audit.Record(domain.AuditEvent{UserID: user.ID, Action: domain.AuditLogin, Timestamp: time.Now().UTC()})
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return session, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*ports.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	// A signature-valid token that does not match the persisted slot has
	// been rotated out; presenting it again is reuse.
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		metrics.TokenRefreshTotal.WithLabelValues("superseded").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	s.audit.Record(domain.AuditEvent{UserID: user.ID, Action: domain.AuditRefresh, Timestamp: time.Now().UTC()})
	return session, nil
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	if _, err := s.users.UpdateRefreshToken(ctx, userID, ""); err != nil {
		// A second logout for an already-removed user is not an error.
		if err == domain.ErrUserNotFound {
			return nil
		}
		return fmt.Errorf("logout: clear refresh token: %w", err)
	}
	s.audit.Record(domain.AuditEvent{UserID: userID, Action: domain.AuditLogout, Timestamp: time.Now().UTC()})
	return nil
}

// openSession issues a fresh access+refresh pair and persists the refresh
// token, overwriting any prior one. One active session per user; concurrent
// refreshes resolve last-write-wins on the user row.
func (s *authService) openSession(ctx context.Context, user *domain.User) (*ports.Session, error) {
	access, accessExp, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	updated, err := s.users.UpdateRefreshToken(ctx, user.ID, refresh)
	if err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()

	return &ports.Session{
		User:             updated,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *authService) noteFailure(ctx context.Context, email, userID string) {
	metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("login throttle record failed")
	}
	if userID != "" {
		s.audit.Record(domain.AuditEvent{UserID: userID, Action: domain.AuditLoginFailed, Timestamp: time.Now().UTC()})
	}
}
