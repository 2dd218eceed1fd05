package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agrovision/farm-api/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// AccessClaims is the payload of a short-lived access token. The role claim
// is informational; authorization always consults the credential store.
type AccessClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived refresh token.
type RefreshClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the two token classes with independent
// HS256 secrets, so a refresh token can never pass as an access token.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	parser        *jwt.Parser
}

// NewTokenService validates the secrets and applies TTL defaults (15 minutes
// access, 7 days refresh) when the given durations are not positive.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	accessSecret = strings.TrimSpace(accessSecret)
	refreshSecret = strings.TrimSpace(refreshSecret)
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token service: both secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("token service: access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// RefreshTTL returns the configured refresh token lifetime.
func (ts *TokenService) RefreshTTL() time.Duration {
	return ts.refreshTTL
}

// IssueAccess signs an access token for the user and returns its expiry.
func (ts *TokenService) IssueAccess(userID string, role domain.Role) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ts.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(ts.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefresh signs a refresh token for the user and returns its expiry.
func (ts *TokenService) IssueRefresh(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ts.refreshTTL)
	// The jti makes every refresh token unique even within the same second,
	// so rotation always invalidates the previous one.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(ts.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccess parses and validates an access token.
func (ts *TokenService) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.verify(token, claims, ts.accessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (ts *TokenService) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.verify(token, claims, ts.refreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// verify normalizes every parse failure to ErrTokenExpired or ErrTokenInvalid
// so callers never branch on jwt library errors.
func (ts *TokenService) verify(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := ts.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ErrTokenExpired
		}
		return domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return domain.ErrTokenInvalid
	}
	return nil
}
