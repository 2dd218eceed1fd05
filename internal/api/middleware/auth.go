package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agrovision/farm-api/internal/api/metrics"
	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
	"github.com/agrovision/farm-api/internal/core/service"
)

const principalKey = "principal"

// Principal is the authenticated identity attached to the request context.
// Role and DepartmentID come from the credential store, not the token, so a
// role change is visible on the very next request.
type Principal struct {
	UserID       string
	Username     string
	Email        string
	Role         domain.Role
	DepartmentID string
	UserType     domain.UserType
}

// AccessVerifier is the slice of the token service the guard needs.
type AccessVerifier interface {
	VerifyAccess(token string) (*service.AccessClaims, error)
}

// Authenticate validates the bearer access token and resolves the current
// user from the credential store. The re-fetch is mandatory: token claims
// prove recent authentication, the store decides current privileges.
func Authenticate(verifier AccessVerifier, users ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return deny(c)
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				return deny(c)
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return deny(c)
			}

			c.Set(principalKey, Principal{
				UserID:       user.ID,
				Username:     user.Username,
				Email:        user.Email,
				Role:         user.Role,
				DepartmentID: user.DepartmentID,
				UserType:     user.UserType,
			})
			return next(c)
		}
	}
}

// PrincipalFrom extracts the authenticated principal set by Authenticate.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// deny is the single 401 path: no hint about which check failed.
func deny(c echo.Context) error {
	metrics.AuthDeniedTotal.WithLabelValues("unauthenticated").Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
}
