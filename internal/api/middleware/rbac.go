package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agrovision/farm-api/internal/api/metrics"
	"github.com/agrovision/farm-api/internal/core/domain"
)

// RequireRole admits requests whose principal holds any of the allowed
// roles (union semantics). Must run after Authenticate.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				metrics.AuthDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if _, ok := allowed[p.Role]; !ok {
				return forbid(c)
			}
			return next(c)
		}
	}
}

// RequireAdmin is sugar for RequireRole(domain.RoleAdmin).
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}

// RequireDepartmentAccess guards department-scoped routes (":id" is the
// department). Admins and managers pass unconditionally; a department
// manager passes only for their own department.
func RequireDepartmentAccess() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				metrics.AuthDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			switch p.Role {
			case domain.RoleAdmin, domain.RoleManager:
				return next(c)
			case domain.RoleDepartmentManager:
				if p.DepartmentID != "" && p.DepartmentID == c.Param("id") {
					return next(c)
				}
			}
			return forbid(c)
		}
	}
}

func forbid(c echo.Context) error {
	metrics.AuthDeniedTotal.WithLabelValues("forbidden").Inc()
	return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
}
