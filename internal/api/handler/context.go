package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agrovision/farm-api/internal/api/middleware"
)

// ctxPrincipal extracts the principal injected by the Authenticate
// middleware and fast-fails before any service call. A missing principal on
// a protected route means the middleware chain is miswired; reject with 401
// rather than proceed unauthenticated.
func ctxPrincipal(c echo.Context) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.UserID == "" {
		return middleware.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}
