package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
)

// refreshCookieName matches the cookie the web client already uses.
const refreshCookieName = "refreshToken"

// refreshCookiePath scopes the cookie to the auth endpoints so it never
// rides along on ordinary API calls.
const refreshCookiePath = "/api/auth"

// AuthHandler exposes the session protocol over HTTP.
type AuthHandler struct {
	auth          ports.AuthService
	users         ports.UserService
	secureCookies bool
}

// NewAuthHandler creates an AuthHandler. secureCookies should be true in
// production so the refresh cookie is only sent over TLS.
func NewAuthHandler(auth ports.AuthService, users ports.UserService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, secureCookies: secureCookies}
}

// Register handles POST /api/auth/register.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.auth.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		// The registration form reports duplicates as a plain 400.
		if errors.Is(err, domain.ErrUserExists) {
			return echo.NewHTTPError(http.StatusBadRequest, "email already registered")
		}
		return err
	}

	h.setRefreshCookie(c, session.RefreshToken, session.RefreshExpiresAt)
	return c.JSON(http.StatusCreated, sessionResponse{
		User:        session.User.Public(),
		AccessToken: session.AccessToken,
	})
}

// Login handles POST /api/auth/login.
//
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, session.RefreshToken, session.RefreshExpiresAt)
	return c.JSON(http.StatusOK, sessionResponse{
		User:        session.User.Public(),
		AccessToken: session.AccessToken,
	})
}

// Refresh handles POST /api/auth/refresh-token. The refresh token travels
// only in the httpOnly cookie, never in the body.
//
// @Summary      Exchange the refresh cookie for a new access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  accessTokenResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no refresh token")
	}

	session, err := h.auth.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		// The session is gone either way; stop the client from retrying
		// with the same cookie.
		h.clearRefreshCookie(c)
		return err
	}

	h.setRefreshCookie(c, session.RefreshToken, session.RefreshExpiresAt)
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: session.AccessToken})
}

// Logout handles POST /api/auth/logout. Idempotent.
//
// @Summary      Log out and invalidate the refresh token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.auth.Logout(c.Request().Context(), p.UserID); err != nil {
		return err
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out successfully"})
}

// Me handles GET /api/auth/me.
//
// @Summary      Return the authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PublicUser
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
