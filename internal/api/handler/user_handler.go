package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
)

// UserHandler exposes admin user management. Every route is mounted behind
// Authenticate + RequireAdmin.
type UserHandler struct {
	users ports.UserService
	audit ports.AuditRepository
}

func NewUserHandler(users ports.UserService, audit ports.AuditRepository) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

// List handles GET /api/users.
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.PublicUser
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, publicUsers(users))
}

// Create handles POST /api/users.
//
// @Summary      Create a user with an explicit role, department, and type
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.PublicUser
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		UserType:     req.UserType,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user.Public())
}

// UpdateRole handles PUT /api/users/:id/role.
//
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  domain.PublicUser
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.ChangeRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// UpdateDepartment handles PUT /api/users/:id/department.
//
// @Summary      Move a user to a department (or detach with an empty id)
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "User id"
// @Param        body  body      updateDepartmentRequest  true  "Target department"
// @Success      200   {object}  domain.PublicUser
// @Failure      404   {object}  errorResponse
// @Router       /api/users/{id}/department [put]
func (h *UserHandler) UpdateDepartment(c echo.Context) error {
	var req updateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.ChangeDepartment(c.Request().Context(), c.Param("id"), req.DepartmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// UpdateUserType handles PUT /api/users/:id/usertype.
//
// @Summary      Change a user's type classification
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "User id"
// @Param        body  body      updateUserTypeRequest  true  "New user type"
// @Success      200   {object}  domain.PublicUser
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/users/{id}/usertype [put]
func (h *UserHandler) UpdateUserType(c echo.Context) error {
	var req updateUserTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.ChangeUserType(c.Request().Context(), c.Param("id"), req.UserType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// Audit handles GET /api/users/:id/audit.
//
// @Summary      List a user's recent audit trail, newest first
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "User id"
// @Param        limit  query     int     false  "Maximum events to return (default 100)"
// @Success      200    {array}   domain.AuditEvent
// @Failure      404    {object}  errorResponse
// @Router       /api/users/{id}/audit [get]
func (h *UserHandler) Audit(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	events, err := h.audit.ListByUser(c.Request().Context(), user.ID, limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*domain.AuditEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

func publicUsers(users []*domain.User) []domain.PublicUser {
	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
