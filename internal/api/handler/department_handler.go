package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agrovision/farm-api/internal/core/ports"
)

type departmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type departmentDescriptionRequest struct {
	Description string `json:"description"`
}

// DepartmentHandler exposes the department directory. Reads are open to any
// authenticated user; membership listing and writes are role-gated in the
// router.
type DepartmentHandler struct {
	departments ports.DepartmentService
}

func NewDepartmentHandler(departments ports.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// List handles GET /api/departments.
func (h *DepartmentHandler) List(c echo.Context) error {
	depts, err := h.departments.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, depts)
}

// Get handles GET /api/departments/:id.
func (h *DepartmentHandler) Get(c echo.Context) error {
	dept, err := h.departments.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dept)
}

// Users handles GET /api/departments/:id/users. Lists the members of a department,
// public projection only.
func (h *DepartmentHandler) Users(c echo.Context) error {
	users, err := h.departments.UsersIn(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, publicUsers(users))
}

// Create handles POST /api/departments.
func (h *DepartmentHandler) Create(c echo.Context) error {
	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	dept, err := h.departments.Create(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dept)
}

// Update handles PUT /api/departments/:id. Description only, names are
// fixed to the closed set.
func (h *DepartmentHandler) Update(c echo.Context) error {
	var req departmentDescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	dept, err := h.departments.UpdateDescription(c.Request().Context(), c.Param("id"), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dept)
}

// Delete handles DELETE /api/departments/:id. Members are detached, never
// deleted.
func (h *DepartmentHandler) Delete(c echo.Context) error {
	if err := h.departments.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "department deleted"})
}
