package ports

import (
	"context"

	"github.com/agrovision/farm-api/internal/core/domain"
)

// DepartmentService covers the department directory and its membership view.
type DepartmentService interface {
	List(ctx context.Context) ([]*domain.Department, error)
	Get(ctx context.Context, id string) (*domain.Department, error)
	UsersIn(ctx context.Context, id string) ([]*domain.User, error)
	Create(ctx context.Context, name, description string) (*domain.Department, error)
	UpdateDescription(ctx context.Context, id, description string) (*domain.Department, error)
	Delete(ctx context.Context, id string) error

	// Seed creates any missing default departments. Safe to run on every start.
	Seed(ctx context.Context) error
}
