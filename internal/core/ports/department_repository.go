package ports

import (
	"context"

	"github.com/agrovision/farm-api/internal/core/domain"
)

// DepartmentRepository persists the department directory.
type DepartmentRepository interface {
	List(ctx context.Context) ([]*domain.Department, error)
	FindByID(ctx context.Context, id string) (*domain.Department, error)
	FindByName(ctx context.Context, name string) (*domain.Department, error)
	Create(ctx context.Context, dept *domain.Department) (*domain.Department, error)
	UpdateDescription(ctx context.Context, id, description string) (*domain.Department, error)
	Delete(ctx context.Context, id string) error
}
