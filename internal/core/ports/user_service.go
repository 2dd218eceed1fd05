package ports

import (
	"context"

	"github.com/agrovision/farm-api/internal/core/domain"
)

// CreateUserInput carries the fields an administrator may set when creating
// an account directly. Role, DepartmentID, and UserType are optional and
// default like self-registration when empty.
type CreateUserInput struct {
	Username     string
	Email        string
	Password     string
	Role         string
	DepartmentID string
	UserType     string
}

// UserService covers administrator-driven user management.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	ChangeRole(ctx context.Context, id, role string) (*domain.User, error)
	ChangeDepartment(ctx context.Context, id, departmentID string) (*domain.User, error)
	ChangeUserType(ctx context.Context, id, userType string) (*domain.User, error)
}
