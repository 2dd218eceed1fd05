package ports

import (
	"context"

	"github.com/agrovision/farm-api/internal/core/domain"
)

// UserRepository is the credential store contract. Lookups return
// domain.ErrUserNotFound when no record matches; Create returns
// domain.ErrUserExists on a unique-index violation.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]*domain.User, error)

	// UpdateRefreshToken sets the single refresh-token slot; an empty token
	// clears it. The auth service is the only caller.
	UpdateRefreshToken(ctx context.Context, userID, token string) (*domain.User, error)

	UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error)
	UpdateDepartment(ctx context.Context, userID, departmentID string) (*domain.User, error)
	UpdateUserType(ctx context.Context, userID string, userType domain.UserType) (*domain.User, error)

	// ClearDepartment detaches every member of a department (department
	// deletion sets the reference to null, never cascades).
	ClearDepartment(ctx context.Context, departmentID string) error
}
