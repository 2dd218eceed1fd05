package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
)

type userService struct {
	users       ports.UserRepository
	departments ports.DepartmentRepository
	audit       ports.AuditRecorder
	log         zerolog.Logger
}

// NewUserService returns the admin-facing user management service.
func NewUserService(
	users ports.UserRepository,
	departments ports.DepartmentRepository,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) ports.UserService {
	return &userService{
		users:       users,
		departments: departments,
		audit:       audit,
		log:         log,
	}
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	role := domain.RoleUser
	if in.Role != "" {
		var err error
		if role, err = domain.ParseRole(in.Role); err != nil {
			return nil, err
		}
	}

	userType := domain.UserTypeInternal
	if in.UserType != "" {
		var err error
		if userType, err = domain.ParseUserType(in.UserType); err != nil {
			return nil, err
		}
	}

	if in.DepartmentID != "" {
		if _, err := s.departments.FindByID(ctx, in.DepartmentID); err != nil {
			return nil, err
		}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: in.DepartmentID,
		UserType:     userType,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created by admin")
	return created, nil
}

func (s *userService) ChangeRole(ctx context.Context, id, role string) (*domain.User, error) {
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.UpdateRole(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	s.audit.Record(domain.AuditEvent{
		UserID:    id,
		Action:    domain.AuditRoleChange,
		Detail:    string(parsed),
		Timestamp: time.Now().UTC(),
	})
	s.log.Info().Str("user_id", id).Str("role", role).Msg("user role changed")
	return updated, nil
}

func (s *userService) ChangeDepartment(ctx context.Context, id, departmentID string) (*domain.User, error) {
	// Empty means detach; otherwise the department must exist.
	if departmentID != "" {
		if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
			return nil, err
		}
	}
	updated, err := s.users.UpdateDepartment(ctx, id, departmentID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(domain.AuditEvent{
		UserID:    id,
		Action:    domain.AuditDepartmentChange,
		Detail:    departmentID,
		Timestamp: time.Now().UTC(),
	})
	return updated, nil
}

func (s *userService) ChangeUserType(ctx context.Context, id, userType string) (*domain.User, error) {
	parsed, err := domain.ParseUserType(userType)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.UpdateUserType(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	s.audit.Record(domain.AuditEvent{
		UserID:    id,
		Action:    domain.AuditUserTypeChange,
		Detail:    string(parsed),
		Timestamp: time.Now().UTC(),
	})
	return updated, nil
}
