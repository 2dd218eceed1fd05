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

type departmentService struct {
	departments ports.DepartmentRepository
	users       ports.UserRepository
	log         zerolog.Logger
}

// NewDepartmentService returns the department directory service.
func NewDepartmentService(
	departments ports.DepartmentRepository,
	users ports.UserRepository,
	log zerolog.Logger,
) ports.DepartmentService {
	return &departmentService{departments: departments, users: users, log: log}
}

func (s *departmentService) List(ctx context.Context) ([]*domain.Department, error) {
	return s.departments.List(ctx)
}

func (s *departmentService) Get(ctx context.Context, id string) (*domain.Department, error) {
	return s.departments.FindByID(ctx, id)
}

func (s *departmentService) UsersIn(ctx context.Context, id string) ([]*domain.User, error) {
	if _, err := s.departments.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.users.ListByDepartment(ctx, id)
}

func (s *departmentService) Create(ctx context.Context, name, description string) (*domain.Department, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !domain.ValidDepartmentName(name) {
		return nil, domain.ErrInvalidDepartmentName
	}
	now := time.Now().UTC()
	return s.departments.Create(ctx, &domain.Department{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *departmentService) UpdateDescription(ctx context.Context, id, description string) (*domain.Department, error) {
	return s.departments.UpdateDescription(ctx, id, description)
}

// Delete removes the department and detaches its members. Users keep their
// accounts; only the reference is cleared.
func (s *departmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.departments.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.ClearDepartment(ctx, id); err != nil {
		return fmt.Errorf("delete department: detach members: %w", err)
	}
	return s.departments.Delete(ctx, id)
}

func (s *departmentService) Seed(ctx context.Context) error {
	for _, name := range domain.DefaultDepartments {
		_, err := s.departments.FindByName(ctx, name)
		if err == nil {
			continue
		}
		if err != domain.ErrDepartmentNotFound {
			return fmt.Errorf("seed departments: lookup %s: %w", name, err)
		}
		now := time.Now().UTC()
		if _, err := s.departments.Create(ctx, &domain.Department{
			Name:        name,
			Description: strings.ToUpper(name[:1]) + name[1:] + " department",
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil && err != domain.ErrDepartmentExists {
			return fmt.Errorf("seed departments: create %s: %w", name, err)
		}
		s.log.Info().Str("department", name).Msg("default department created")
	}
	return nil
}
