package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
)

type stubDeptRepo struct {
	byID map[string]*domain.Department
	seq  int
}

func newStubDeptRepo() *stubDeptRepo {
	return &stubDeptRepo{byID: make(map[string]*domain.Department)}
}

func cloneDept(d *domain.Department) *domain.Department {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

func (r *stubDeptRepo) List(_ context.Context) ([]*domain.Department, error) {
	out := make([]*domain.Department, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, cloneDept(d))
	}
	return out, nil
}

func (r *stubDeptRepo) FindByID(_ context.Context, id string) (*domain.Department, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDepartmentNotFound
	}
	return cloneDept(d), nil
}

func (r *stubDeptRepo) FindByName(_ context.Context, name string) (*domain.Department, error) {
	for _, d := range r.byID {
		if d.Name == name {
			return cloneDept(d), nil
		}
	}
	return nil, domain.ErrDepartmentNotFound
}

func (r *stubDeptRepo) Create(_ context.Context, dept *domain.Department) (*domain.Department, error) {
	for _, d := range r.byID {
		if d.Name == dept.Name {
			return nil, domain.ErrDepartmentExists
		}
	}
	r.seq++
	copy := cloneDept(dept)
	copy.ID = fmt.Sprintf("dept_%d", r.seq)
	r.byID[copy.ID] = cloneDept(copy)
	return copy, nil
}

func (r *stubDeptRepo) UpdateDescription(_ context.Context, id, description string) (*domain.Department, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDepartmentNotFound
	}
	d.Description = description
	d.UpdatedAt = time.Now().UTC()
	return cloneDept(d), nil
}

func (r *stubDeptRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrDepartmentNotFound
	}
	delete(r.byID, id)
	return nil
}

func newUserServiceFixture() (*stubUserRepo, *stubDeptRepo, *stubRecorder, ports.UserService) {
	users := newStubUserRepo()
	depts := newStubDeptRepo()
	recorder := &stubRecorder{}
	svc := NewUserService(users, depts, recorder, zerolog.Nop())
	return users, depts, recorder, svc
}

func TestUserService_Create_Defaults(t *testing.T) {
	_, _, _, svc := newUserServiceFixture()

	user, err := svc.Create(context.Background(), ports.CreateUserInput{
		Username: "ivy",
		Email:    "Ivy@X.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.Role != domain.RoleUser || user.UserType != domain.UserTypeInternal {
		t.Fatalf("unexpected defaults: role=%s type=%s", user.Role, user.UserType)
	}
	if user.Email != "ivy@x.com" {
		t.Fatalf("email not lowercased: %s", user.Email)
	}
	if !VerifyPassword(user.PasswordHash, "secret123") {
		t.Fatalf("stored hash does not match password")
	}
}

func TestUserService_Create_WithRoleAndDepartment(t *testing.T) {
	_, depts, _, svc := newUserServiceFixture()

	dept, err := depts.Create(context.Background(), &domain.Department{Name: "animals"})
	if err != nil {
		t.Fatalf("create department: %v", err)
	}

	user, err := svc.Create(context.Background(), ports.CreateUserInput{
		Username:     "jack",
		Email:        "jack@x.com",
		Password:     "secret123",
		Role:         "department_manager",
		DepartmentID: dept.ID,
		UserType:     "external",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.Role != domain.RoleDepartmentManager || user.DepartmentID != dept.ID || user.UserType != domain.UserTypeExternal {
		t.Fatalf("fields not applied: %+v", user)
	}
}

func TestUserService_Create_Invalid(t *testing.T) {
	_, _, _, svc := newUserServiceFixture()

	if _, err := svc.Create(context.Background(), ports.CreateUserInput{
		Username: "kate", Email: "kate@x.com", Password: "pw", Role: "superuser",
	}); err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.Create(context.Background(), ports.CreateUserInput{
		Username: "kate", Email: "kate@x.com", Password: "pw", UserType: "robot",
	}); err != domain.ErrInvalidUserType {
		t.Fatalf("expected ErrInvalidUserType, got %v", err)
	}
	if _, err := svc.Create(context.Background(), ports.CreateUserInput{
		Username: "kate", Email: "kate@x.com", Password: "pw", DepartmentID: "dept_404",
	}); err != domain.ErrDepartmentNotFound {
		t.Fatalf("expected ErrDepartmentNotFound, got %v", err)
	}
}

func TestUserService_ChangeRole(t *testing.T) {
	users, _, recorder, svc := newUserServiceFixture()

	created, err := users.Create(context.Background(), &domain.User{
		Username: "leo", Email: "leo@x.com", Role: domain.RoleUser, UserType: domain.UserTypeInternal,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	updated, err := svc.ChangeRole(context.Background(), created.ID, "admin")
	if err != nil {
		t.Fatalf("ChangeRole returned error: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("role not updated: %s", updated.Role)
	}
	if !recorder.has(domain.AuditRoleChange) {
		t.Fatalf("role change audit event missing")
	}

	if _, err := svc.ChangeRole(context.Background(), created.ID, "overlord"); err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.ChangeRole(context.Background(), "user_404", "admin"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ChangeDepartment(t *testing.T) {
	users, depts, _, svc := newUserServiceFixture()

	dept, _ := depts.Create(context.Background(), &domain.Department{Name: "feed"})
	created, _ := users.Create(context.Background(), &domain.User{Username: "mia", Email: "mia@x.com"})

	updated, err := svc.ChangeDepartment(context.Background(), created.ID, dept.ID)
	if err != nil {
		t.Fatalf("ChangeDepartment returned error: %v", err)
	}
	if updated.DepartmentID != dept.ID {
		t.Fatalf("department not set: %q", updated.DepartmentID)
	}

	// Empty id detaches.
	updated, err = svc.ChangeDepartment(context.Background(), created.ID, "")
	if err != nil {
		t.Fatalf("detach returned error: %v", err)
	}
	if updated.DepartmentID != "" {
		t.Fatalf("department not cleared: %q", updated.DepartmentID)
	}

	if _, err := svc.ChangeDepartment(context.Background(), created.ID, "dept_404"); err != domain.ErrDepartmentNotFound {
		t.Fatalf("expected ErrDepartmentNotFound, got %v", err)
	}
}

func TestUserService_ChangeUserType(t *testing.T) {
	users, _, _, svc := newUserServiceFixture()

	created, _ := users.Create(context.Background(), &domain.User{Username: "nina", Email: "nina@x.com", UserType: domain.UserTypeInternal})

	updated, err := svc.ChangeUserType(context.Background(), created.ID, "external")
	if err != nil {
		t.Fatalf("ChangeUserType returned error: %v", err)
	}
	if updated.UserType != domain.UserTypeExternal {
		t.Fatalf("user type not updated: %s", updated.UserType)
	}

	if _, err := svc.ChangeUserType(context.Background(), created.ID, "alien"); err != domain.ErrInvalidUserType {
		t.Fatalf("expected ErrInvalidUserType, got %v", err)
	}
}
