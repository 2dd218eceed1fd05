package domain

import (
	"errors"
	"time"
)

// Role classifies what a user is allowed to do. The set is closed; anything
// outside it is rejected at the boundary.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleManager           Role = "manager"
	RoleDepartmentManager Role = "department_manager"
	RoleFieldWorker       Role = "field_worker"
	RoleDataAnalyst       Role = "data_analyst"
	RoleConsultant        Role = "consultant"
	RoleUser              Role = "user"
)

var allRoles = map[Role]struct{}{
	RoleAdmin:             {},
	RoleManager:           {},
	RoleDepartmentManager: {},
	RoleFieldWorker:       {},
	RoleDataAnalyst:       {},
	RoleConsultant:        {},
	RoleUser:              {},
}

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := allRoles[r]; !ok {
		return "", ErrInvalidRole
	}
	return r, nil
}

// UserType is an informational classification independent of Role.
type UserType string

const (
	UserTypeInternal UserType = "internal"
	UserTypeExternal UserType = "external"
	UserTypeAdmin    UserType = "admin"
)

// ParseUserType validates a raw user type string.
func ParseUserType(s string) (UserType, error) {
	switch t := UserType(s); t {
	case UserTypeInternal, UserTypeExternal, UserTypeAdmin:
		return t, nil
	default:
		return "", ErrInvalidUserType
	}
}

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrUnauthenticated = errors.New("authentication required")
var ErrForbidden = errors.New("access forbidden")
var ErrInvalidRefreshToken = errors.New("invalid refresh token")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("token invalid")
var ErrInvalidRole = errors.New("invalid role")
var ErrInvalidUserType = errors.New("invalid user type")
var ErrTooManyAttempts = errors.New("too many login attempts")

// User models an account in the system. PasswordHash and RefreshToken never
// leave the persistence layer through JSON.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	DepartmentID string    `json:"department_id,omitempty"`
	UserType     UserType  `json:"user_type"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the projection returned to clients.
type PublicUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	DepartmentID string    `json:"department_id,omitempty"`
	UserType     UserType  `json:"user_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public strips credential material from a User.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		UserType:     u.UserType,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
