package domain

import (
	"errors"
	"time"
)

// Department is a reference entity users may optionally belong to. Deleting a
// department detaches its members; it never cascades.
type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultDepartments is the closed set of department names seeded at startup.
var DefaultDepartments = []string{
	"administration",
	"logistics",
	"sales",
	"maintenance",
	"hr",
	"animals",
	"feed",
}

var ErrDepartmentNotFound = errors.New("department not found")
var ErrDepartmentExists = errors.New("department already exists")
var ErrInvalidDepartmentName = errors.New("invalid department name")

// ValidDepartmentName reports whether name belongs to the closed set.
func ValidDepartmentName(name string) bool {
	for _, d := range DefaultDepartments {
		if d == name {
			return true
		}
	}
	return false
}
