package domain

import "time"

// AuditAction identifies the session or administration event being recorded.
type AuditAction string

const (
	AuditRegister         AuditAction = "register"
	AuditLogin            AuditAction = "login"
	AuditLoginFailed      AuditAction = "login_failed"
	AuditRefresh          AuditAction = "refresh"
	AuditLogout           AuditAction = "logout"
	AuditRoleChange       AuditAction = "role_change"
	AuditDepartmentChange AuditAction = "department_change"
	AuditUserTypeChange   AuditAction = "usertype_change"
)

// AuditEvent is an append-only record of a security-relevant action.
// UserID is the subject of the action; Detail carries the new value for
// administrative changes (e.g. the role a user was moved to).
type AuditEvent struct {
	UserID    string      `json:"user_id"`
	Action    AuditAction `json:"action"`
	Detail    string      `json:"detail,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
