package handler

type createUserRequest struct {
	Username     string `json:"username"      validate:"required,min=3,max=64"`
	Email        string `json:"email"         validate:"required,email"`
	Password     string `json:"password"      validate:"required,min=8"`
	Role         string `json:"role"          validate:"omitempty,oneof=admin manager department_manager field_worker data_analyst consultant user"`
	DepartmentID string `json:"department_id" validate:"omitempty"`
	UserType     string `json:"user_type"     validate:"omitempty,oneof=internal external admin"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager department_manager field_worker data_analyst consultant user"`
}

type updateDepartmentRequest struct {
	// Empty detaches the user from any department.
	DepartmentID string `json:"department_id"`
}

type updateUserTypeRequest struct {
	UserType string `json:"user_type" validate:"required,oneof=internal external admin"`
}
