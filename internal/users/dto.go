package users

import "github.com/angelmondragon/stockroom-backend/pkg/db/models"

// UserDTO is the API view of a user. The password hash never leaves the service.
type UserDTO struct {
	ID         int64    `json:"user_id"`
	UserName   string   `json:"user_name"`
	Enabled    bool     `json:"enabled"`
	EmployeeID *int64   `json:"employee_id,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

// CreateUserRequest is the payload admins use to open an account.
type CreateUserRequest struct {
	UserName   string   `json:"user_name" validate:"required,min=3,max=50"`
	Password   string   `json:"password" validate:"required,min=8,max=128"`
	EmployeeID *int64   `json:"employee_id" validate:"omitempty,gt=0"`
	Roles      []string `json:"roles" validate:"omitempty,dive,required"`
}

// FromModel maps a user model to its DTO.
func FromModel(m *models.User) UserDTO {
	if m == nil {
		return UserDTO{}
	}
	roles := make([]string, 0, len(m.Roles))
	for _, role := range m.Roles {
		roles = append(roles, role.Name)
	}
	return UserDTO{
		ID:         m.UserID,
		UserName:   m.UserName,
		Enabled:    m.Enabled,
		EmployeeID: m.EmployeeID,
		Roles:      roles,
	}
}
