package models

// User is a login account, optionally tied to an employee.
type User struct {
	UserID         int64  `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	UserName       string `gorm:"column:user_name;not null;uniqueIndex" json:"user_name"`
	HashedPassword string `gorm:"column:hashed_password;not null" json:"-"`
	Enabled        bool   `gorm:"column:enabled;not null;default:true" json:"enabled"`
	EmployeeID     *int64 `gorm:"column:employee_id" json:"employee_id"`
	Roles          []Role `gorm:"many2many:users_roles;joinForeignKey:UserID;joinReferences:RoleID" json:"roles,omitempty"`
}

func (User) TableName() string { return "users" }

type Role struct {
	RoleID      int64        `gorm:"column:role_id;primaryKey;autoIncrement" json:"role_id"`
	Name        string       `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description *string      `gorm:"column:description" json:"description"`
	Permissions []Permission `gorm:"many2many:roles_permissions;joinForeignKey:RoleID;joinReferences:PermissionID" json:"permissions,omitempty"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	PermissionID int64   `gorm:"column:permission_id;primaryKey;autoIncrement" json:"permission_id"`
	Name         string  `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description  *string `gorm:"column:description" json:"description"`
}

func (Permission) TableName() string { return "permissions" }
