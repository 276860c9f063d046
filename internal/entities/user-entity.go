// File: internal/entities/user-entity.go
package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type User struct {
	ID        uint64    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt null.Time `json:"updatedAt" db:"updated_at"`
}

// UserAccess is the role and permission assignment of one user.
type UserAccess struct {
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// UserRole is a row of user_role.
type UserRole struct {
	ID        uint64    `json:"id" db:"id"`
	UserID    uint64    `json:"userId" db:"user_id"`
	UserRole  Role      `json:"userRole" db:"user_role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserPermission is a row of user_permissions.
type UserPermission struct {
	ID             uint64     `json:"id" db:"id"`
	UserID         uint64     `json:"userId" db:"user_id"`
	PermissionType string     `json:"permissionType" db:"permission_type"`
	CreatedBy      null.Int64 `json:"createdBy" db:"created_by"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

// Principal assembles the request identity of a stored user.
func (u *User) Principal(access UserAccess) *Principal {
	role := access.Role
	if !role.Valid() {
		role = RoleUser
	}
	return &Principal{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        role,
		Permissions: NewPermissionSet(access.Permissions...),
	}
}
