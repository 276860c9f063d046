package dto

type CreateUserDTO struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password_strength"`
}

type UpdateUserDTO struct {
	Name     *string `json:"name" validate:"omitnil,min=1"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Password *string `json:"password" validate:"omitnil,min=8,password_strength"`
}

type UserDTO struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   *string  `json:"updatedAt"`
}

type CreateRoleDTO struct {
	UserRole string `json:"userRole" validate:"required,user_role"`
	UserID   uint64 `json:"userId" validate:"required"`
}

type CreatePermissionDTO struct {
	PermissionType string `json:"permissionType" validate:"required,permission_tag"`
	UserID         uint64 `json:"userId" validate:"required"`
}

type UserRoleDTO struct {
	ID       uint64 `json:"id"`
	UserID   uint64 `json:"userId"`
	UserRole string `json:"userRole"`
}

type UserPermissionDTO struct {
	ID             uint64  `json:"id"`
	UserID         uint64  `json:"userId"`
	PermissionType string  `json:"permissionType"`
	CreatedBy      *uint64 `json:"createdBy"`
}
