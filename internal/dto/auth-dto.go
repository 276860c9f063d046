package dto

type SignUpDTO struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8,password_strength"`
	Role        string   `json:"role" validate:"required,user_role"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,permission_tag"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshDTO falls back to the refreshToken cookie when the body is empty.
type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshedTokensDTO struct {
	NewAccessToken  string `json:"newAccessToken"`
	NewRefreshToken string `json:"newRefreshToken"`
}
