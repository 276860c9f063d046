// File: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"todo-api/internal/authz"
	"todo-api/internal/entities"
)

var (
	emailRegex         = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	passwordUpperRegex = regexp.MustCompile(`[A-Z]`)
	passwordLowerRegex = regexp.MustCompile(`[a-z]`)
)

// PasswordSpecials are the characters a password must contain one of.
const PasswordSpecials = "!@#$%"

// RegisterCustomValidations registers every project rule on v.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("password_strength", isStrongPassword); err != nil {
		return err
	}
	if err := v.RegisterValidation("user_role", isUserRole); err != nil {
		return err
	}
	if err := v.RegisterValidation("permission_tag", isPermissionTag); err != nil {
		return err
	}
	if err := v.RegisterValidation("email", isGoodEmailFormat); err != nil {
		return err
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

// IsStrongPassword: at least one uppercase, one lowercase and one special.
// Length is checked by the min tag.
func IsStrongPassword(s string) bool {
	return passwordUpperRegex.MatchString(s) &&
		passwordLowerRegex.MatchString(s) &&
		strings.ContainsAny(s, PasswordSpecials)
}

func isStrongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

func isUserRole(fl validator.FieldLevel) bool {
	return entities.Role(fl.Field().String()).Valid()
}

func isPermissionTag(fl validator.FieldLevel) bool {
	return authz.IsKnown(fl.Field().String())
}
