// Package validator wires go-playground validation into echo.
package validator

import (
	"unicode"

	playground "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *playground.Validate
}

// New builds the request validator with the custom rules used by the
// handler structs.
func New() *Validator {
	v := playground.New()

	// Registration failures here mean a programming error, not bad input.
	_ = v.RegisterValidation("username", validUsername)
	_ = v.RegisterValidation("password", validPassword)

	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// validUsername accepts handles of at least three characters built from
// ASCII letters, digits and underscores.
func validUsername(fl playground.FieldLevel) bool {
	username := fl.Field().String()
	if len(username) < 3 {
		return false
	}

	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}

	return true
}

// validPassword requires at least eight characters including an upper case
// letter, a lower case letter and a digit.
func validPassword(fl playground.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	return hasUpper && hasLower && hasDigit
}
