package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registrationForm struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,username"`
	Password string `validate:"required,password"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	err := v.Validate(&registrationForm{
		Email:    "jane@example.com",
		Username: "jane_doe42",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
}

func TestValidator_UsernameRule(t *testing.T) {
	v := New()

	cases := []struct {
		name     string
		username string
		valid    bool
	}{
		{name: "simple handle", username: "jane", valid: true},
		{name: "underscore and digits", username: "jane_doe_42", valid: true},
		{name: "too short", username: "ab", valid: false},
		{name: "contains space", username: "jane doe", valid: false},
		{name: "contains symbol", username: "jane!", valid: false},
		{name: "non-ascii letter", username: "émile", valid: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(&registrationForm{
				Email:    "jane@example.com",
				Username: tc.username,
				Password: "Sup3rSecret",
			})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidator_PasswordRule(t *testing.T) {
	v := New()

	cases := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "mixed case with digit", password: "Sup3rSecret", valid: true},
		{name: "too short", password: "Ab1", valid: false},
		{name: "no upper case", password: "sup3rsecret", valid: false},
		{name: "no lower case", password: "SUP3RSECRET", valid: false},
		{name: "no digit", password: "SuperSecret", valid: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(&registrationForm{
				Email:    "jane@example.com",
				Username: "jane_doe",
				Password: tc.password,
			})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
