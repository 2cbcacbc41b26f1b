package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type registration struct {
	CollegeID string `json:"college_id" validate:"required,college_id"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone_number" validate:"phone"`
	Password1 string `json:"password1" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password1"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := registration{
		CollegeID: "STU001",
		Email:     "student1@amu.ac.in",
		Phone:     "+91 98765 43210",
		Password1: "password123",
		Password2: "password123",
	}

	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailures(t *testing.T) {
	payload := registration{
		CollegeID: "!",
		Email:     "invalid",
		Phone:     "abc",
		Password1: "password123",
		Password2: "password124",
	}

	err := ValidateStruct(payload)
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)

	fields := vErrs.Fields()
	require.Equal(t, "Enter a valid College ID.", fields["college_id"])
	require.Equal(t, "Enter a valid email address.", fields["email"])
	require.Equal(t, "Enter a valid phone number.", fields["phone_number"])
	require.Equal(t, "The two password fields didn't match.", fields["password2"])
	require.NotContains(t, fields, "password1")
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("campus_hall", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "aftab"
	})
	require.NoError(t, err)

	type custom struct {
		Hall string `validate:"campus_hall"`
	}

	require.NoError(t, ValidateStruct(custom{Hall: "aftab"}))
	require.Error(t, ValidateStruct(custom{Hall: "other"}))
}
