package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email_shape"`
	Password string `json:"password" validate:"required"`
}

type phoneForm struct {
	Phone string `json:"phoneNumber" validate:"required,phone10"`
	Code  string `json:"otp" validate:"omitempty,len=6,digits"`
}

func TestEmailShape(t *testing.T) {
	v := New()
	tests := []struct {
		email string
		ok    bool
	}{
		{"user@test.com", true},
		{"a.b+c@sub.example.org", true},
		{"bad", false},
		{"user@", false},
		{"user@host", false},
		{"us er@test.com", false},
		{"a@b@c.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := v.Var(tt.email, "email_shape")
			assert.Equal(t, tt.ok, err == nil)
		})
	}
}

func TestPhoneAndDigits(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(phoneForm{Phone: "5551234567"}))
	assert.NoError(t, v.Struct(phoneForm{Phone: "5551234567", Code: "123456"}))
	assert.Error(t, v.Struct(phoneForm{Phone: "555123456"}))
	assert.Error(t, v.Struct(phoneForm{Phone: "555-123-4567"}))
	assert.Error(t, v.Struct(phoneForm{Phone: "5551234567", Code: "12a456"}))
	assert.Error(t, v.Struct(phoneForm{Phone: "5551234567", Code: "12345"}))
}

func TestTranslateValidationErrors(t *testing.T) {
	v := New()
	messages := MessageTable{
		"email.required":    "Email is required",
		"email.email_shape": "Please enter a valid email address",
	}

	errs := TranslateValidationErrors(v.Struct(loginForm{Email: "bad"}), messages)
	require.Len(t, errs, 2)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "Please enter a valid email address", byField["email"].Message)
	assert.Equal(t, "bad", byField["email"].Value)
	assert.Equal(t, "password is required", byField["password"].Message)
	assert.Equal(t, "***", byField["password"].Value)
}

func TestTranslateValidationErrors_NonValidatorError(t *testing.T) {
	errs := TranslateValidationErrors(errors.New("boom"), nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "request", errs[0].Field)
	assert.Nil(t, TranslateValidationErrors(nil, nil))
}
