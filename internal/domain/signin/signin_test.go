package signin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoginMethod(t *testing.T) {
	m, err := ParseLoginMethod(" OTP ")
	require.NoError(t, err)
	assert.Equal(t, MethodOTP, m)

	_, err = ParseLoginMethod("sms")
	assert.Error(t, err)
}

func TestFieldMethod(t *testing.T) {
	assert.Equal(t, MethodPassword, FieldEmail.Method())
	assert.Equal(t, MethodPassword, FieldPassword.Method())
	assert.Equal(t, MethodOTP, FieldCountryCode.Method())
	assert.Equal(t, MethodOTP, FieldPhoneNumber.Method())
	assert.Equal(t, MethodOTP, FieldOTP.Method())
}

func TestValidationErrors_ClearMethod(t *testing.T) {
	errs := ValidationErrors{
		FieldEmail:       "bad",
		FieldPhoneNumber: "bad",
		FieldOTP:         "bad",
	}

	errs.ClearMethod(MethodOTP)

	assert.True(t, errs.Has(FieldEmail))
	assert.False(t, errs.Has(FieldPhoneNumber))
	assert.False(t, errs.Has(FieldOTP))
}

func TestValidationErrors_ForMethodAndClone(t *testing.T) {
	errs := ValidationErrors{FieldEmail: "e", FieldOTP: "o"}

	pw := errs.ForMethod(MethodPassword)
	assert.Equal(t, ValidationErrors{FieldEmail: "e"}, pw)

	clone := errs.Clone()
	clone.Set(FieldPassword, "p")
	assert.False(t, errs.Has(FieldPassword))
	assert.True(t, ValidationErrors{}.Empty())
}

func TestCredentialsSubmission(t *testing.T) {
	c := Credentials{
		Password: PasswordCredentials{Email: "user@test.com", Password: "secret"},
		Otp:      OtpCredentials{CountryCode: "+1", PhoneNumber: "5551234567", OtpCode: "123456"},
	}

	pw, ok := c.Submission(MethodPassword).(PasswordLogin)
	require.True(t, ok)
	assert.Equal(t, "user@test.com", pw.Email)

	otp, ok := c.Submission(MethodOTP).(OtpLogin)
	require.True(t, ok)
	assert.Equal(t, "+15551234567", otp.Phone())
	assert.Equal(t, "123456", otp.Code)
	assert.Equal(t, MethodOTP, otp.Method())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "submitting", SubmitSubmitting.String())
	assert.Equal(t, "sent", OtpSent.String())
	assert.Equal(t, "not_sent", OtpNotSent.String())
	assert.False(t, Banner{}.Visible())
}
