package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCode(t *testing.T) {
	err := FromCode(CodeInvalidCredentials)
	assert.Equal(t, "Invalid credentials", err.Message)
	assert.Equal(t, "authentication", err.Category)
	assert.Equal(t, LevelWarn, err.Level)
	assert.False(t, err.Retryable)

	unknown := FromCode(ErrorCode(123))
	assert.Equal(t, "Internal server error", unknown.Message)
}

func TestWrapKeepsAppError(t *testing.T) {
	original := NewRateLimitError("phone")
	wrapped := fmt.Errorf("send: %w", original)

	got := Wrap(wrapped, CodeInternalError, "ignored")
	assert.Same(t, original, got)

	plain := Wrap(errors.New("dial tcp"), CodeUpstreamUnavailable, "upstream down")
	require.NotNil(t, plain)
	assert.Equal(t, CodeUpstreamUnavailable, plain.Code)
	assert.EqualError(t, plain, "[700002] upstream down: dial tcp")
	assert.EqualError(t, errors.Unwrap(plain), "dial tcp")

	assert.Nil(t, Wrap(nil, CodeInternalError, "x"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSuccess, CodeOf(nil))
	assert.Equal(t, CodeInternalError, CodeOf(errors.New("x")))
	assert.Equal(t, CodeInvalidCredentials, CodeOf(fmt.Errorf("w: %w", NewInvalidCredentialsError(401, "bad"))))
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeSuccess, http.StatusOK},
		{CodeInvalidParams, http.StatusBadRequest},
		{CodeRateLimitExceeded, http.StatusTooManyRequests},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeOTPInvalid, http.StatusBadRequest},
		{CodeUpstreamUnavailable, http.StatusBadGateway},
		{CodeExternalServiceError, http.StatusServiceUnavailable},
		{CodeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestMetadata(t *testing.T) {
	err := NewUpstreamError("auth", 502, "bad gateway").WithService("authapi", "login")
	assert.Equal(t, 502, err.Metadata("status_code"))
	assert.Nil(t, err.Metadata("missing"))
	assert.Equal(t, "login", err.Operation)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("login: %w", NewInvalidCredentialsError(401, "bad password"))

	assert.ErrorIs(t, err, FromCode(CodeInvalidCredentials))
	assert.NotErrorIs(t, err, FromCode(CodeRateLimitExceeded))
}
