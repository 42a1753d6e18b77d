package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatcrm/internal/pkg/i18n"
	"chatcrm/internal/pkg/trace"
	"chatcrm/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestEchoOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req = req.WithContext(trace.WithTraceID(req.Context(), "t-1"))
	c, rec := newContext(req)

	require.NoError(t, EchoOK(c, map[string]string{"status": "ok"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Envelope[map[string]string]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 100000, body.Code)
	assert.Equal(t, "t-1", body.TraceID)
	assert.Equal(t, "ok", (*body.Data)["status"])
}

func TestEchoError_LocalizesAppError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(i18n.WithLanguage(req.Context(), language.Chinese))
	c, rec := newContext(req)

	require.NoError(t, EchoError(c, xerrors.NewRateLimitError("ip")))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body Envelope[NoData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 100429, body.Code)
	assert.Equal(t, "请求过于频繁，请稍后再试", body.Message)
	assert.Nil(t, body.Data)
}

func TestEchoError_PlainError(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, EchoError(c, errors.New("kaboom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":100001`)
}

func TestEchoProxyError(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	require.NoError(t, EchoProxyError(c, http.StatusInternalServerError, "Internal Server Error"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}
