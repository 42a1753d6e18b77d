package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/response"
	"chatcrm/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T) (*echo.Echo, *metrics.ErrorMetrics) {
	t.Helper()
	e := echo.New()
	m := metrics.NewErrorMetricsWithRegistry("test", prometheus.NewRegistry())
	e.HTTPErrorHandler = ErrorHandler(ErrorHandlerConfig{
		Logger:        log.NewNop(),
		Metrics:       m,
		PlainPrefixes: []string{"/api/auth"},
	})
	return e, m
}

func TestErrorHandler_EnvelopeForAppError(t *testing.T) {
	e, m := newTestEcho(t)
	e.GET("/x", func(c echo.Context) error {
		return xerrors.NewRateLimitError("ip")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body response.Envelope[response.NoData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, xerrors.CodeRateLimitExceeded.ToInt(), body.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ErrorsByCode))
}

func TestErrorHandler_PlainBodyUnderProxyPrefix(t *testing.T) {
	e, _ := newTestEcho(t)
	e.POST("/api/auth/*", func(c echo.Context) error {
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}

func TestErrorHandler_EchoNotFound(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	e, _ := newTestEcho(t)
	e.Use(RecoveryMiddleware(log.NewNop()))
	e.GET("/panic", func(c echo.Context) error {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoveryMiddleware_RethrowsAbortHandler(t *testing.T) {
	e, _ := newTestEcho(t)
	h := RecoveryMiddleware(log.NewNop())(func(c echo.Context) error {
		panic(http.ErrAbortHandler)
	})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { _ = h(c) })
}

func TestRateLimitMiddleware(t *testing.T) {
	e, _ := newTestEcho(t)
	e.Use(RateLimitMiddleware(1))
	e.GET("/ok", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusNoContent, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestLoggingMiddleware_RestoresBody(t *testing.T) {
	e := echo.New()
	cfg := DefaultLoggingConfig()
	cfg.DetailedLog = true
	cfg.LogRequestBody = true
	e.Use(LoggingMiddlewareWithConfig(log.NewNop(), cfg))

	var seen string
	e.POST("/api/auth/login", func(c echo.Context) error {
		var body map[string]string
		if err := c.Bind(&body); err != nil {
			return err
		}
		seen = body["password"]
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.co","password":"secret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret", seen)
}

func TestLoggingMiddleware_LargeBodyNotBufferedOrLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := echo.New()
	cfg := DefaultLoggingConfig()
	cfg.DetailedLog = true
	cfg.LogRequestBody = true
	cfg.MaxBodySize = 16
	e.Use(LoggingMiddlewareWithConfig(logger, cfg))

	payload := `{"email":"a@b.co","password":"hunter2-long-enough"}`
	var seen string
	e.POST("/api/auth/login", func(c echo.Context) error {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		seen = string(raw)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, seen)
	assert.Contains(t, buf.String(), "larger than 16 bytes")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestRedactBody(t *testing.T) {
	cfg := DefaultLoggingConfig()
	out := redactBody([]byte(`{"email":"a@b.co","password":"secret","otp":"123456","phoneNumber":"5551234567"}`), cfg)

	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "123456")
	assert.NotContains(t, out, "5551234567")
	assert.Contains(t, out, `"phoneNumber":"******4567"`)
	assert.Contains(t, out, "a@b.co")

	cfg.MaxBodySize = 5
	assert.Equal(t, "plain... (truncated)", redactBody([]byte("plain text body"), cfg))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "******4567", maskPhone("5551234567"))
	assert.Equal(t, "***", maskPhone("123"))
}

func TestShouldSkip(t *testing.T) {
	assert.True(t, shouldSkip("/health", DefaultLoggingConfig().SkipPaths))
	assert.False(t, shouldSkip("/api/auth/login", DefaultLoggingConfig().SkipPaths))
}
