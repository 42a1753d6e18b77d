package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AUTH_BASE_URL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Proxy.Addr)
	assert.Equal(t, 10*time.Second, cfg.Proxy.UpstreamTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.SignIn.RedirectDelay)
	assert.Equal(t, "/dashboard", cfg.SignIn.LandingPath)
	assert.Error(t, cfg.ValidateProxy())
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := "AUTH_BASE_URL=https://api.example.com/\nOTP_THROTTLE_MAX=3\nPROXY_ADDR=:9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	t.Setenv("PROXY_ADDR", ":7000")
	// 由 .env 填充的变量在测试结束后清理
	t.Setenv("AUTH_BASE_URL", "")
	t.Setenv("OTP_THROTTLE_MAX", "")
	require.NoError(t, os.Unsetenv("AUTH_BASE_URL"))
	require.NoError(t, os.Unsetenv("OTP_THROTTLE_MAX"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Proxy.UpstreamBaseURL)
	assert.Equal(t, 3, cfg.Proxy.OTPThrottleMax)
	assert.Equal(t, ":7000", cfg.Proxy.Addr)
	assert.NoError(t, cfg.ValidateProxy())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "oops")
	t.Setenv("X_DUR", "250ms")
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_LIST", " a, ,b ")

	assert.Equal(t, 7, GetEnvInt("X_INT", 7))
	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("X_DUR", time.Second))
	assert.True(t, GetEnvBool("X_BOOL", false))
	assert.Equal(t, []string{"a", "b"}, GetEnvList("X_LIST", nil))
}

func TestToLogMapRedactsSecrets(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{Password: "hunter2"}}
	m := cfg.ToLogMap()
	assert.Equal(t, "***REDACTED***", m["redis_password"])
	assert.Equal(t, "", m["nats_url"])
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
