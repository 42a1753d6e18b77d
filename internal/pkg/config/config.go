package config

import (
	"errors"
	"strings"
	"time"
)

// Config 进程级配置，来源：.env < 环境变量
type Config struct {
	Environment string
	LogLevel    string

	Proxy  ProxyConfig
	Redis  RedisConfig
	NATS   NATSConfig
	SignIn SignInConfig
}

// ProxyConfig 认证代理配置
type ProxyConfig struct {
	Addr              string
	UpstreamBaseURL   string
	UpstreamTimeout   time.Duration
	AllowOrigins      []string
	OTPThrottleMax    int
	OTPThrottleWindow time.Duration
	RateLimitPerSec   int
}

// RedisConfig 为空 Addr 时使用内存限流
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig 为空 URL 时不发布认证事件
type NATSConfig struct {
	URL string
}

// SignInConfig CLI 登录客户端配置
type SignInConfig struct {
	APIBaseURL    string
	RedirectDelay time.Duration
	LandingPath   string
	Language      string
}

// Load 读取 .env 与环境变量
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: GetEnvOrDefault("APP_ENV", "development"),
		LogLevel:    GetEnvOrDefault("LOG_LEVEL", "info"),
		Proxy: ProxyConfig{
			Addr:              GetEnvOrDefault("PROXY_ADDR", ":8080"),
			UpstreamBaseURL:   strings.TrimRight(GetEnvOrDefault("AUTH_BASE_URL", ""), "/"),
			UpstreamTimeout:   GetEnvDuration("AUTH_TIMEOUT", 10*time.Second),
			AllowOrigins:      GetEnvList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
			OTPThrottleMax:    GetEnvInt("OTP_THROTTLE_MAX", 5),
			OTPThrottleWindow: GetEnvDuration("OTP_THROTTLE_WINDOW", 10*time.Minute),
			RateLimitPerSec:   GetEnvInt("PROXY_RATE_LIMIT", 20),
		},
		Redis: RedisConfig{
			Addr:     GetEnvOrDefault("REDIS_ADDR", ""),
			Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: GetEnvOrDefault("NATS_URL", ""),
		},
		SignIn: SignInConfig{
			APIBaseURL:    strings.TrimRight(GetEnvOrDefault("SIGNIN_API_BASE_URL", "http://localhost:8080"), "/"),
			RedirectDelay: GetEnvDuration("SIGNIN_REDIRECT_DELAY", 1500*time.Millisecond),
			LandingPath:   GetEnvOrDefault("SIGNIN_LANDING_PATH", "/dashboard"),
			Language:      GetEnvOrDefault("SIGNIN_LANGUAGE", "en"),
		},
	}
	return cfg, nil
}

// ValidateProxy 代理启动前的必填检查
func (c *Config) ValidateProxy() error {
	if c.Proxy.UpstreamBaseURL == "" {
		return errors.New("AUTH_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Proxy.UpstreamBaseURL, "http://") && !strings.HasPrefix(c.Proxy.UpstreamBaseURL, "https://") {
		return errors.New("AUTH_BASE_URL must start with http:// or https://")
	}
	return nil
}

// ToLogMap 返回脱敏后的配置，用于启动日志
func (c *Config) ToLogMap() map[string]any {
	return SanitizeConfigForLog(map[string]any{
		"environment":         c.Environment,
		"log_level":           c.LogLevel,
		"proxy_addr":          c.Proxy.Addr,
		"upstream_base_url":   c.Proxy.UpstreamBaseURL,
		"upstream_timeout":    c.Proxy.UpstreamTimeout.String(),
		"otp_throttle_max":    c.Proxy.OTPThrottleMax,
		"otp_throttle_window": c.Proxy.OTPThrottleWindow.String(),
		"redis_addr":          c.Redis.Addr,
		"redis_password":      c.Redis.Password,
		"nats_url":            c.NATS.URL,
	})
}
