package signin

import (
	"time"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"

	"golang.org/x/text/language"
)

const (
	// DefaultRedirectDelay 成功提示展示时长
	DefaultRedirectDelay = 1500 * time.Millisecond
	// DefaultLandingPath 登录后的落地页
	DefaultLandingPath = "/dashboard"
)

// Option 控制器配置项
type Option func(*Controller)

func WithRedirectDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.redirectDelay = d
		}
	}
}

func WithLandingPath(path string) Option {
	return func(c *Controller) {
		if path != "" {
			c.landingPath = path
		}
	}
}

func WithLogger(logger log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics nil 表示不记录
func WithMetrics(m *metrics.SignInMetrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithObserver 每次状态变化后收到一份快照，在锁外调用
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithLanguage 错误与提示文案的语言
func WithLanguage(lang language.Tag) Option {
	return func(c *Controller) {
		c.lang = lang
	}
}
