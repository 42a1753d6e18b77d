// Package throttle 实现固定窗口计数限流，供验证码发送使用。
package throttle

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable 存储不可用（调用方决定放行还是拒绝）
var ErrStoreUnavailable = errors.New("throttle store unavailable")

// Decision 一次计数后的限流结果
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	RetryAfter time.Duration
}

// Limiter 对 key 计数并判断是否超过窗口上限
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config 窗口配置，零值使用默认 5 次 / 10 分钟
type Config struct {
	Max    int
	Window time.Duration
	// Prefix 键前缀，区分不同限流场景
	Prefix string
}

const (
	defaultMax    = 5
	defaultWindow = 10 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.Max <= 0 {
		c.Max = defaultMax
	}
	if c.Window <= 0 {
		c.Window = defaultWindow
	}
	if c.Prefix == "" {
		c.Prefix = "throttle:"
	}
	return c
}
