package throttle

import (
	"context"
	"sync"
	"time"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
)

// sweepThreshold 条目超过该数量时在写入路径上清理过期窗口
const sweepThreshold = 1024

type window struct {
	count     int64
	expiresAt time.Time
}

// MemoryLimiter 进程内固定窗口限流，未配置 Redis 时使用。
type MemoryLimiter struct {
	cfg     Config
	metrics *metrics.ProxyMetrics
	logger  log.Logger
	clock   func() time.Time
	mu      sync.Mutex
	store   map[string]*window
}

// NewMemoryLimiter 返回内存限流器
func NewMemoryLimiter(cfg Config, m *metrics.ProxyMetrics, logger log.Logger) *MemoryLimiter {
	if m == nil {
		m = metrics.DefaultProxyMetrics
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &MemoryLimiter{
		cfg:     cfg.withDefaults(),
		metrics: m,
		logger:  logger.With("component", "throttle_memory"),
		clock:   time.Now,
		store:   make(map[string]*window),
	}
}

// Allow 计数并返回决策
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	start := time.Now()
	k := l.cfg.Prefix + key
	now := l.clock()

	l.mu.Lock()
	w, ok := l.store[k]
	if !ok || !now.Before(w.expiresAt) {
		w = &window{expiresAt: now.Add(l.cfg.Window)}
		l.store[k] = w
	}
	w.count++
	count := w.count
	retryAfter := w.expiresAt.Sub(now)
	if len(l.store) > sweepThreshold {
		l.sweepLocked(now)
	}
	l.mu.Unlock()

	l.metrics.ObserveStore("memory", true, time.Since(start))

	d := Decision{
		Allowed: count <= int64(l.cfg.Max),
		Count:   count,
		Limit:   l.cfg.Max,
	}
	if !d.Allowed {
		d.RetryAfter = retryAfter
		l.logger.DebugContext(ctx, "throttle window exceeded",
			log.String("key", k),
			log.Int64("count", count))
	}
	return d, nil
}

// Len 当前窗口数量
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.store)
}

// Sweep 删除已过期的窗口，返回删除数量
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(l.clock())
}

func (l *MemoryLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for k, w := range l.store {
		if !now.Before(w.expiresAt) {
			delete(l.store, k)
			removed++
		}
	}
	return removed
}
