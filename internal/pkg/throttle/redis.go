package throttle

import (
	"context"
	"fmt"
	"time"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis 创建 Redis 客户端并 Ping
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// RedisLimiter 基于 INCR + EXPIRE 的固定窗口限流，多实例共享计数。
type RedisLimiter struct {
	redis   redis.UniversalClient
	cfg     Config
	metrics *metrics.ProxyMetrics
	logger  log.Logger
}

// NewRedisLimiter 创建 Redis 限流器
func NewRedisLimiter(client redis.UniversalClient, cfg Config, m *metrics.ProxyMetrics, logger log.Logger) *RedisLimiter {
	if m == nil {
		m = metrics.DefaultProxyMetrics
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &RedisLimiter{
		redis:   client,
		cfg:     cfg.withDefaults(),
		metrics: m,
		logger:  logger.With("component", "throttle_redis"),
	}
}

// Allow 计数并返回决策；存储错误包装为 ErrStoreUnavailable
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	start := time.Now()
	k := l.cfg.Prefix + key

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		l.metrics.ObserveStore("redis", false, time.Since(start))
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.cfg.Window).Err(); err != nil {
			l.metrics.ObserveStore("redis", false, time.Since(start))
			return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	d := Decision{
		Allowed: count <= int64(l.cfg.Max),
		Count:   count,
		Limit:   l.cfg.Max,
	}

	if !d.Allowed {
		ttl, err := l.redis.PTTL(ctx, k).Result()
		switch {
		case err != nil:
			l.logger.WarnContext(ctx, "throttle ttl lookup failed", log.String("key", k), log.Any("error", err))
			d.RetryAfter = l.cfg.Window
		case ttl < 0:
			// EXPIRE 丢失时补上，避免计数永久累积
			if err := l.redis.Expire(ctx, k, l.cfg.Window).Err(); err != nil {
				l.logger.WarnContext(ctx, "throttle ttl repair failed", log.String("key", k), log.Any("error", err))
			}
			d.RetryAfter = l.cfg.Window
		default:
			d.RetryAfter = ttl
		}
	}

	l.metrics.ObserveStore("redis", true, time.Since(start))
	return d, nil
}
