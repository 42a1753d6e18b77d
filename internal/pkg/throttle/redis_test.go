package throttle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	m := metrics.NewProxyMetricsWithRegistry("test", prometheus.NewRegistry())
	l := NewRedisLimiter(rdb, Config{Max: 3, Window: time.Minute, Prefix: "otp:"}, m, log.NewNop())

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "+15551234567")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d", i)
	}
	assert.Equal(t, time.Minute, mr.TTL("otp:+15551234567"))

	d, err := l.Allow(ctx, "+15551234567")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(4), d.Count)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	mr.FastForward(time.Minute + time.Second)

	d, err = l.Allow(ctx, "+15551234567")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count)
}

func TestRedisLimiter_RepairsMissingTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, Config{Max: 1, Window: time.Minute, Prefix: "otp:"},
		metrics.NewProxyMetricsWithRegistry("test", prometheus.NewRegistry()), log.NewNop())

	require.NoError(t, mr.Set("otp:k", "5"))

	d, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Equal(t, time.Minute, mr.TTL("otp:k"))
}

// failExpireHook 让 EXPIRE 命令失败，其余命令正常执行
type failExpireHook struct{}

func (failExpireHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (failExpireHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "expire") {
			err := errors.New("expire rejected")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failExpireHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisLimiter_TTLRepairFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	rdb.AddHook(failExpireHook{})

	var buf bytes.Buffer
	logger := log.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewRedisLimiter(rdb, Config{Max: 1, Window: time.Minute, Prefix: "otp:"},
		metrics.NewProxyMetricsWithRegistry("test", prometheus.NewRegistry()), logger)

	require.NoError(t, mr.Set("otp:k", "5"))

	d, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Contains(t, buf.String(), "throttle ttl repair failed")
	assert.Contains(t, buf.String(), "expire rejected")
	assert.Equal(t, time.Duration(0), mr.TTL("otp:k"))
}

func TestRedisLimiter_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewProxyMetricsWithRegistry("test", reg)
	l := NewRedisLimiter(rdb, Config{}, m, log.NewNop())

	mr.Close()

	_, err := l.Allow(ctx, "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	count, gatherErr := testutil.GatherAndCount(reg, "test_throttle_store_operation_duration_seconds")
	require.NoError(t, gatherErr)
	assert.Equal(t, 1, count)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb, err := DialRedis(context.Background(), RedisConfig{Addr: addr})
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	mr.Close()
	_, err = DialRedis(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
