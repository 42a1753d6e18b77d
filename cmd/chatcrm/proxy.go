package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chatcrm/internal/app/authproxy"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/notify"
	"chatcrm/internal/pkg/throttle"

	"github.com/spf13/cobra"
)

// proxyCmd serves the auth forwarding proxy
var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Serve the /api/auth/* forwarding proxy",
	Long: `Forward /api/auth/{path} to {AUTH_BASE_URL}/auth/{path}.

Status codes and bodies are relayed unchanged. OTP sends are throttled per
phone number and per client IP, in Redis when REDIS_ADDR is set and in memory
otherwise. Auth events are published to NATS when NATS_URL is set.`,
	RunE: runProxy,
}

func runProxy(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateProxy(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.GetLogger()
	deps := authproxy.Deps{Logger: logger}

	throttleCfg := throttle.Config{
		Max:    cfg.Proxy.OTPThrottleMax,
		Window: cfg.Proxy.OTPThrottleWindow,
		Prefix: "chatcrm:throttle:",
	}
	if cfg.Redis.Addr != "" {
		rdb, err := throttle.DialRedis(ctx, throttle.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Limiter = throttle.NewRedisLimiter(rdb, throttleCfg, metrics.DefaultProxyMetrics, logger)
		logger.Info("验证码限流使用 Redis", log.String("addr", cfg.Redis.Addr))
	} else {
		limiter := throttle.NewMemoryLimiter(throttleCfg, metrics.DefaultProxyMetrics, logger)
		sweep := throttle.NewSweepTask(limiter, "", logger)
		if err := sweep.Start(); err != nil {
			return err
		}
		defer sweep.Stop(context.Background())
		deps.Limiter = limiter
		logger.Info("验证码限流使用进程内存储")
	}

	nc, err := notify.Connect(cfg.NATS.URL)
	if err != nil {
		// 事件是旁路功能，连接失败不阻止启动
		logger.Error("连接 NATS 失败，认证事件将不会发布", err)
	}
	if nc != nil {
		defer nc.Drain()
		deps.Events = notify.NewHealthChecker(nc, 0)
		go deps.Events.Start(ctx)
		defer deps.Events.Stop()
	}
	deps.Publisher = notify.NewPublisher(nc, metrics.DefaultProxyMetrics)

	server := authproxy.NewServer(cfg.Proxy, cfg.Environment, deps)
	return server.Run(ctx)
}

