// Package authproxy 把 /api/auth/* 转发到认证服务，并对验证码发送做限流。
package authproxy

import (
	"context"
	"errors"
	"net/http"
	"time"

	custommiddleware "chatcrm/internal/middleware"
	"chatcrm/internal/pkg/config"
	"chatcrm/internal/pkg/i18n"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/notify"
	"chatcrm/internal/pkg/response"
	"chatcrm/internal/pkg/security"
	"chatcrm/internal/pkg/throttle"
	"chatcrm/internal/pkg/trace"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// RoutePrefix 代理路由前缀
	RoutePrefix = "/api/auth"

	shutdownTimeout = 10 * time.Second
)

// Deps 服务依赖，零值字段使用默认实现
type Deps struct {
	Logger    log.Logger
	Limiter   throttle.Limiter
	Publisher *notify.Publisher
	Events    *notify.HealthChecker

	ProxyMetrics *metrics.ProxyMetrics
	HTTPMetrics  *metrics.HTTPMetrics
	ErrorMetrics *metrics.ErrorMetrics
	Gatherer     prometheus.Gatherer
}

// Server 认证代理 HTTP 服务
type Server struct {
	echo   *echo.Echo
	cfg    config.ProxyConfig
	logger log.Logger
}

// NewServer 组装中间件与路由
func NewServer(cfg config.ProxyConfig, env string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.GetLogger()
	}
	if deps.ProxyMetrics == nil {
		deps.ProxyMetrics = metrics.DefaultProxyMetrics
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Limiter == nil {
		deps.Limiter = throttle.NewMemoryLimiter(throttle.Config{
			Max:    cfg.OTPThrottleMax,
			Window: cfg.OTPThrottleWindow,
		}, deps.ProxyMetrics, deps.Logger)
	}
	if deps.Publisher == nil {
		deps.Publisher = notify.NewPublisher(nil, deps.ProxyMetrics)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = custommiddleware.ErrorHandler(custommiddleware.ErrorHandlerConfig{
		Logger:        deps.Logger,
		Metrics:       deps.ErrorMetrics,
		PlainPrefixes: []string{RoutePrefix},
	})

	// ========== 中间件（顺序很重要） ==========

	// 1. TraceID
	e.Use(trace.Middleware())
	// 2. Metrics
	e.Use(metrics.MiddlewareWithConfig(metrics.MiddlewareConfig{Metrics: deps.HTTPMetrics}))
	// 3. i18n
	e.Use(i18n.Middleware())
	// 4. Logging
	loggingConfig := custommiddleware.DefaultLoggingConfig()
	if env == "development" {
		loggingConfig.DetailedLog = true
		loggingConfig.LogRequestBody = true
	}
	e.Use(custommiddleware.LoggingMiddlewareWithConfig(deps.Logger, loggingConfig))
	// 5. Recovery
	e.Use(custommiddleware.RecoveryMiddleware(deps.Logger))
	// 6. CORS + 安全头
	e.Use(security.CORSMiddleware(security.DefaultCORSConfig(cfg.AllowOrigins)))
	e.Use(security.HeadersMiddleware())

	e.GET("/health", func(c echo.Context) error {
		return response.EchoOK(c, map[string]string{
			"status": "ok",
			"events": string(deps.Events.Status()),
		})
	})
	e.GET("/metrics", metrics.EchoHandler(deps.Gatherer))

	upstream := NewUpstream(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, deps.ProxyMetrics, deps.Logger)
	guard := NewOTPGuard(deps.Limiter, deps.ProxyMetrics, deps.Logger)
	handler := NewHandler(upstream, guard, deps.Publisher, deps.Logger)

	auth := e.Group(RoutePrefix, custommiddleware.RateLimitMiddleware(float64(cfg.RateLimitPerSec)))
	auth.Any("/*", handler.Forward)

	return &Server{
		echo:   e,
		cfg:    cfg,
		logger: deps.Logger.With("component", "authproxy_server"),
	}
}

// Echo 供测试直接 ServeHTTP
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run 阻塞直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("认证代理启动",
			log.String("addr", s.cfg.Addr),
			log.String("upstream", s.cfg.UpstreamBaseURL))
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("认证代理正在关闭")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
