package authproxy

import (
	"context"
	"time"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/throttle"
)

const (
	scopePhone = "phone"
	scopeIP    = "ip"
)

// OTPGuard 限制验证码发送频率：同一手机号、同一 IP 各自计数
type OTPGuard struct {
	limiter throttle.Limiter
	metrics *metrics.ProxyMetrics
	logger  log.Logger
}

// Verdict 限流检查结果
type Verdict struct {
	Allowed    bool
	Scope      string
	RetryAfter time.Duration
}

func NewOTPGuard(limiter throttle.Limiter, m *metrics.ProxyMetrics, logger log.Logger) *OTPGuard {
	if m == nil {
		m = metrics.DefaultProxyMetrics
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &OTPGuard{
		limiter: limiter,
		metrics: m,
		logger:  logger.With("component", "otp_guard"),
	}
}

// Check 依次检查手机号和 IP；存储故障时放行
func (g *OTPGuard) Check(ctx context.Context, phone, ip string) Verdict {
	if g == nil || g.limiter == nil {
		return Verdict{Allowed: true}
	}

	scopes := []struct {
		name string
		key  string
	}{
		{scopePhone, phone},
		{scopeIP, ip},
	}
	for _, s := range scopes {
		if s.key == "" {
			continue
		}
		d, err := g.limiter.Allow(ctx, "otp:"+s.name+":"+s.key)
		if err != nil {
			g.metrics.IncThrottle(s.name, "fail_open")
			g.logger.WarnContext(ctx, "限流存储不可用，放行请求",
				log.String("scope", s.name),
				log.String("error", err.Error()))
			continue
		}
		if !d.Allowed {
			g.metrics.IncThrottle(s.name, "rejected")
			g.logger.WarnContext(ctx, "验证码发送过于频繁",
				log.String("scope", s.name),
				log.Int64("count", d.Count),
				log.Int("limit", d.Limit))
			return Verdict{Allowed: false, Scope: s.name, RetryAfter: d.RetryAfter}
		}
		g.metrics.IncThrottle(s.name, "allowed")
	}
	return Verdict{Allowed: true}
}
