package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SignInMetrics 追踪登录表单提交与验证码请求。
type SignInMetrics struct {
	SubmitDuration *prometheus.HistogramVec
	OTPRequests    *prometheus.CounterVec
	Redirects      *prometheus.CounterVec
}

var (
	// DefaultSignInMetrics 全局共享实例。
	DefaultSignInMetrics *SignInMetrics

	submitDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
)

func init() {
	DefaultSignInMetrics = NewSignInMetrics(Namespace)
}

// NewSignInMetricsWithRegistry 创建 SignInMetrics,允许 tests 注入自定义 registry。
func NewSignInMetricsWithRegistry(namespace string, reg prometheus.Registerer) *SignInMetrics {
	if reg == nil {
		reg = GetRegisterer()
	}
	factory := promauto.With(reg)

	return &SignInMetrics{
		SubmitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "signin_submit_duration_seconds",
				Help:      "Latency of sign-in submissions by login method and outcome",
				Buckets:   submitDurationBuckets,
			},
			[]string{"method", "outcome"},
		),

		OTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signin_otp_requests_total",
				Help:      "Count of OTP send attempts by outcome",
			},
			[]string{"outcome"},
		),

		Redirects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signin_redirects_total",
				Help:      "Count of post sign-in redirects by result (fired / cancelled)",
			},
			[]string{"result"},
		),
	}
}

// NewSignInMetrics 创建默认 registry 的 SignInMetrics。
func NewSignInMetrics(namespace string) *SignInMetrics {
	return NewSignInMetricsWithRegistry(namespace, GetRegisterer())
}

// ObserveSubmit 记录提交耗时。
func (m *SignInMetrics) ObserveSubmit(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "success"
	}
	m.SubmitDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// IncOTPRequest 记录一次验证码发送。
func (m *SignInMetrics) IncOTPRequest(outcome string) {
	if m == nil {
		return
	}
	m.OTPRequests.WithLabelValues(outcome).Inc()
}

// IncRedirect 记录跳转结果。
func (m *SignInMetrics) IncRedirect(result string) {
	if m == nil {
		return
	}
	m.Redirects.WithLabelValues(result).Inc()
}
