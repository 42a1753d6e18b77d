package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProxyMetrics 认证代理的上游与限流指标
type ProxyMetrics struct {
	// 上游调用失败（网络错误，不含上游返回的 4xx/5xx）
	UpstreamErrors *prometheus.CounterVec

	// 上游往返耗时
	UpstreamDuration *prometheus.HistogramVec

	// 验证码发送限流决策
	ThrottleDecisions *prometheus.CounterVec

	// 限流存储操作（redis / memory）
	StoreOperations *prometheus.HistogramVec

	// 认证事件发布
	EventsPublished *prometheus.CounterVec
}

var (
	// DefaultProxyMetrics 默认实例
	DefaultProxyMetrics *ProxyMetrics

	// StoreOperationBuckets Redis 操作通常非常快，使用更细粒度的 buckets
	StoreOperationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
)

func init() {
	DefaultProxyMetrics = NewProxyMetrics(Namespace)
}

// NewProxyMetrics 使用默认 registry
func NewProxyMetrics(namespace string) *ProxyMetrics {
	return NewProxyMetricsWithRegistry(namespace, GetRegisterer())
}

// NewProxyMetricsWithRegistry 使用自定义 registry
func NewProxyMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *ProxyMetrics {
	factory := promauto.With(registerer)

	return &ProxyMetrics{
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authproxy_upstream_errors_total",
				Help:      "Upstream transport failures by path and reason",
			},
			[]string{"path", "reason"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "authproxy_upstream_duration_seconds",
				Help:      "Upstream round trip latency by path and status class",
				Buckets:   HTTPBuckets,
			},
			[]string{"path", "status_class"},
		),
		ThrottleDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "throttle_decisions_total",
				Help:      "OTP throttle decisions by scope and decision (allowed / rejected / error)",
			},
			[]string{"scope", "decision"},
		),
		StoreOperations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "throttle_store_operation_duration_seconds",
				Help:      "Throttle store operation latency by store and result",
				Buckets:   StoreOperationBuckets,
			},
			[]string{"store", "result"},
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_published_total",
				Help:      "Auth events handed to the message bus by subject and result",
			},
			[]string{"subject", "result"},
		),
	}
}

// RecordUpstream 记录一次上游往返
func (m *ProxyMetrics) RecordUpstream(path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(path, statusClass(status)).Observe(duration.Seconds())
}

// IncUpstreamError 记录上游网络失败
func (m *ProxyMetrics) IncUpstreamError(path, reason string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(path, reason).Inc()
}

// IncThrottle 记录限流决策
func (m *ProxyMetrics) IncThrottle(scope, decision string) {
	if m == nil {
		return
	}
	m.ThrottleDecisions.WithLabelValues(scope, decision).Inc()
}

// ObserveStore 记录限流存储操作
func (m *ProxyMetrics) ObserveStore(store string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.StoreOperations.WithLabelValues(store, result).Observe(duration.Seconds())
}

// IncEvent 记录事件发布结果
func (m *ProxyMetrics) IncEvent(subject, result string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(subject, result).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
