package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics 代理入口的请求指标
type HTTPMetrics struct {
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	ResponseBytes *prometheus.HistogramVec
	InFlight      *prometheus.GaugeVec
}

var DefaultHTTPMetrics *HTTPMetrics

// HTTPBuckets 代理请求延迟（秒），包含上游往返
var HTTPBuckets = []float64{0.05, 0.1, 0.2, 0.3, 0.5, 1, 2, 5, 10}

// responseBytesBuckets 认证响应一般在 1KB 以内
var responseBytesBuckets = prometheus.ExponentialBuckets(64, 4, 6)

func init() {
	DefaultHTTPMetrics = NewHTTPMetrics(Namespace)
}

func NewHTTPMetrics(namespace string) *HTTPMetrics {
	return NewHTTPMetricsWithRegistry(namespace, GetRegisterer())
}

// NewHTTPMetricsWithRegistry 测试中传入独立的 Registry
func NewHTTPMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(registerer)

	return &HTTPMetrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by service, route, method and status code",
			},
			[]string{"service", "route", "method", "status_code"},
		),
		Latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by service and route",
				Buckets:   HTTPBuckets,
			},
			[]string{"service", "route"},
		),
		ResponseBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response body size by service and route",
				Buckets:   responseBytesBuckets,
			},
			[]string{"service", "route"},
		),
		InFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_progress",
				Help:      "HTTP requests currently being served",
			},
			[]string{"service"},
		),
	}
}

// Begin 标记一个请求开始，返回的 done 在响应写完后调用
func (m *HTTPMetrics) Begin() (done func(route, method string, status int, size int64)) {
	if m == nil {
		return func(string, string, int, int64) {}
	}

	service := GetServiceName()
	start := time.Now()
	m.InFlight.WithLabelValues(service).Inc()

	return func(route, method string, status int, size int64) {
		m.InFlight.WithLabelValues(service).Dec()
		m.Requests.WithLabelValues(service, route, method, strconv.Itoa(status)).Inc()
		m.Latency.WithLabelValues(service, route).Observe(time.Since(start).Seconds())
		m.ResponseBytes.WithLabelValues(service, route).Observe(float64(size))
	}
}

// unlabeledPaths 不计入请求指标
var unlabeledPaths = map[string]bool{
	"/metrics": true,
	"/health":  true,
}

// routeSet 通配路由（/api/auth/*）按真实路径打标签，最多 max 个，其余记为 "other"
type routeSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
	max  int
}

func newRouteSet(max int) *routeSet {
	return &routeSet{seen: make(map[string]struct{}), max: max}
}

func (s *routeSet) label(path string) string {
	if path == "" {
		return "unknown"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[path]; ok {
		return path
	}
	if len(s.seen) >= s.max {
		return "other"
	}
	s.seen[path] = struct{}{}
	return path
}

func (s *routeSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
