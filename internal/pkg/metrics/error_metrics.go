package metrics

import (
	"strconv"

	"chatcrm/internal/pkg/xerrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedRoute 未匹配任何路由（404）时的 route 标签
const unmatchedRoute = "unmatched"

// ErrorMetrics ErrorHandler 渲染出的错误
type ErrorMetrics struct {
	// ErrorsByCode 按路由模板、业务错误码、HTTP 状态码和级别
	ErrorsByCode *prometheus.CounterVec
	// ErrorsByCategory 按分类（system / authentication / external）
	ErrorsByCategory *prometheus.CounterVec
}

var DefaultErrorMetrics *ErrorMetrics

func init() {
	DefaultErrorMetrics = NewErrorMetrics(Namespace)
}

func NewErrorMetrics(namespace string) *ErrorMetrics {
	return NewErrorMetricsWithRegistry(namespace, GetRegisterer())
}

// NewErrorMetricsWithRegistry 测试中传入独立的 Registry
func NewErrorMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *ErrorMetrics {
	factory := promauto.With(registerer)

	return &ErrorMetrics{
		ErrorsByCode: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "errors_total",
				Help:      "Errors rendered by the HTTP error handler",
			},
			[]string{"service", "route", "code", "status_code", "level"},
		),
		ErrorsByCategory: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "errors_by_category_total",
				Help:      "Errors rendered by the HTTP error handler, by category",
			},
			[]string{"service", "category"},
		),
	}
}

// RecordError route 为 echo 路由模板（c.Path()），空串记为 unmatched
func (m *ErrorMetrics) RecordError(appErr *xerrors.AppError, statusCode int, route string) {
	if m == nil || appErr == nil {
		return
	}
	if route == "" {
		route = unmatchedRoute
	}

	service := GetServiceName()
	m.ErrorsByCode.WithLabelValues(
		service,
		route,
		strconv.Itoa(appErr.Code.ToInt()),
		strconv.Itoa(statusCode),
		appErr.Level.String(),
	).Inc()

	if appErr.Category != "" {
		m.ErrorsByCategory.WithLabelValues(service, appErr.Category).Inc()
	}
}
