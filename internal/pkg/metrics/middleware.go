package metrics

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultMaxRoutes 通配路由真实路径的标签上限
const defaultMaxRoutes = 100

// MiddlewareConfig HTTP 指标中间件配置
type MiddlewareConfig struct {
	Metrics   *HTTPMetrics
	MaxRoutes int
}

// MiddlewareWithConfig 记录请求数、延迟、响应大小与进行中请求，/metrics 与 /health 不计入
func MiddlewareWithConfig(cfg MiddlewareConfig) echo.MiddlewareFunc {
	if cfg.Metrics == nil {
		cfg.Metrics = DefaultHTTPMetrics
	}
	if cfg.MaxRoutes <= 0 {
		cfg.MaxRoutes = defaultMaxRoutes
	}
	routes := newRouteSet(cfg.MaxRoutes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if unlabeledPaths[req.URL.Path] {
				return next(c)
			}

			done := cfg.Metrics.Begin()
			err := next(c)

			res := c.Response()
			done(routeLabel(c, routes), req.Method, responseStatus(res.Status, err), res.Size)
			return err
		}
	}
}

// responseStatus 错误交给 HTTPErrorHandler 之前响应尚未写出，按错误推断状态码
func responseStatus(written int, err error) int {
	if err == nil {
		return written
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	if sc, ok := err.(interface{ HTTPStatus() int }); ok {
		return sc.HTTPStatus()
	}
	if written >= http.StatusBadRequest {
		return written
	}
	return http.StatusInternalServerError
}

// routeLabel 静态路由用模板，通配路由用受限的真实路径
func routeLabel(c echo.Context, routes *routeSet) string {
	route := c.Path()
	if route == "" {
		return "unknown"
	}
	if strings.HasSuffix(route, "*") {
		return routes.label(c.Request().URL.Path)
	}
	return route
}

// EchoHandler /metrics 处理器，gatherer 为 nil 时使用默认注册表
func EchoHandler(gatherer prometheus.Gatherer) echo.HandlerFunc {
	var h http.Handler
	if gatherer == nil {
		h = promhttp.Handler()
	} else {
		h = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return echo.WrapHandler(h)
}
