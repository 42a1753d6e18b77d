package trace

import (
	"github.com/labstack/echo/v4"
)

// maxTraceIDLen 客户端传入的追踪 ID 超过该长度时重新生成
const maxTraceIDLen = 128

// Middleware 为每个请求确定 trace ID，写入 context 并回写到响应头。
// 上游认证服务通过 Inject 拿到同一个 ID
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			traceID := ExtractFromHeader(req.Header)
			if !acceptable(traceID) {
				traceID = GenerateTraceID()
			}

			c.SetRequest(req.WithContext(WithTraceID(req.Context(), traceID)))
			c.Response().Header().Set(HeaderTraceID, traceID)
			return next(c)
		}
	}
}

// acceptable 只接受可安全写入日志和响应头的字符
func acceptable(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
