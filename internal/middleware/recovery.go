package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

// recoveryStackSize panic 堆栈最多记录 4KB
const recoveryStackSize = 4 << 10

// RecoveryMiddleware 把 handler 中的 panic 转为 CodeInternalError 交给 ErrorHandler。
// http.ErrAbortHandler 按 net/http 约定继续向上抛
func RecoveryMiddleware(logger log.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With("component", "recovery")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}

				stack := make([]byte, recoveryStackSize)
				stack = stack[:runtime.Stack(stack, false)]

				req := c.Request()
				logger.ErrorContext(req.Context(), "请求处理 panic",
					log.Any("panic_value", r),
					log.String("route", c.Path()),
					log.String("method", req.Method),
					log.String("stack", string(stack)),
				)

				err = xerrors.FromCode(xerrors.CodeInternalError).
					WithService("authproxy", "recovery").
					WithMetadata("panic_value", fmt.Sprint(r))
			}()

			return next(c)
		}
	}
}
