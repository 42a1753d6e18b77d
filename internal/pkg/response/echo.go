// File: internal/pkg/response/echo.go
package response

import (
	"chatcrm/internal/pkg/i18n"
	"chatcrm/internal/pkg/trace"
	"chatcrm/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

// EchoOK 成功响应
func EchoOK[T any](c echo.Context, data T) error {
	traceID := trace.GetTraceID(c.Request().Context())
	return c.JSON(xerrors.GetHTTPStatus(xerrors.CodeSuccess), okEnvelope(&data, traceID))
}

// EchoError 错误响应，消息按请求语言本地化
func EchoError(c echo.Context, err error) error {
	appErr := xerrors.Wrap(err, xerrors.CodeInternalError, xerrors.CodeInternalError.Message())
	ctx := c.Request().Context()

	message := i18n.GetErrorMessage(appErr.Code, i18n.GetLanguage(ctx))
	return c.JSON(appErr.HTTPStatus(), failEnvelope(appErr, message, trace.GetTraceID(ctx)))
}

// EchoProxyError 代理路由的错误响应
func EchoProxyError(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{Error: message})
}
