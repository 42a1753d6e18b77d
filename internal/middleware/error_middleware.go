package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"chatcrm/internal/pkg/i18n"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/response"
	"chatcrm/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

// ErrorHandlerConfig 统一错误处理配置
type ErrorHandlerConfig struct {
	Logger  log.Logger
	Metrics *metrics.ErrorMetrics
	// PlainPrefixes 这些前缀下的错误使用 {"error": "..."} 格式
	PlainPrefixes []string
}

// ErrorHandler 作为 echo.HTTPErrorHandler 使用
func ErrorHandler(cfg ErrorHandlerConfig) echo.HTTPErrorHandler {
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultErrorMetrics
	}

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		req := c.Request()
		ctx := req.Context()
		appErr := toAppError(err)
		status := appErr.HTTPStatus()

		if status >= http.StatusInternalServerError {
			cfg.Logger.ErrorContext(ctx, "请求处理失败",
				log.String("path", req.URL.Path),
				log.String("error_type", fmt.Sprintf("%T", err)),
				log.Any("app_error", appErr),
			)
		} else {
			log.LogAppError(ctx, cfg.Logger, "请求被拒绝", appErr)
		}
		cfg.Metrics.RecordError(appErr, status, c.Path())

		var writeErr error
		switch {
		case req.Method == http.MethodHead:
			writeErr = c.NoContent(status)
		case hasAnyPrefix(req.URL.Path, cfg.PlainPrefixes):
			msg := i18n.GetErrorMessage(appErr.Code, i18n.GetLanguage(ctx))
			writeErr = response.EchoProxyError(c, status, msg)
		default:
			writeErr = response.EchoError(c, appErr)
		}
		if writeErr != nil {
			cfg.Logger.Error("写入错误响应失败", writeErr)
		}
	}
}

// toAppError echo 错误按状态码映射，其他错误包装为系统错误
func toAppError(err error) *xerrors.AppError {
	if appErr, ok := xerrors.As(err); ok {
		return appErr
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return convertEchoError(he)
	}
	return xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err).
		WithService("echo-middleware", "error_handler")
}

// convertEchoError 将 Echo 错误转换为业务错误
func convertEchoError(echoErr *echo.HTTPError) *xerrors.AppError {
	msg := fmt.Sprintf("%v", echoErr.Message)
	switch echoErr.Code {
	case http.StatusBadRequest:
		return xerrors.FromCode(xerrors.CodeInvalidParams).WithMetadata("echo_message", msg)
	case http.StatusUnauthorized:
		return xerrors.FromCode(xerrors.CodeAuthenticationFailed).WithMetadata("echo_message", msg)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return xerrors.FromCode(xerrors.CodeResourceNotFound).WithMetadata("echo_message", msg)
	case http.StatusTooManyRequests:
		return xerrors.FromCode(xerrors.CodeRateLimitExceeded).WithMetadata("echo_message", msg)
	case http.StatusRequestEntityTooLarge:
		return xerrors.FromCode(xerrors.CodeInvalidRequest).WithMetadata("echo_message", msg)
	default:
		return xerrors.FromCode(xerrors.CodeInternalError).
			WithMetadata("echo_code", echoErr.Code).
			WithMetadata("echo_message", msg)
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
