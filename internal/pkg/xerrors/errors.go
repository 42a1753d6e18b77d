package xerrors

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrorLevel 决定 log.LogAppError 使用的日志级别
type ErrorLevel int

const (
	LevelInfo ErrorLevel = iota
	LevelWarn
	LevelError
	LevelCritical
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AppError 带错误码的错误。Level、Category、Retryable 由错误码推导
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error

	Level     ErrorLevel
	Category  string
	Retryable bool

	TraceID   string
	Service   string
	Operation string
	meta      map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 错误码相同即视为同一错误，errors.Is(err, FromCode(CodeX)) 可用于判断
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// LogValue 作为一个 group 输出
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("code", int(e.Code)),
		slog.String("message", e.Message),
		slog.String("level", e.Level.String()),
		slog.String("category", e.Category),
		slog.Bool("retryable", e.Retryable),
	}
	for _, kv := range [][2]string{{"trace_id", e.TraceID}, {"service", e.Service}, {"operation", e.Operation}} {
		if kv[1] != "" {
			attrs = append(attrs, slog.String(kv[0], kv[1]))
		}
	}
	for k, v := range e.meta {
		attrs = append(attrs, slog.Any(k, v))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("underlying_error", e.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// WithService 标记出错的组件与操作
func (e *AppError) WithService(service, operation string) *AppError {
	e.Service = service
	e.Operation = operation
	return e
}

func (e *AppError) WithMetadata(key string, value any) *AppError {
	if e.meta == nil {
		e.meta = make(map[string]any)
	}
	e.meta[key] = value
	return e
}

// Metadata 不存在时返回 nil
func (e *AppError) Metadata(key string) any {
	return e.meta[key]
}

func (e *AppError) HTTPStatus() int {
	return GetHTTPStatus(e.Code)
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Level:     getLevelByCode(code),
		Category:  getCategoryByCode(code),
		Retryable: isRetryableByCode(code),
	}
}

func NewWithError(code ErrorCode, message string, err error) *AppError {
	appErr := New(code, message)
	appErr.Err = err
	return appErr
}

// FromCode 使用错误码的默认文案，未知错误码按内部错误文案
func FromCode(code ErrorCode) *AppError {
	msg, ok := codeMessages[code]
	if !ok {
		msg = codeMessages[CodeInternalError]
	}
	return New(code, msg)
}

// Wrap 错误链中已有 AppError 时原样返回
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return NewWithError(code, message, err)
}

func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf nil 返回 CodeSuccess，非 AppError 返回 CodeInternalError
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternalError
}

func NewValidationError(field, message string) *AppError {
	return FromCode(CodeInvalidParams).
		WithMetadata("field", field).
		WithMetadata("validation_message", message)
}

// NewInvalidCredentialsError 上游拒绝凭据（401/403）
func NewInvalidCredentialsError(status int, upstreamMessage string) *AppError {
	return FromCode(CodeInvalidCredentials).
		WithMetadata("status_code", status).
		WithMetadata("upstream_message", upstreamMessage)
}

func NewRateLimitError(scope string) *AppError {
	return FromCode(CodeRateLimitExceeded).
		WithMetadata("scope", scope)
}

func NewExternalServiceError(service string, err error) *AppError {
	appErr := FromCode(CodeExternalServiceError).
		WithMetadata("external_service", service)
	appErr.Err = err
	return appErr
}

// NewUpstreamError 上游返回非预期状态码
func NewUpstreamError(service string, status int, upstreamMessage string) *AppError {
	return FromCode(CodeExternalServiceError).
		WithMetadata("external_service", service).
		WithMetadata("status_code", status).
		WithMetadata("upstream_message", upstreamMessage)
}
