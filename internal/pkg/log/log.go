// Package log slog 封装：全局 logger、context 字段注入、敏感字段脱敏
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"chatcrm/internal/pkg/ctxkey"
	"chatcrm/internal/pkg/xerrors"
)

// Logger 组件依赖的日志接口
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, err error, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
}

// StructuredLogger Logger 的 slog 实现
type StructuredLogger struct {
	logger *slog.Logger
}

// secretKeys 无论出现在哪个组件的日志里都会被替换
var secretKeys = map[string]bool{
	"password":      true,
	"otp":           true,
	"otp_code":      true,
	"token":         true,
	"authorization": true,
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger
)

// Init 初始化全局 logger：production 输出 JSON，其余环境输出文本
func Init(level slog.Level, environment string) {
	setGlobal(newHandler(os.Stdout, level, environment))
}

func newHandler(w io.Writer, level slog.Level, environment string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: redactSecrets}
	if environment == "production" {
		return slog.NewJSONHandler(w, opts)
	}
	opts.AddSource = true
	return slog.NewTextHandler(w, opts)
}

func setGlobal(handler slog.Handler) {
	logger := slog.New(NewContextHandler(handler))

	globalMu.Lock()
	globalLogger = &StructuredLogger{logger: logger}
	globalMu.Unlock()

	slog.SetDefault(logger)
}

// GetLogger 未初始化时按 development/info 初始化
func GetLogger() Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	Init(slog.LevelInfo, "development")
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLogger 用指定 handler 创建独立 logger，同样注入 context 字段
func NewLogger(handler slog.Handler) Logger {
	return &StructuredLogger{logger: slog.New(NewContextHandler(handler))}
}

// NewNop 丢弃所有输出
func NewNop() Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel 解析 LOG_LEVEL，无法识别时返回 info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "***")
	}
	return a
}

func (l *StructuredLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *StructuredLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *StructuredLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }

// Error err 以 error 字段附加在末尾
func (l *StructuredLogger) Error(msg string, err error, args ...any) {
	l.logger.Error(msg, append(args, slog.Any("error", err))...)
}

func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *StructuredLogger) With(args ...any) Logger {
	return &StructuredLogger{logger: l.logger.With(args...)}
}

// ContextHandler 从 context 取 trace_id、login_method、client_ip 附加到每条记录
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	if h, ok := next.(*ContextHandler); ok {
		return h
	}
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, f := range contextFields {
		if v := ctxkey.GetString(ctx, f); v != "" {
			r.AddAttrs(slog.String(string(f), v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

var contextFields = []ctxkey.ContextKey{ctxkey.TraceID, ctxkey.LoginMethod, ctxkey.ClientIP}

// Debug 使用全局 logger
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// LogAppError 按 AppError 的级别选择日志级别
func LogAppError(ctx context.Context, logger Logger, msg string, appErr *xerrors.AppError) {
	if appErr == nil {
		return
	}
	if logger == nil {
		logger = GetLogger()
	}

	attr := slog.Any("app_error", appErr)
	switch appErr.Level {
	case xerrors.LevelCritical, xerrors.LevelError:
		logger.ErrorContext(ctx, msg, attr)
	case xerrors.LevelWarn:
		logger.WarnContext(ctx, msg, attr)
	default:
		logger.InfoContext(ctx, msg, attr)
	}
}

func String(key, value string) slog.Attr      { return slog.String(key, value) }
func Int(key string, value int) slog.Attr     { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }
func Bool(key string, value bool) slog.Attr   { return slog.Bool(key, value) }
func Any(key string, value any) slog.Attr     { return slog.Any(key, value) }

// Duration 以毫秒记录，key 追加 _ms
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Int64(key+"_ms", d.Milliseconds())
}
