package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatcrm/internal/pkg/log"

	"github.com/labstack/echo/v4"
)

const (
	// redacted 脱敏后的占位
	redacted = "***"

	// defaultMaxLoggedBody MaxBodySize 未设置时的读取上限
	defaultMaxLoggedBody = 64 << 10
)

// LoggingConfig 请求日志配置
type LoggingConfig struct {
	// SkipPaths 前缀匹配，不记录日志
	SkipPaths []string

	// DetailedLog 额外记录 query、UA 和脱敏后的请求头
	DetailedLog bool

	// LogRequestBody 仅在 DetailedLog 下生效，JSON 中的敏感字段会被脱敏
	LogRequestBody bool
	MaxBodySize    int64

	SensitiveHeaders []string

	// SensitiveFields 整体替换为 ***
	SensitiveFields []string

	// PhoneFields 只保留后 4 位
	PhoneFields []string
}

// DefaultLoggingConfig 生产环境只记录一行访问日志
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SkipPaths:        []string{"/health", "/metrics", "/favicon.ico"},
		MaxBodySize:      10 << 10,
		SensitiveHeaders: []string{echo.HeaderAuthorization, echo.HeaderCookie, "X-Api-Key"},
		SensitiveFields:  []string{"password", "otp", "token"},
		PhoneFields:      []string{"phoneNumber", "phone"},
	}
}

// LoggingMiddlewareWithConfig 每个请求完成后记录一条访问日志。
// trace_id、login_method、client_ip 由 log.ContextHandler 从 context 补充
func LoggingMiddlewareWithConfig(logger log.Logger, config *LoggingConfig) echo.MiddlewareFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	logger = logger.With("component", "access")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if shouldSkip(req.URL.Path, config.SkipPaths) {
				return next(c)
			}

			start := time.Now()
			var detail []any
			if config.DetailedLog {
				detail = requestDetail(c, config)
			}

			err := next(c)

			res := c.Response()
			fields := []any{
				log.String("method", req.Method),
				log.String("path", req.URL.Path),
				log.Int("status_code", res.Status),
				log.Duration("duration", time.Since(start)),
				log.Int64("response_size", res.Size),
			}
			fields = append(fields, detail...)

			// 使用 handler 更新后的 context（代理会写入登录方式）
			ctx := c.Request().Context()
			switch {
			case err != nil:
				fields = append(fields, log.String("error", err.Error()))
				logger.ErrorContext(ctx, "请求处理出错", fields...)
			case res.Status >= http.StatusInternalServerError:
				logger.ErrorContext(ctx, "请求完成", fields...)
			case res.Status >= http.StatusBadRequest:
				logger.WarnContext(ctx, "请求完成", fields...)
			default:
				logger.InfoContext(ctx, "请求完成", fields...)
			}
			return err
		}
	}
}

func requestDetail(c echo.Context, config *LoggingConfig) []any {
	req := c.Request()
	detail := []any{
		log.String("user_agent", req.UserAgent()),
		log.Any("headers", sanitizeHeaders(req.Header, config.SensitiveHeaders)),
	}
	if req.URL.RawQuery != "" {
		detail = append(detail, log.String("query", req.URL.RawQuery))
	}
	if config.LogRequestBody {
		if body := readAndRestoreBody(c, config); body != "" {
			detail = append(detail, log.String("request_body", body))
		}
	}
	return detail
}

func shouldSkip(path string, skipPaths []string) bool {
	for _, p := range skipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func sanitizeHeaders(headers http.Header, sensitive []string) map[string]string {
	result := make(map[string]string, len(headers))
	for k, v := range headers {
		if len(v) == 0 {
			continue
		}
		if containsFold(sensitive, k) {
			result[k] = redacted
			continue
		}
		result[k] = v[0]
	}
	return result
}

// readAndRestoreBody 最多读 MaxBodySize+1 字节，读出部分与剩余流拼回请求体。
// 超过上限的请求体不记录内容，未解析的 JSON 可能带着密码
func readAndRestoreBody(c echo.Context, config *LoggingConfig) string {
	req := c.Request()
	if req.Body == nil || req.Body == http.NoBody {
		return ""
	}

	limit := config.MaxBodySize
	if limit <= 0 {
		limit = defaultMaxLoggedBody
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
	req.Body = &restoredBody{
		Reader: io.MultiReader(bytes.NewReader(raw), req.Body),
		closer: req.Body,
	}
	if err != nil {
		return ""
	}
	if int64(len(raw)) > limit {
		return fmt.Sprintf("(omitted, larger than %d bytes)", limit)
	}

	return redactBody(raw, config)
}

// restoredBody 关闭时关闭原始请求体
type restoredBody struct {
	io.Reader
	closer io.Closer
}

func (b *restoredBody) Close() error { return b.closer.Close() }

// redactBody 只处理顶层 JSON 对象；非 JSON 原样截断
func redactBody(raw []byte, config *LoggingConfig) string {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err == nil {
		for k, v := range fields {
			switch {
			case containsFold(config.SensitiveFields, k):
				fields[k] = redacted
			case containsFold(config.PhoneFields, k):
				if s, ok := v.(string); ok {
					fields[k] = maskPhone(s)
				}
			}
		}
		if out, err := json.Marshal(fields); err == nil {
			raw = out
		}
	}

	if config.MaxBodySize > 0 && int64(len(raw)) > config.MaxBodySize {
		return string(raw[:config.MaxBodySize]) + "... (truncated)"
	}
	return string(raw)
}

// maskPhone 5551234567 -> ******4567
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
