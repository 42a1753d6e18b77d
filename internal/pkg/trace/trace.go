// File: internal/pkg/trace/trace.go
package trace

import (
	"context"
	"net/http"
	"strings"

	"chatcrm/internal/pkg/ctxkey"

	"github.com/google/uuid"
)

const (
	// HeaderTraceID 主追踪头
	HeaderTraceID = "X-Trace-Id"
	// HeaderRequestID 兼容的请求 ID 头
	HeaderRequestID = "X-Request-Id"
	// HeaderTraceparent W3C 追踪头
	HeaderTraceparent = "Traceparent"
)

// WithTraceID 在 context 中设置 trace ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return ctxkey.WithValue(ctx, ctxkey.TraceID, traceID)
}

// GetTraceID 从 context 中获取 trace ID
func GetTraceID(ctx context.Context) string {
	return ctxkey.GetString(ctx, ctxkey.TraceID)
}

// GenerateTraceID 生成新的 trace ID
// 格式: 32 个字符的十六进制字符串 (去掉连字符的 UUIDv4)
func GenerateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ExtractFromHeader 从 HTTP 头部提取 trace ID
// 支持: X-Trace-Id, X-Request-Id, Traceparent (W3C)，都没有时生成新的
func ExtractFromHeader(headers http.Header) string {
	if traceID := headers.Get(HeaderTraceID); traceID != "" {
		return traceID
	}

	if requestID := headers.Get(HeaderRequestID); requestID != "" {
		return requestID
	}

	if traceparent := headers.Get(HeaderTraceparent); traceparent != "" {
		if traceID := parseTraceparent(traceparent); traceID != "" {
			return traceID
		}
	}

	return GenerateTraceID()
}

// Inject 把 context 中的 trace ID 写入出站请求头
func Inject(ctx context.Context, headers http.Header) {
	if traceID := GetTraceID(ctx); traceID != "" {
		headers.Set(HeaderTraceID, traceID)
	}
}

// parseTraceparent 解析 W3C Traceparent 头部
// 格式: "00-<trace-id>-<parent-id>-<flags>"
func parseTraceparent(traceparent string) string {
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 || len(parts[1]) != 32 {
		return ""
	}
	return parts[1]
}
