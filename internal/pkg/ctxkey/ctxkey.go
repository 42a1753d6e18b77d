// Package ctxkey 请求级 context 值：追踪 ID、语言、登录方式、客户端 IP
package ctxkey

import "context"

// ContextKey context key 类型，避免与其他包冲突
type ContextKey string

const (
	Language    ContextKey = "language"
	TraceID     ContextKey = "trace_id"
	ClientIP    ContextKey = "client_ip"
	LoginMethod ContextKey = "login_method"
)

// WithValue 写入字符串以外的值时使用（如 language.Tag）
func WithValue(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// GetString 取不到或类型不符时返回空串
func GetString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}

// WithLoginMethod 标记本次请求的登录方式，日志与指标据此分组
func WithLoginMethod(ctx context.Context, method string) context.Context {
	if method == "" {
		return ctx
	}
	return context.WithValue(ctx, LoginMethod, method)
}

func LoginMethodFrom(ctx context.Context) string {
	return GetString(ctx, LoginMethod)
}

// WithClientIP 记录代理看到的客户端 IP
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, ClientIP, ip)
}

func ClientIPFrom(ctx context.Context) string {
	return GetString(ctx, ClientIP)
}
