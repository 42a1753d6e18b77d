// File: internal/pkg/xerrors/codes.go
package xerrors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型（类型安全）
type ErrorCode int

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return fmt.Sprintf("%d (%s)", c, msg)
	}
	return fmt.Sprintf("%d (undefined)", c)
}

// Message 返回错误码对应的消息
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// ToInt 转换为 int
func (c ErrorCode) ToInt() int {
	return int(c)
}

// -----------------------------------------------------------------------------
// 错误码按领域分段：1 通用 / 2 认证 / 7 外部依赖
// -----------------------------------------------------------------------------
const (
	// 1xxxxx: 通用错误码
	CodeSuccess           ErrorCode = 100000 // 操作成功
	CodeInternalError     ErrorCode = 100001 // 内部服务错误
	CodeInvalidParams     ErrorCode = 100002 // 参数错误
	CodeInvalidRequest    ErrorCode = 100003 // 请求格式错误
	CodeResourceNotFound  ErrorCode = 100404 // 资源不存在
	CodeRateLimitExceeded ErrorCode = 100429 // 请求频率限制

	// 2xxxxx: 认证相关错误码
	CodeAuthenticationFailed ErrorCode = 200001 // 认证失败
	CodeInvalidToken         ErrorCode = 200002 // 无效令牌
	CodeTokenExpired         ErrorCode = 200003 // 令牌过期
	CodeInvalidCredentials   ErrorCode = 200004 // 凭据无效
	CodeOTPNotSent           ErrorCode = 200010 // 验证码未发送
	CodeOTPInvalid           ErrorCode = 200011 // 验证码格式错误
	CodeOTPSendFailed        ErrorCode = 200012 // 验证码发送失败

	// 7xxxxx: 外部服务错误码
	CodeExternalServiceError ErrorCode = 700001 // 外部服务错误
	CodeUpstreamUnavailable  ErrorCode = 700002 // 上游认证服务不可达
	CodeCacheError           ErrorCode = 700004 // 缓存服务错误
	CodeMessageQueueError    ErrorCode = 700005 // 消息队列错误
)

var codeMessages = map[ErrorCode]string{
	CodeSuccess:           "Operation successful",
	CodeInternalError:     "Internal server error",
	CodeInvalidParams:     "Invalid parameters",
	CodeInvalidRequest:    "Invalid request format",
	CodeResourceNotFound:  "Resource not found",
	CodeRateLimitExceeded: "Too many requests, please try again later",

	CodeAuthenticationFailed: "Authentication failed",
	CodeInvalidToken:         "Invalid token",
	CodeTokenExpired:         "Token expired",
	CodeInvalidCredentials:   "Invalid credentials",
	CodeOTPNotSent:           "OTP has not been sent",
	CodeOTPInvalid:           "OTP must be 6 digits",
	CodeOTPSendFailed:        "Failed to send OTP",

	CodeExternalServiceError: "External service error",
	CodeUpstreamUnavailable:  "Authentication service unavailable",
	CodeCacheError:           "Cache service error",
	CodeMessageQueueError:    "Message queue error",
}

// GetHTTPStatus 根据业务错误码获取HTTP状态码
func GetHTTPStatus(code ErrorCode) int {
	switch {
	case code == CodeSuccess:
		return http.StatusOK
	case code == CodeInvalidParams || code == CodeInvalidRequest:
		return http.StatusBadRequest
	case code == CodeResourceNotFound:
		return http.StatusNotFound
	case code == CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case code == CodeOTPNotSent || code == CodeOTPInvalid:
		return http.StatusBadRequest
	case code >= 200000 && code < 300000:
		return http.StatusUnauthorized
	case code == CodeUpstreamUnavailable:
		return http.StatusBadGateway
	case code >= 700000:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// getCategoryByCode 根据错误码获取分类
func getCategoryByCode(code ErrorCode) string {
	switch {
	case code >= 100000 && code < 200000:
		return "system"
	case code >= 200000 && code < 300000:
		return "authentication"
	case code >= 700000 && code < 800000:
		return "external"
	default:
		return "unknown"
	}
}

// getLevelByCode 根据错误码获取级别
func getLevelByCode(code ErrorCode) ErrorLevel {
	switch {
	case code == CodeSuccess:
		return LevelInfo
	case code >= 100002 && code <= 100003, code == CodeRateLimitExceeded:
		return LevelWarn
	case code == CodeOTPNotSent || code == CodeOTPInvalid || code == CodeInvalidCredentials:
		return LevelWarn
	case code >= 700001:
		return LevelCritical
	default:
		return LevelError
	}
}

// isRetryableByCode 根据错误码判断是否可重试
func isRetryableByCode(code ErrorCode) bool {
	switch code {
	case CodeInternalError, CodeExternalServiceError, CodeUpstreamUnavailable,
		CodeCacheError, CodeMessageQueueError, CodeRateLimitExceeded, CodeOTPSendFailed:
		return true
	default:
		return false
	}
}
