// File: internal/pkg/i18n/error_messages.go
package i18n

import (
	"chatcrm/internal/pkg/xerrors"

	"golang.org/x/text/language"
)

// ErrorMessages 错误码的中文文案，英文取 xerrors 的默认消息
var ErrorMessages = map[xerrors.ErrorCode]string{
	xerrors.CodeSuccess:           "操作成功",
	xerrors.CodeInternalError:     "内部服务错误",
	xerrors.CodeInvalidParams:     "参数错误",
	xerrors.CodeInvalidRequest:    "请求格式错误",
	xerrors.CodeResourceNotFound:  "资源不存在",
	xerrors.CodeRateLimitExceeded: "请求过于频繁，请稍后再试",

	xerrors.CodeAuthenticationFailed: "认证失败",
	xerrors.CodeInvalidToken:         "无效令牌",
	xerrors.CodeTokenExpired:         "令牌过期",
	xerrors.CodeInvalidCredentials:   "凭据无效",
	xerrors.CodeOTPNotSent:           "验证码未发送",
	xerrors.CodeOTPInvalid:           "验证码必须是 6 位数字",
	xerrors.CodeOTPSendFailed:        "验证码发送失败",

	xerrors.CodeExternalServiceError: "外部服务错误",
	xerrors.CodeUpstreamUnavailable:  "认证服务不可用",
	xerrors.CodeCacheError:           "缓存服务错误",
	xerrors.CodeMessageQueueError:    "消息队列错误",
}

// GetErrorMessage 获取错误码对应语言的消息
func GetErrorMessage(code xerrors.ErrorCode, lang language.Tag) string {
	if lang == language.Chinese {
		if msg, ok := ErrorMessages[code]; ok {
			return msg
		}
	}
	return code.Message()
}
