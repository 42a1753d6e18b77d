package i18n

import "golang.org/x/text/language"

// 登录表单文案，英文原文即 key
const (
	MsgEmailRequired       = "Email is required"
	MsgEmailInvalid        = "Please enter a valid email address"
	MsgPasswordRequired    = "Password is required"
	MsgCountryCodeRequired = "Country code is required"
	MsgPhoneRequired       = "Phone number is required"
	MsgPhoneInvalid        = "Phone number must be exactly 10 digits"
	MsgOTPNotSent          = "Please send and verify the OTP first"
	MsgOTPLength           = "OTP must be 6 digits"
	MsgOTPSendFailed       = "Failed to send OTP, please try again"
	MsgLoginSuccess        = "Signed in successfully. Redirecting..."
	MsgInvalidCredentials  = "Invalid credentials, please try again."
)

func init() {
	register(language.Chinese, map[string]string{
		MsgEmailRequired:       "请输入邮箱",
		MsgEmailInvalid:        "请输入有效的邮箱地址",
		MsgPasswordRequired:    "请输入密码",
		MsgCountryCodeRequired: "请选择国家区号",
		MsgPhoneRequired:       "请输入手机号",
		MsgPhoneInvalid:        "手机号必须是 10 位数字",
		MsgOTPNotSent:          "请先发送并验证验证码",
		MsgOTPLength:           "验证码必须是 6 位数字",
		MsgOTPSendFailed:       "验证码发送失败，请重试",
		MsgLoginSuccess:        "登录成功，正在跳转...",
		MsgInvalidCredentials:  "凭据无效，请重试。",
	})
}
