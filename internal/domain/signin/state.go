package signin

import "time"

// OtpRequestState 是否已为当前号码发送验证码
type OtpRequestState int

const (
	OtpNotSent OtpRequestState = iota
	OtpSent
)

func (s OtpRequestState) String() string {
	if s == OtpSent {
		return "sent"
	}
	return "not_sent"
}

// SubmitState 提交生命周期
//
//	Idle -> Submitting -> Succeeded -> (延迟后跳转)
//	Submitting -> Failed -> (重试) Idle
type SubmitState int

const (
	SubmitIdle SubmitState = iota
	SubmitSubmitting
	SubmitSucceeded
	SubmitFailed
)

func (s SubmitState) String() string {
	switch s {
	case SubmitIdle:
		return "idle"
	case SubmitSubmitting:
		return "submitting"
	case SubmitSucceeded:
		return "succeeded"
	case SubmitFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BannerKind 横幅类型
type BannerKind int

const (
	BannerNone BannerKind = iota
	BannerSuccess
	BannerError
)

// Banner 表单顶部的提示
type Banner struct {
	Kind    BannerKind
	Message string
}

// Visible 是否需要展示
func (b Banner) Visible() bool {
	return b.Kind != BannerNone
}

// UserSession 登录成功后上游返回的会话
type UserSession struct {
	Token     string
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}
