package signin

import (
	"context"
	"time"

	domain "chatcrm/internal/domain/signin"
)

// AuthAPI 认证服务。
// 验证码登录只调用 VerifyOTP 一次，校验与登录在同一个请求内完成
type AuthAPI interface {
	LoginWithPassword(ctx context.Context, email, password string) (*domain.UserSession, error)
	SendOTP(ctx context.Context, phoneNumber string) error
	VerifyOTP(ctx context.Context, phoneNumber, otp string) (*domain.UserSession, error)
}

// Navigator 登录成功后的页面跳转
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc 函数适配器
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// Scheduler 延迟执行，返回的 stop 在回调尚未执行时取消它并返回 true
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
