package signin

import (
	"context"
	"sync"
	"time"

	domain "chatcrm/internal/domain/signin"
	"chatcrm/internal/pkg/ctxkey"
	"chatcrm/internal/pkg/i18n"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/validator"
	"chatcrm/internal/pkg/xerrors"

	"golang.org/x/text/language"
)

// otpCodeRule 验证码必须恰好 6 位数字
const otpCodeRule = "len=6,digits"

// Snapshot 表单当前状态的只读副本，供视图渲染
type Snapshot struct {
	Method      domain.LoginMethod
	Credentials domain.Credentials
	Errors      domain.ValidationErrors
	OtpState    domain.OtpRequestState
	SubmitState domain.SubmitState
	Banner      domain.Banner
	CanSubmit   bool
	SendingOTP  bool
}

// Controller 登录表单控制器
//
// 状态由 mu 保护，调用 AuthAPI 期间不持锁。Close 之后到达的响应全部丢弃。
type Controller struct {
	api       AuthAPI
	nav       Navigator
	validate  *validator.Validator
	logger    log.Logger
	metrics   *metrics.SignInMetrics
	scheduler Scheduler
	observer  func(Snapshot)

	redirectDelay time.Duration
	landingPath   string
	lang          language.Tag

	// lifetime 在 Close 时取消，进行中的远程调用随之取消
	lifetime context.Context
	cancel   context.CancelFunc

	mu           sync.Mutex
	method       domain.LoginMethod
	creds        domain.Credentials
	errs         domain.ValidationErrors
	otpState     domain.OtpRequestState
	submitState  domain.SubmitState
	banner       domain.Banner
	sendingOTP   bool
	session      *domain.UserSession
	stopRedirect func() bool
	closed       bool
}

// NewController 创建控制器，初始为密码登录、Idle 状态
func NewController(api AuthAPI, nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		api:           api,
		nav:           nav,
		validate:      validator.New(),
		logger:        log.GetLogger(),
		scheduler:     timerScheduler{},
		redirectDelay: DefaultRedirectDelay,
		landingPath:   DefaultLandingPath,
		lang:          i18n.DefaultLanguage,
		method:        domain.DefaultMethod,
		errs:          make(domain.ValidationErrors),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "signin_controller")
	c.lifetime, c.cancel = context.WithCancel(context.Background())
	return c
}

// ==================== 双向绑定 ====================

func (c *Controller) SetEmail(v string) {
	c.mu.Lock()
	c.creds.Password.Email = v
	c.mu.Unlock()
}

func (c *Controller) SetPassword(v string) {
	c.mu.Lock()
	c.creds.Password.Password = v
	c.mu.Unlock()
}

func (c *Controller) SetCountryCode(v string) {
	c.mu.Lock()
	c.creds.Otp.CountryCode = v
	c.mu.Unlock()
}

func (c *Controller) SetPhoneNumber(v string) {
	c.mu.Lock()
	c.creds.Otp.PhoneNumber = v
	c.mu.Unlock()
}

func (c *Controller) SetOtpCode(v string) {
	c.mu.Lock()
	c.creds.Otp.OtpCode = v
	c.mu.Unlock()
}

// ==================== 操作 ====================

// SetLoginMethod 切换登录方式，只清除被停用方式的错误，字段值保持不变
func (c *Controller) SetLoginMethod(m domain.LoginMethod) {
	if !m.Valid() {
		return
	}

	c.mu.Lock()
	if c.closed || c.method == m {
		c.mu.Unlock()
		return
	}
	c.errs.ClearMethod(c.method)
	c.method = m
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap)
}

// Validate 按当前方式重新计算字段错误
func (c *Controller) Validate() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	ok := c.validateLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap)
	return ok
}

// SendOTP 校验手机号后请求发送验证码，返回是否发送成功。
// 发送或提交进行中时直接返回 false
func (c *Controller) SendOTP(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed || c.method != domain.MethodOTP || c.sendingOTP || c.submitState == domain.SubmitSubmitting {
		c.mu.Unlock()
		return false
	}
	if !c.validateLocked() {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
		c.metrics.IncOTPRequest("invalid")
		return false
	}
	delete(c.errs, domain.FieldOTP)
	c.sendingOTP = true
	phone := c.creds.Otp.Phone()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	ctx = ctxkey.WithLoginMethod(ctx, domain.MethodOTP.String())
	callCtx, done := c.callContext(ctx)
	err := c.api.SendOTP(callCtx, phone)
	done()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "验证码发送响应在控制器关闭后到达，已忽略")
		return false
	}
	c.sendingOTP = false
	if err != nil {
		c.errs.Set(domain.FieldOTP, c.msg(i18n.MsgOTPSendFailed))
	} else {
		c.otpState = domain.OtpSent
		c.creds.Otp.OtpCode = ""
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	if err != nil {
		c.metrics.IncOTPRequest("failure")
		c.logRemote(ctx, "发送验证码失败", err, "send_otp")
		return false
	}
	c.metrics.IncOTPRequest("success")
	c.logger.InfoContext(ctx, "验证码已发送")
	return true
}

// Submit 执行一次提交，返回提交后的状态
func (c *Controller) Submit(ctx context.Context) domain.SubmitState {
	c.mu.Lock()
	if c.closed || c.sendingOTP ||
		c.submitState == domain.SubmitSubmitting || c.submitState == domain.SubmitSucceeded {
		state := c.submitState
		c.mu.Unlock()
		return state
	}

	// 失败后重试先回到 Idle
	var retry *Snapshot
	if c.submitState == domain.SubmitFailed {
		c.submitState = domain.SubmitIdle
		c.banner = domain.Banner{}
		s := c.snapshotLocked()
		retry = &s
	}

	if !c.checkSubmitLocked() {
		state := c.submitState
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
		return state
	}

	sub := c.creds.Submission(c.method)
	c.submitState = domain.SubmitSubmitting
	c.banner = domain.Banner{}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if retry != nil {
		c.emit(*retry)
	}
	c.emit(snap)

	ctx = ctxkey.WithLoginMethod(ctx, sub.Method().String())
	start := time.Now()
	session, err := c.authenticate(ctx, sub)
	elapsed := time.Since(start)

	c.mu.Lock()
	if c.closed {
		state := c.submitState
		c.mu.Unlock()
		c.metrics.ObserveSubmit(sub.Method().String(), "discarded", elapsed)
		c.logger.DebugContext(ctx, "登录响应在控制器关闭后到达，已忽略")
		return state
	}

	if err != nil {
		c.submitState = domain.SubmitFailed
		c.banner = domain.Banner{Kind: domain.BannerError, Message: c.msg(i18n.MsgInvalidCredentials)}
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)

		c.metrics.ObserveSubmit(sub.Method().String(), "failure", elapsed)
		c.logRemote(ctx, "登录失败", err, "submit")
		return domain.SubmitFailed
	}

	c.session = session
	c.submitState = domain.SubmitSucceeded
	c.banner = domain.Banner{Kind: domain.BannerSuccess, Message: c.msg(i18n.MsgLoginSuccess)}
	c.stopRedirect = c.scheduler.AfterFunc(c.redirectDelay, c.redirect)
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	c.metrics.ObserveSubmit(sub.Method().String(), "success", elapsed)
	c.logger.InfoContext(ctx, "登录成功", log.Duration("redirect_delay", c.redirectDelay))
	return domain.SubmitSucceeded
}

// DismissBanner 关闭错误横幅，成功横幅保留到跳转
func (c *Controller) DismissBanner() {
	c.mu.Lock()
	if c.closed || c.banner.Kind != domain.BannerError {
		c.mu.Unlock()
		return
	}
	c.banner = domain.Banner{}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// Snapshot 当前状态副本
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Session 登录成功后的会话，未成功时为 nil
func (c *Controller) Session() *domain.UserSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Close 视图销毁时调用：取消待执行的跳转并丢弃之后到达的响应。可重复调用
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stop := c.stopRedirect
	c.stopRedirect = nil
	c.mu.Unlock()

	c.cancel()
	if stop != nil && stop() {
		c.metrics.IncRedirect("cancelled")
	}
}

// ==================== 内部 ====================

// validateLocked 整体替换当前方式的错误，另一方式的错误不动
func (c *Controller) validateLocked() bool {
	c.errs.ClearMethod(c.method)

	var err error
	switch c.method {
	case domain.MethodOTP:
		err = c.validate.Struct(c.creds.Otp)
	default:
		err = c.validate.Struct(c.creds.Password)
	}
	for _, fe := range validator.TranslateValidationErrors(err, c.messageTable()) {
		field := domain.Field(fe.Field)
		if field.Method() != c.method {
			continue
		}
		if !c.errs.Has(field) {
			c.errs.Set(field, fe.Message)
		}
	}
	return c.errs.ForMethod(c.method).Empty()
}

// checkSubmitLocked 提交前置条件：字段校验，验证码模式下还要求已发送且为 6 位
func (c *Controller) checkSubmitLocked() bool {
	if !c.validateLocked() {
		return false
	}
	if c.method != domain.MethodOTP {
		return true
	}
	if c.otpState != domain.OtpSent {
		c.errs.Set(domain.FieldOTP, c.msg(i18n.MsgOTPNotSent))
		return false
	}
	if err := c.validate.Var(c.creds.Otp.OtpCode, otpCodeRule); err != nil {
		c.errs.Set(domain.FieldOTP, c.msg(i18n.MsgOTPLength))
		return false
	}
	return true
}

func (c *Controller) authenticate(ctx context.Context, sub domain.Submission) (*domain.UserSession, error) {
	callCtx, done := c.callContext(ctx)
	defer done()

	switch s := sub.(type) {
	case domain.PasswordLogin:
		return c.api.LoginWithPassword(callCtx, s.Email, s.Password)
	case domain.OtpLogin:
		return c.api.VerifyOTP(callCtx, s.Phone(), s.Code)
	default:
		return nil, xerrors.New(xerrors.CodeInvalidRequest, "unsupported submission")
	}
}

// callContext 调用方 ctx 与控制器生命周期任一结束都会取消远程调用
func (c *Controller) callContext(ctx context.Context) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) redirect() {
	c.mu.Lock()
	if c.closed || c.stopRedirect == nil {
		c.mu.Unlock()
		return
	}
	c.stopRedirect = nil
	path := c.landingPath
	c.mu.Unlock()

	c.metrics.IncRedirect("fired")
	c.nav.Redirect(path)
}

func (c *Controller) logRemote(ctx context.Context, msg string, err error, operation string) {
	appErr := xerrors.Wrap(err, xerrors.CodeExternalServiceError, msg).
		WithService("signin", operation)
	log.LogAppError(ctx, c.logger, msg, appErr)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Method:      c.method,
		Credentials: c.creds,
		Errors:      c.errs.Clone(),
		OtpState:    c.otpState,
		SubmitState: c.submitState,
		Banner:      c.banner,
		CanSubmit: !c.closed && !c.sendingOTP &&
			(c.submitState == domain.SubmitIdle || c.submitState == domain.SubmitFailed),
		SendingOTP: c.sendingOTP,
	}
}

func (c *Controller) emit(s Snapshot) {
	if c.observer != nil {
		c.observer(s)
	}
}

func (c *Controller) msg(key string) string {
	return i18n.Translate(c.lang, key)
}

func (c *Controller) messageTable() validator.MessageTable {
	return validator.MessageTable{
		"email.required":       c.msg(i18n.MsgEmailRequired),
		"email.email_shape":    c.msg(i18n.MsgEmailInvalid),
		"password.required":    c.msg(i18n.MsgPasswordRequired),
		"countryCode.required": c.msg(i18n.MsgCountryCodeRequired),
		"phoneNumber.required": c.msg(i18n.MsgPhoneRequired),
		"phoneNumber.phone10":  c.msg(i18n.MsgPhoneInvalid),
	}
}
