package authproxy

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	domain "chatcrm/internal/domain/signin"
	"chatcrm/internal/pkg/ctxkey"
	"chatcrm/internal/pkg/i18n"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/notify"
	"chatcrm/internal/pkg/response"
	"chatcrm/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

const (
	pathLogin     = "login"
	pathSendOTP   = "send-otp"
	pathVerifyOTP = "verify-otp"

	// maxRequestBody 登录请求体上限 64KB
	maxRequestBody = 64 << 10

	// errUpstreamFailed 上游网络失败时返回给前端的固定文案
	errUpstreamFailed = "Internal server error"
)

// Handler /api/auth/* 转发处理器
type Handler struct {
	upstream  *Upstream
	guard     *OTPGuard
	publisher *notify.Publisher
	logger    log.Logger
}

// NewHandler guard / publisher 可为 nil
func NewHandler(upstream *Upstream, guard *OTPGuard, publisher *notify.Publisher, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Handler{
		upstream:  upstream,
		guard:     guard,
		publisher: publisher,
		logger:    logger.With("component", "authproxy"),
	}
}

// Forward 原样转发到 {BASE_URL}/auth/{path}，原样返回状态码和响应体
func (h *Handler) Forward(c echo.Context) error {
	req := c.Request()
	path := strings.TrimLeft(c.Param("*"), "/")

	ctx := req.Context()
	if m, ok := loginMethodOf(path); ok {
		ctx = ctxkey.WithLoginMethod(ctx, m.String())
	}
	ctx = ctxkey.WithClientIP(ctx, c.RealIP())
	c.SetRequest(req.WithContext(ctx))

	body, err := readBody(req.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "读取请求体失败", log.String("path", path), log.String("error", err.Error()))
		return response.EchoProxyError(c, http.StatusRequestEntityTooLarge,
			i18n.GetErrorMessage(xerrors.CodeInvalidRequest, i18n.GetLanguage(ctx)))
	}

	if req.Method == http.MethodPost && path == pathSendOTP {
		verdict := h.guard.Check(ctx, phoneFromBody(body), c.RealIP())
		if !verdict.Allowed {
			if verdict.RetryAfter > 0 {
				seconds := int(math.Ceil(verdict.RetryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			}
			return response.EchoProxyError(c, http.StatusTooManyRequests,
				i18n.GetErrorMessage(xerrors.CodeRateLimitExceeded, i18n.GetLanguage(ctx)))
		}
	}

	resp, err := h.upstream.Forward(ctx, ForwardRequest{
		Method:        req.Method,
		Path:          path,
		RawQuery:      req.URL.RawQuery,
		ContentType:   req.Header.Get(echo.HeaderContentType),
		Authorization: req.Header.Get(echo.HeaderAuthorization),
		Body:          body,
	})
	if err != nil {
		appErr := xerrors.NewExternalServiceError("auth-upstream", err).
			WithService("authproxy", path)
		log.LogAppError(ctx, h.logger, "认证服务请求失败", appErr)
		return response.EchoProxyError(c, http.StatusInternalServerError, errUpstreamFailed)
	}

	h.publishEvent(ctx, path, resp.Status)

	contentType := resp.ContentType
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Blob(resp.Status, contentType, resp.Body)
}

// publishEvent 登录结果和验证码发送写入 NATS；发布失败只记录日志
func (h *Handler) publishEvent(ctx context.Context, path string, status int) {
	if h.publisher == nil {
		return
	}

	success := status >= 200 && status < 300
	var subject string
	switch path {
	case pathLogin, pathVerifyOTP:
		subject = notify.SubjectLogin
	case pathSendOTP:
		if !success {
			return
		}
		subject = notify.SubjectOTPSent
	default:
		return
	}

	event := notify.AuthEvent{Path: path, Status: status, Success: success}
	if err := h.publisher.Publish(ctx, subject, event); err != nil {
		h.logger.Error("发布认证事件失败", err, log.String("subject", subject))
	}
}

func loginMethodOf(path string) (domain.LoginMethod, bool) {
	switch path {
	case pathLogin:
		return domain.MethodPassword, true
	case pathSendOTP, pathVerifyOTP:
		return domain.MethodOTP, true
	default:
		return "", false
	}
}

func readBody(body io.ReadCloser) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxRequestBody+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxRequestBody {
		return nil, xerrors.New(xerrors.CodeInvalidRequest, "request body too large")
	}
	return raw, nil
}

// phoneFromBody 解析失败时返回空串，只按 IP 计数
func phoneFromBody(body []byte) string {
	var payload struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.PhoneNumber)
}
