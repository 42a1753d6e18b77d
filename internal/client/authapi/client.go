// Package authapi 通过 /api/auth 代理访问认证服务
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "chatcrm/internal/domain/signin"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/trace"
	"chatcrm/internal/pkg/xerrors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTimeout 单次请求超时
	DefaultTimeout = 10 * time.Second

	serviceName = "authapi"

	pathLogin     = "/api/auth/login"
	pathSendOTP   = "/api/auth/send-otp"
	pathVerifyOTP = "/api/auth/verify-otp"

	// maxErrorBody 错误响应只读取前 4KB
	maxErrorBody = 4 << 10
)

// Client AuthAPI 的 HTTP 实现
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     log.Logger
}

// Option 客户端配置项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBearerToken 每个请求附带 Authorization: Bearer
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New 创建客户端，baseURL 为代理地址（例如 http://localhost:8080）
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     log.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", serviceName)
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// LoginWithPassword 邮箱密码登录
func (c *Client) LoginWithPassword(ctx context.Context, email, password string) (*domain.UserSession, error) {
	var resp sessionResponse
	if err := c.post(ctx, pathLogin, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return toSession(resp)
}

// SendOTP 向完整手机号发送验证码
func (c *Client) SendOTP(ctx context.Context, phoneNumber string) error {
	return c.post(ctx, pathSendOTP, sendOTPRequest{PhoneNumber: phoneNumber}, nil)
}

// VerifyOTP 校验验证码并登录
func (c *Client) VerifyOTP(ctx context.Context, phoneNumber, otp string) (*domain.UserSession, error) {
	var resp sessionResponse
	if err := c.post(ctx, pathVerifyOTP, verifyOTPRequest{PhoneNumber: phoneNumber, OTP: otp}, &resp); err != nil {
		return nil, err
	}
	return toSession(resp)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return xerrors.NewWithError(xerrors.CodeInvalidRequest, "encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return xerrors.NewWithError(xerrors.CodeInvalidRequest, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	trace.Inject(ctx, req.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "认证服务请求失败",
			log.String("path", path),
			log.Duration("elapsed", time.Since(start)),
			log.String("error", err.Error()))
		return xerrors.NewExternalServiceError(serviceName, err).
			WithService(serviceName, path)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "认证服务响应",
		log.String("path", path),
		log.Int("status", resp.StatusCode),
		log.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, path)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return xerrors.NewExternalServiceError(serviceName, fmt.Errorf("decode %s response: %w", path, err)).
			WithService(serviceName, path)
	}
	return nil
}

// statusError 非 2xx 映射为 AppError
func statusError(resp *http.Response, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := upstreamMessage(raw)

	var appErr *xerrors.AppError
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		appErr = xerrors.NewInvalidCredentialsError(resp.StatusCode, msg)
	case http.StatusTooManyRequests:
		appErr = xerrors.NewRateLimitError(path).
			WithMetadata("status_code", resp.StatusCode).
			WithMetadata("upstream_message", msg)
	default:
		appErr = xerrors.NewUpstreamError(serviceName, resp.StatusCode, msg)
	}
	return appErr.WithService(serviceName, path)
}

func upstreamMessage(raw []byte) string {
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

// toSession 用户对象缺少 id 时从 JWT 的 sub 补齐，过期时间取 exp。
// 这里不校验签名，签名由服务端负责
func toSession(resp sessionResponse) (*domain.UserSession, error) {
	if resp.Token == "" {
		return nil, xerrors.NewExternalServiceError(serviceName, errors.New("response missing token"))
	}

	session := &domain.UserSession{
		Token:  resp.Token,
		UserID: resp.User.ID,
		Email:  resp.User.Email,
		Name:   resp.User.Name,
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.Token, &claims); err != nil {
		// 不透明 token
		return session, nil
	}
	if session.UserID == "" {
		session.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
