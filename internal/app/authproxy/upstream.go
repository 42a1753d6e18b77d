package authproxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/trace"
)

const (
	// DefaultUpstreamTimeout 上游单次请求超时
	DefaultUpstreamTimeout = 10 * time.Second

	// maxUpstreamBody 上游响应体上限 1MB
	maxUpstreamBody = 1 << 20
)

// ErrUpstreamBodyTooLarge 上游响应体超过 maxUpstreamBody，不做截断转发
var ErrUpstreamBodyTooLarge = errors.New("upstream body too large")

// ForwardRequest 需要转发给认证服务的请求
type ForwardRequest struct {
	Method        string
	Path          string // /api/auth/ 之后的部分，例如 "login"
	RawQuery      string
	ContentType   string
	Authorization string
	Body          []byte
}

// ForwardResponse 上游原样返回的内容
type ForwardResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Upstream 封装与认证服务的 HTTP 交互
type Upstream struct {
	baseURL string
	client  *http.Client
	metrics *metrics.ProxyMetrics
	logger  log.Logger
}

// NewUpstream baseURL 形如 https://auth.example.com，转发到 {baseURL}/auth/{path}
func NewUpstream(baseURL string, timeout time.Duration, m *metrics.ProxyMetrics, logger log.Logger) *Upstream {
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	if m == nil {
		m = metrics.DefaultProxyMetrics
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Upstream{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		logger:  logger.With("component", "authproxy_upstream"),
	}
}

// URL 拼接上游地址
func (u *Upstream) URL(path, rawQuery string) string {
	target := u.baseURL + "/auth/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// Forward 转发请求；只有网络层失败才返回 error，任何状态码都原样返回
func (u *Upstream) Forward(ctx context.Context, fr ForwardRequest) (*ForwardResponse, error) {
	var body io.Reader
	if len(fr.Body) > 0 {
		body = bytes.NewReader(fr.Body)
	}

	req, err := http.NewRequestWithContext(ctx, fr.Method, u.URL(fr.Path, fr.RawQuery), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	contentType := fr.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	if fr.Authorization != "" {
		req.Header.Set("Authorization", fr.Authorization)
	}
	trace.Inject(ctx, req.Header)

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		u.metrics.IncUpstreamError(fr.Path, failureReason(err))
		return nil, fmt.Errorf("upstream %s %s: %w", fr.Method, fr.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody+1))
	if err != nil {
		u.metrics.IncUpstreamError(fr.Path, "read_body")
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	if len(raw) > maxUpstreamBody {
		u.metrics.IncUpstreamError(fr.Path, "body_too_large")
		return nil, fmt.Errorf("upstream %s %s: %w", fr.Method, fr.Path, ErrUpstreamBodyTooLarge)
	}

	elapsed := time.Since(start)
	u.metrics.RecordUpstream(fr.Path, resp.StatusCode, elapsed)
	u.logger.DebugContext(ctx, "上游响应",
		log.String("path", fr.Path),
		log.Int("status", resp.StatusCode),
		log.Duration("elapsed", elapsed))

	return &ForwardResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			return "timeout"
		}
		return "transport"
	}
}
