// Package notify 把认证事件发布到 NATS，没有连接时静默降级。
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatcrm/internal/pkg/metrics"
	"chatcrm/internal/pkg/trace"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Default subjects
const (
	SubjectLogin   = "auth.login"
	SubjectOTPSent = "auth.otp.sent"
)

// AuthEvent 代理观察到的一次认证调用结果
type AuthEvent struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Status  int       `json:"status"`
	Success bool      `json:"success"`
	TraceID string    `json:"trace_id,omitempty"`
	At      time.Time `json:"at"`
}

// Conn 发布所需的最小 NATS 能力
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher 事件发布器，conn 在创建后不变，可并发使用
type Publisher struct {
	conn    Conn
	metrics *metrics.ProxyMetrics
}

// NewPublisher conn 可为 nil
func NewPublisher(conn Conn, m *metrics.ProxyMetrics) *Publisher {
	if m == nil {
		m = metrics.DefaultProxyMetrics
	}
	return &Publisher{conn: normalizeConn(conn), metrics: m}
}

// normalizeConn 把 (*nats.Conn)(nil) 视为未连接
func normalizeConn(conn Conn) Conn {
	if nc, ok := conn.(*nats.Conn); ok && nc == nil {
		return nil
	}
	return conn
}

// Connect 连接 NATS；url 为空返回 nil 连接
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("chatcrm-authproxy"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// Publish 发布认证事件，补全 ID / TraceID / At
func (p *Publisher) Publish(ctx context.Context, subject string, event AuthEvent) error {
	conn := p.conn
	if conn == nil {
		p.metrics.IncEvent(subject, "skipped")
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.TraceID == "" {
		event.TraceID = trace.GetTraceID(ctx)
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.metrics.IncEvent(subject, "error")
		return fmt.Errorf("marshal auth event failed: %w", err)
	}
	if err := conn.Publish(subject, data); err != nil {
		p.metrics.IncEvent(subject, "error")
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.metrics.IncEvent(subject, "published")
	return nil
}
