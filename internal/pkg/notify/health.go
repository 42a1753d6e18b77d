package notify

import (
	"context"
	"sync"
	"time"
)

// Status 事件总线状态，用于 /health
type Status string

const (
	StatusDisabled Status = "disabled"
	StatusUp       Status = "up"
	StatusDown     Status = "down"
)

// ConnState 健康检查需要的连接状态
type ConnState interface {
	IsConnected() bool
	IsClosed() bool
}

// HealthChecker 周期性检查 NATS 连接，未配置连接时始终为 disabled
type HealthChecker struct {
	conn     ConnState
	interval time.Duration

	mu     sync.RWMutex
	status Status
	stopCh chan struct{}
	once   sync.Once
}

// NewHealthChecker conn 为 nil 表示未启用
func NewHealthChecker(conn ConnState, interval time.Duration) *HealthChecker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	hc := &HealthChecker{
		conn:     conn,
		interval: interval,
		status:   StatusDisabled,
		stopCh:   make(chan struct{}),
	}
	if conn != nil {
		hc.check()
	}
	return hc
}

// Start 阻塞运行直到 ctx 结束或 Stop
func (hc *HealthChecker) Start(ctx context.Context) {
	if hc.conn == nil {
		return
	}

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hc.stopCh:
			return
		case <-ticker.C:
			hc.check()
		}
	}
}

// Stop 可重复调用
func (hc *HealthChecker) Stop() {
	hc.once.Do(func() { close(hc.stopCh) })
}

// Status 最近一次检查结果
func (hc *HealthChecker) Status() Status {
	if hc == nil {
		return StatusDisabled
	}
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.status
}

func (hc *HealthChecker) check() {
	status := StatusDown
	if hc.conn.IsConnected() && !hc.conn.IsClosed() {
		status = StatusUp
	}

	hc.mu.Lock()
	hc.status = status
	hc.mu.Unlock()
}
