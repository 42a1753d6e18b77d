package throttle

import (
	"context"

	"chatcrm/internal/pkg/log"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSpec 内存限流过期窗口的清理周期
const DefaultSweepSpec = "@every 1m"

// SweepTask 定时清理 MemoryLimiter 中的过期窗口。
// 写入路径只在条目超过阈值时清理，低流量时靠它回收内存
type SweepTask struct {
	limiter *MemoryLimiter
	spec    string
	logger  log.Logger
	cron    *cron.Cron
}

// NewSweepTask spec 为空时使用 DefaultSweepSpec
func NewSweepTask(limiter *MemoryLimiter, spec string, logger log.Logger) *SweepTask {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &SweepTask{
		limiter: limiter,
		spec:    spec,
		logger:  logger.With("component", "throttle_sweep"),
	}
}

// Start 注册并启动调度器
func (t *SweepTask) Start() error {
	t.cron = cron.New()
	if _, err := t.cron.AddFunc(t.spec, t.Run); err != nil {
		return err
	}
	t.cron.Start()
	t.logger.Info("限流窗口清理任务已启动", log.String("spec", t.spec))
	return nil
}

// Stop 停止调度并等待正在执行的清理结束
func (t *SweepTask) Stop(ctx context.Context) {
	if t.cron == nil {
		return
	}
	select {
	case <-t.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run 执行一次清理
func (t *SweepTask) Run() {
	if removed := t.limiter.Sweep(); removed > 0 {
		t.logger.Debug("已清理过期限流窗口",
			log.Int("removed", removed),
			log.Int("remaining", t.limiter.Len()))
	}
}
