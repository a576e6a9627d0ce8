package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"
	"okx-chandelier-sentry/internal/database"
	"okx-chandelier-sentry/internal/engine"
)

// PerformanceMonitor 策略运行监控器
// 定期输出引擎运行统计与最近24小时的翻转概况
type PerformanceMonitor struct {
	dbManager *database.Manager
	engine    *engine.ChandelierEngine

	ctx    context.Context
	cancel context.CancelFunc

	startTime time.Time
}

// NewPerformanceMonitor 创建监控器（dbManager可以为nil）
func NewPerformanceMonitor(dbManager *database.Manager, eng *engine.ChandelierEngine) *PerformanceMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &PerformanceMonitor{
		dbManager: dbManager,
		engine:    eng,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Start 启动监控
func (pm *PerformanceMonitor) Start() {
	zap.L().Info("📊 启动策略运行监控器")
	go pm.reportLoop()
}

// reportLoop 报告循环
func (pm *PerformanceMonitor) reportLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-pm.ctx.Done():
			return
		case <-ticker.C:
			pm.generateReport()
		}
	}
}

// generateReport 输出运行报告
func (pm *PerformanceMonitor) generateReport() {
	stats := pm.engine.GetStats()

	zap.L().Info("📈 策略引擎运行统计",
		zap.Duration("uptime", time.Since(pm.startTime).Round(time.Second)),
		zap.Any("stats", stats))

	if pm.dbManager == nil {
		return
	}

	total, long, short, err := pm.dbManager.CountFlipsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		zap.L().Error("统计翻转信号失败", zap.Error(err))
		return
	}

	zap.L().Info("📊 最近24小时翻转概况",
		zap.Int64("total", total),
		zap.Int64("long", long),
		zap.Int64("short", short))
}

// Stop 停止监控
func (pm *PerformanceMonitor) Stop() {
	pm.cancel()
	zap.L().Info("📴 策略运行监控器已停止")
}
