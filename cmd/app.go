package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"okx-chandelier-sentry/internal/database"
	"okx-chandelier-sentry/internal/engine"
	"okx-chandelier-sentry/internal/monitor"
	"okx-chandelier-sentry/internal/notifier"
	"okx-chandelier-sentry/pkg/types"
)

// App 应用程序管理器
type App struct {
	config *types.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp 创建应用程序实例
func NewApp(config *types.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动应用程序
func (app *App) Start() {
	zap.L().Info("🚀 OKX Chandelier Sentry 启动中...")

	if app.config.Strategy.Chandelier.Enabled {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.startChandelierStrategy()
		}()
	}

	zap.L().Info("✅ OKX Chandelier Sentry 已启动")
}

// Stop 停止应用程序
func (app *App) Stop() {
	zap.L().Info("🛑 收到停止信号，正在优雅关闭...")
	app.cancel()

	// 等待所有goroutine结束，最多等待30秒
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("✅ OKX Chandelier Sentry 已安全关闭")
	case <-time.After(30 * time.Second):
		zap.L().Warn("⚠️ 强制关闭超时")
	}
}

// WaitForShutdown 等待关闭信号
func (app *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

// startChandelierStrategy 启动Chandelier Exit策略引擎
func (app *App) startChandelierStrategy() {
	zap.L().Info("📈 启动Chandelier Exit策略引擎")

	// 根据配置选择通知服务（优先级：Telegram > Discord > 控制台）
	var notifyService notifier.Interface
	if app.config.Telegram.BotToken != "" {
		notifyService = notifier.NewTelegramNotifier(app.config.Telegram.BotToken, app.config.Telegram.ChatID)
	} else if app.config.Discord.WebhookURL != "" {
		notifyService = notifier.NewDiscordNotifier(app.config.Discord.WebhookURL)
	} else {
		notifyService = notifier.NewConsoleNotifier()
	}

	// 预警消息使用的本地时区
	location, err := time.LoadLocation(app.config.Alert.Timezone)
	if err != nil {
		zap.L().Warn("⚠️ 时区配置无效，使用系统本地时区",
			zap.String("timezone", app.config.Alert.Timezone),
			zap.Error(err))
		location = time.Local
	}

	// 数据库可选：未配置MySQL时信号不落库
	var dbManager *database.Manager
	if app.config.Database.MySQL.Host != "" {
		dbManager, err = database.NewManager(app.config.Database.MySQL)
		if err != nil {
			zap.L().Error("❌ 连接数据库失败，信号将不落库", zap.Error(err))
			dbManager = nil
		}
	}

	// 创建WebSocket配置
	wsConfig := types.WebSocketConfig{
		OKXEndpoint:       "wss://ws.okx.com:8443/ws/v5/public",
		ReconnectInterval: 5 * time.Second,
		PingInterval:      20 * time.Second,
	}

	// 创建策略引擎
	strategyEngine := engine.NewChandelierEngine(
		app.config.Strategy.Chandelier,
		wsConfig,
		app.config.Network,
		notifyService,
		dbManager,
		location,
	)

	// 启动策略引擎
	if err := strategyEngine.Start(); err != nil {
		zap.L().Error("❌ 启动Chandelier策略引擎失败", zap.Error(err))
		return
	}

	// 创建运行监控器
	performanceMonitor := monitor.NewPerformanceMonitor(dbManager, strategyEngine)
	performanceMonitor.Start()

	// 等待上下文取消
	<-app.ctx.Done()

	zap.L().Info("🛑 停止Chandelier Exit策略引擎")

	// 停止运行监控
	performanceMonitor.Stop()

	// 停止策略引擎
	if err := strategyEngine.Stop(); err != nil {
		zap.L().Error("❌ 停止策略引擎失败", zap.Error(err))
	}
}
