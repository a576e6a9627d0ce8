package main

import (
	"log"

	"okx-chandelier-sentry/pkg/config"
	"okx-chandelier-sentry/pkg/logger"
)

func main() {
	// 加载配置（配置层是唯一允许致命错误的地方）
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}

	// 初始化日志
	logger.Init(cfg.Log)

	// 启动应用
	app := NewApp(cfg)
	app.Start()

	// 等待中断信号
	app.WaitForShutdown()

	// 优雅关闭
	app.Stop()
}
