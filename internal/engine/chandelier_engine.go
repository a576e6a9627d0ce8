package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"okx-chandelier-sentry/internal/database"
	"okx-chandelier-sentry/internal/exchange/history"
	exws "okx-chandelier-sentry/internal/exchange/websocket"
	"okx-chandelier-sentry/internal/notifier"
	"okx-chandelier-sentry/internal/series"
	"okx-chandelier-sentry/internal/stream"
	"okx-chandelier-sentry/pkg/types"
)

// ChandelierEngine Chandelier Exit策略引擎（流监督器）
// 每个配置的流对应一个独立goroutine：先完成历史初始化，再进入实时订阅；
// 流之间不共享任何可变状态，传输失败以固定间隔无限重连，重连不重建K线窗口
type ChandelierEngine struct {
	config         types.ChandelierConfig
	wsConfig       types.WebSocketConfig
	network        types.NetworkConfig
	notify         notifier.Interface
	dbManager      *database.Manager
	historyFetcher *history.Fetcher
	location       *time.Location

	coordinators []*stream.Coordinator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// 统计
	processedCandles int64
	reconnects       int64
	statsMutex       sync.RWMutex
}

// NewChandelierEngine 创建策略引擎
// dbManager可以为nil（未配置MySQL时信号不落库）
func NewChandelierEngine(
	config types.ChandelierConfig,
	wsConfig types.WebSocketConfig,
	network types.NetworkConfig,
	notify notifier.Interface,
	dbManager *database.Manager,
	location *time.Location,
) *ChandelierEngine {
	ctx, cancel := context.WithCancel(context.Background())

	return &ChandelierEngine{
		config:         config,
		wsConfig:       wsConfig,
		network:        network,
		notify:         notify,
		dbManager:      dbManager,
		historyFetcher: history.NewFetcher(network.Proxy, network.Timeout),
		location:       location,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start 启动策略引擎：逐流初始化历史数据，随后进入实时订阅
func (ce *ChandelierEngine) Start() error {
	if !ce.config.Enabled {
		zap.L().Info("🚫 Chandelier Exit策略未启用")
		return nil
	}

	zap.L().Info("🚀 启动Chandelier Exit策略引擎",
		zap.Int("streams", len(ce.config.Streams)))

	// 1. 批量拉取历史K线，同一 (symbol, interval) 共享一次请求
	historyData, err := ce.historyFetcher.FetchMultipleStreams(ce.config.Streams, series.DefaultCapacity)
	if err != nil {
		return err
	}

	// 2. 创建并初始化各流协调器
	// 历史拉取失败的流以空窗口启动，趋势会随实时K线积累逐渐成型
	var recorder stream.Recorder
	if ce.dbManager != nil {
		recorder = ce.dbManager
	}
	for _, sc := range ce.config.Streams {
		coord := stream.NewCoordinator(sc, ce.notify, recorder, ce.location)
		coord.Bootstrap(historyData[sc.Symbol+"/"+sc.Interval])
		ce.coordinators = append(ce.coordinators, coord)
	}

	// 3. 每个流启动独立的订阅协程（初始化完成后才进入实时阶段）
	for _, coord := range ce.coordinators {
		ce.wg.Add(1)
		go ce.runStream(coord)
	}

	zap.L().Info("✅ Chandelier Exit策略引擎启动成功")
	return nil
}

// runStream 单个流的订阅主循环：断线后固定间隔重连，永不放弃
// K线窗口归协调器持有，重连只重建传输层
func (ce *ChandelierEngine) runStream(coord *stream.Coordinator) {
	defer ce.wg.Done()

	cfg := coord.Config()
	reconnectInterval := ce.wsConfig.ReconnectInterval
	if reconnectInterval <= 0 {
		reconnectInterval = 5 * time.Second
	}

	for {
		select {
		case <-ce.ctx.Done():
			return
		default:
		}

		client := exws.NewClient(cfg.Symbol, cfg.Interval, ce.network.Proxy, ce.wsConfig)
		if err := client.Connect(); err != nil {
			zap.L().Error("🔁 连接失败，稍后重连",
				zap.String("symbol", cfg.Symbol),
				zap.String("interval", cfg.Interval),
				zap.Duration("retry_in", reconnectInterval),
				zap.Error(err))
			ce.incrementReconnects()
			if !ce.sleepInterruptible(reconnectInterval) {
				return
			}
			continue
		}

		// 本次连接的心跳与关闭监视，连接退出后一并回收
		connCtx, connCancel := context.WithCancel(ce.ctx)
		client.StartPing(connCtx)
		go func() {
			<-connCtx.Done()
			client.Close()
		}()

		ce.consumeFeed(client, coord)
		connCancel()

		select {
		case <-ce.ctx.Done():
			return
		default:
			zap.L().Warn("🔁 连接中断，准备重连",
				zap.String("symbol", cfg.Symbol),
				zap.String("interval", cfg.Interval),
				zap.Duration("retry_in", reconnectInterval))
			ce.incrementReconnects()
			if !ce.sleepInterruptible(reconnectInterval) {
				return
			}
		}
	}
}

// consumeFeed 同步消费一条连接上的K线事件，保证单流内严格按到达顺序处理
func (ce *ChandelierEngine) consumeFeed(client *exws.Client, coord *stream.Coordinator) {
	for {
		events, err := client.ReadEvents()
		if err != nil {
			select {
			case <-ce.ctx.Done():
			default:
				zap.L().Error("读取K线事件失败", zap.Error(err))
			}
			return
		}

		for _, ev := range events {
			coord.OnCandleEvent(ev)
			ce.incrementCandleCount()
		}
	}
}

// sleepInterruptible 可被关停打断的等待，返回false表示引擎已停止
func (ce *ChandelierEngine) sleepInterruptible(d time.Duration) bool {
	select {
	case <-ce.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// incrementCandleCount 增加K线事件计数
func (ce *ChandelierEngine) incrementCandleCount() {
	ce.statsMutex.Lock()
	ce.processedCandles++
	ce.statsMutex.Unlock()
}

// incrementReconnects 增加重连计数
func (ce *ChandelierEngine) incrementReconnects() {
	ce.statsMutex.Lock()
	ce.reconnects++
	ce.statsMutex.Unlock()
}

// GetStats 获取引擎运行统计
func (ce *ChandelierEngine) GetStats() map[string]interface{} {
	ce.statsMutex.RLock()
	processedCandles := ce.processedCandles
	reconnects := ce.reconnects
	ce.statsMutex.RUnlock()

	bufferSizes := make(map[string]int)
	directions := make(map[string]int)
	for _, coord := range ce.coordinators {
		cfg := coord.Config()
		key := cfg.Symbol + "/" + cfg.Interval + "/" + cfg.CandleKind()
		bufferSizes[key] = coord.BufferLen()
		directions[key] = coord.LastDirection()
	}

	return map[string]interface{}{
		"enabled":           ce.config.Enabled,
		"streams":           len(ce.coordinators),
		"processed_candles": processedCandles,
		"reconnects":        reconnects,
		"buffer_sizes":      bufferSizes,
		"directions":        directions,
	}
}

// GetDatabaseManager 获取数据库管理器（可能为nil）
func (ce *ChandelierEngine) GetDatabaseManager() *database.Manager {
	return ce.dbManager
}

// Stop 停止策略引擎
func (ce *ChandelierEngine) Stop() error {
	zap.L().Info("🛑 停止Chandelier Exit策略引擎")

	ce.cancel()

	// 等待所有流协程结束
	done := make(chan struct{})
	go func() {
		ce.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("✅ 所有流协程已停止")
	case <-time.After(30 * time.Second):
		zap.L().Warn("⚠️ 停止超时，强制退出")
	}

	// 关闭数据库连接
	if ce.dbManager != nil {
		if err := ce.dbManager.Close(); err != nil {
			zap.L().Error("关闭数据库连接失败", zap.Error(err))
		}
	}

	zap.L().Info("✅ Chandelier Exit策略引擎已停止")
	return nil
}
