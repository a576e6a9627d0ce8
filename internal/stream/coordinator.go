package stream

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"okx-chandelier-sentry/internal/indicators"
	"okx-chandelier-sentry/internal/notifier"
	"okx-chandelier-sentry/internal/series"
	"okx-chandelier-sentry/pkg/types"
)

// Recorder 翻转信号落库接口（可选，nil时不落库）
type Recorder interface {
	SaveFlipSignal(alert *types.FlipAlert) error
}

// Coordinator 单个流的协调器
// 状态机：Bootstrapping → Live。持有本流独占的K线窗口与去重状态，
// K线处理只在本流的goroutine内进行；监控统计会从其他协程读取
// 窗口长度与方向，这两处跨协程状态由bufferMutex保护
type Coordinator struct {
	config   types.StreamConfig
	series   *series.Series
	calc     *indicators.ChandelierCalculator
	notify   notifier.Interface
	recorder Recorder
	location *time.Location

	bufferMutex  sync.RWMutex // 保护series与lastDir
	bootstrapped bool
	lastDir      int // 最近一次计算出的方向
	lastAlertDir int // 最近一次实际发出预警的方向，0表示尚未发过
}

// NewCoordinator 创建流协调器
func NewCoordinator(config types.StreamConfig, notify notifier.Interface, recorder Recorder, location *time.Location) *Coordinator {
	if location == nil {
		location = time.Local
	}
	return &Coordinator{
		config:   config,
		series:   series.New(series.DefaultCapacity),
		calc:     indicators.NewChandelierCalculator(indicators.DefaultATRPeriod),
		notify:   notify,
		recorder: recorder,
		location: location,
	}
}

// Bootstrap 用历史K线初始化窗口并记录基准方向
// 基准方向本身不触发预警——没有更早的方向可以对比；
// 历史不足ATR周期也不是错误，趋势会保持初始多头直到数据积累足够
func (sc *Coordinator) Bootstrap(history []types.Candle) {
	sc.bufferMutex.Lock()
	for _, c := range history {
		sc.series.Append(c)
	}

	result := sc.calc.Calculate(sc.transformedWindow(), sc.config.AtrMultiplier)
	sc.lastDir = result.LastTrend()
	sc.bootstrapped = true

	candles, baseline := sc.series.Len(), sc.lastDir
	sc.bufferMutex.Unlock()

	zap.L().Info("✅ 流初始化完成",
		zap.String("symbol", sc.config.Symbol),
		zap.String("interval", sc.config.Interval),
		zap.String("kind", sc.config.CandleKind()),
		zap.Int("candles", candles),
		zap.Int("baseline_dir", baseline))
}

// OnCandleEvent 处理一根收盘K线：入窗、全窗口重算、翻转检测、去重、发送预警
// 未收盘的推送直接忽略
func (sc *Coordinator) OnCandleEvent(ev *types.CandleEvent) {
	if !ev.Confirmed || !sc.bootstrapped {
		return
	}

	sc.bufferMutex.Lock()
	sc.series.Append(ev.Candle)

	result := sc.calc.Calculate(sc.transformedWindow(), sc.config.AtrMultiplier)
	if len(result.Trend) < 2 {
		sc.bufferMutex.Unlock()
		return
	}

	curr, prev := result.LastTrend(), result.PrevTrend()
	sc.lastDir = curr
	sc.bufferMutex.Unlock()

	if curr != prev && sc.shouldAlert(curr) {
		sc.dispatchAlert(ev.Candle, curr)
	}
}

// transformedWindow 按配置返回原始或Heikin Ashi窗口
// Heikin Ashi的合成开盘价链式依赖，必须每次对整个窗口重算
func (sc *Coordinator) transformedWindow() []types.Candle {
	candles := sc.series.Snapshot()
	if sc.config.HeikinAshi {
		return indicators.HeikinAshi(candles)
	}
	return candles
}

// shouldAlert 翻转去重：落在已预警方向上的翻转不再重复发送
// 对比对象是最后一次「发出」的方向，而不是最后一次「计算」的方向
func (sc *Coordinator) shouldAlert(dir int) bool {
	return dir != sc.lastAlertDir
}

// recordAlert 记录已预警方向
func (sc *Coordinator) recordAlert(dir int) {
	sc.lastAlertDir = dir
}

// dispatchAlert 构建并发送翻转预警
// 发送失败只记日志不重试；每个合格翻转恰好产生一次发送调用
func (sc *Coordinator) dispatchAlert(candle types.Candle, dir int) {
	alert := &types.FlipAlert{
		Symbol:     sc.config.Symbol,
		Interval:   sc.config.Interval,
		Direction:  dir,
		Price:      candle.Close,
		AtrMult:    sc.config.AtrMultiplier,
		HeikinAshi: sc.config.HeikinAshi,
		AlertTime:  candle.CloseTime(),
	}

	text := sc.FormatMessage(alert)

	if err := sc.notify.Send(text); err != nil {
		zap.L().Error("❌ 发送预警失败",
			zap.String("symbol", sc.config.Symbol),
			zap.String("interval", sc.config.Interval),
			zap.Error(err))
	} else {
		zap.L().Info("📨 预警已发送", zap.String("message", text))
	}
	sc.recordAlert(dir)

	// 异步落库，不阻塞本流的K线处理
	if sc.recorder != nil {
		go func() {
			if err := sc.recorder.SaveFlipSignal(alert); err != nil {
				zap.L().Error("保存翻转信号失败",
					zap.String("symbol", alert.Symbol),
					zap.Error(err))
			}
		}()
	}
}

// FormatMessage 生成预警文本
// 高周期大倍数的流使用加重符号，其余使用常规符号
func (sc *Coordinator) FormatMessage(alert *types.FlipAlert) string {
	baseSymbol := strings.TrimSuffix(alert.Symbol, "-USDT")
	localTime := alert.AlertTime.In(sc.location).Format("15:04")
	kind := sc.config.CandleKind()

	interval := strings.ToUpper(alert.Interval)
	if alert.AtrMult == 4.0 && (interval == "4H" || interval == "1D") {
		if alert.Direction == 1 {
			return fmt.Sprintf("🟢🟢 %s %s (%s) 🚀 $%.2f 🕒 %s", baseSymbol, alert.Interval, kind, alert.Price, localTime)
		}
		return fmt.Sprintf("🔴🔴 %s %s (%s) 🔻 $%.2f 🕒 %s", baseSymbol, alert.Interval, kind, alert.Price, localTime)
	}

	if alert.Direction == 1 {
		return fmt.Sprintf("🟩 %s %s (%s) 📈 $%.2f 🕒 %s", baseSymbol, alert.Interval, kind, alert.Price, localTime)
	}
	return fmt.Sprintf("🟥 %s %s (%s) 📉 $%.2f 🕒 %s", baseSymbol, alert.Interval, kind, alert.Price, localTime)
}

// Config 本流配置
func (sc *Coordinator) Config() types.StreamConfig {
	return sc.config
}

// LastDirection 最近一次计算出的方向
func (sc *Coordinator) LastDirection() int {
	sc.bufferMutex.RLock()
	defer sc.bufferMutex.RUnlock()
	return sc.lastDir
}

// BufferLen 当前窗口K线数量
func (sc *Coordinator) BufferLen() int {
	sc.bufferMutex.RLock()
	defer sc.bufferMutex.RUnlock()
	return sc.series.Len()
}
