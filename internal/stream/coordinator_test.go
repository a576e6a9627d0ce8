package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"okx-chandelier-sentry/pkg/types"
)

// fakeNotifier 捕获发送文本的测试替身
type fakeNotifier struct {
	messages []string
	err      error
}

func (fn *fakeNotifier) Send(text string) error {
	fn.messages = append(fn.messages, text)
	return fn.err
}

func risingCandles(n int, start float64) []types.Candle {
	candles := make([]types.Candle, n)
	for i := range candles {
		c := start + float64(i)
		candles[i] = types.Candle{
			Time:  int64(i+1) * 60_000,
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return candles
}

func newTestCoordinator(fn *fakeNotifier) *Coordinator {
	cfg := types.StreamConfig{
		Symbol:        "ETH-USDT",
		Interval:      "15m",
		AtrMultiplier: 3.0,
		HeikinAshi:    false,
	}
	return NewCoordinator(cfg, fn, nil, time.UTC)
}

func TestBootstrapEstablishesBaselineWithoutAlert(t *testing.T) {
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)

	sc.Bootstrap(risingCandles(24, 100))

	assert.Equal(t, 1, sc.LastDirection())
	assert.Equal(t, 24, sc.BufferLen())
	assert.Empty(t, fn.messages, "基准方向不触发预警")
}

func TestBootstrapWithShortHistory(t *testing.T) {
	// 历史不足ATR周期：正常初始化，基准趋势维持初始多头
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)

	sc.Bootstrap(risingCandles(10, 100))

	assert.Equal(t, 1, sc.LastDirection())
	assert.Equal(t, 10, sc.BufferLen())
	assert.Empty(t, fn.messages)
}

func TestFlipDispatchesExactlyOneAlert(t *testing.T) {
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)
	sc.Bootstrap(risingCandles(24, 100)) // 收盘价 100..123，基准多头

	// 暴跌K线收盘跌破调整多头止损 → 翻空
	sc.OnCandleEvent(&types.CandleEvent{
		Symbol:    "ETH-USDT",
		Interval:  "15m",
		Candle:    types.Candle{Time: 25 * 60_000, Open: 123, High: 123.5, Low: 89, Close: 90},
		Confirmed: true,
	})

	require.Len(t, fn.messages, 1)
	assert.Equal(t, -1, sc.LastDirection())
	assert.Contains(t, fn.messages[0], "🟥")
	assert.Contains(t, fn.messages[0], "📉")
	assert.Contains(t, fn.messages[0], "$90.00")
	assert.Contains(t, fn.messages[0], "ETH 15m (J3)")
}

func TestNoAlertWithoutFlip(t *testing.T) {
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)
	sc.Bootstrap(risingCandles(24, 100))

	sc.OnCandleEvent(&types.CandleEvent{
		Symbol:    "ETH-USDT",
		Interval:  "15m",
		Candle:    types.Candle{Time: 25 * 60_000, Open: 123, High: 125, Low: 123, Close: 124},
		Confirmed: true,
	})

	assert.Empty(t, fn.messages, "趋势未翻转不应产生预警")
}

func TestContinuedTrendAfterFlipStaysQuiet(t *testing.T) {
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)
	sc.Bootstrap(risingCandles(24, 100))

	sc.OnCandleEvent(&types.CandleEvent{
		Symbol: "ETH-USDT", Interval: "15m", Confirmed: true,
		Candle: types.Candle{Time: 25 * 60_000, Open: 123, High: 123.5, Low: 89, Close: 90},
	})
	require.Len(t, fn.messages, 1)

	// 继续下跌：方向仍为空头，无新翻转
	sc.OnCandleEvent(&types.CandleEvent{
		Symbol: "ETH-USDT", Interval: "15m", Confirmed: true,
		Candle: types.Candle{Time: 26 * 60_000, Open: 90, High: 91, Low: 87, Close: 88},
	})

	assert.Len(t, fn.messages, 1)
}

func TestDedupSuppressesRepeatedDirection(t *testing.T) {
	// 去重法则：落在已预警方向上的翻转不再发送
	sc := newTestCoordinator(&fakeNotifier{})

	require.True(t, sc.shouldAlert(1), "尚未发过预警时任何方向都可发送")

	sc.recordAlert(1)
	assert.False(t, sc.shouldAlert(1), "与上次发出方向相同的翻转被抑制")
	assert.True(t, sc.shouldAlert(-1))

	sc.recordAlert(-1)
	assert.False(t, sc.shouldAlert(-1))
	assert.True(t, sc.shouldAlert(1))
}

func TestUnconfirmedEventIgnored(t *testing.T) {
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)
	sc.Bootstrap(risingCandles(24, 100))

	sc.OnCandleEvent(&types.CandleEvent{
		Symbol: "ETH-USDT", Interval: "15m", Confirmed: false,
		Candle: types.Candle{Time: 25 * 60_000, Open: 123, High: 123.5, Low: 89, Close: 90},
	})

	assert.Equal(t, 24, sc.BufferLen(), "未收盘K线不得进入窗口")
	assert.Empty(t, fn.messages)
}

func TestAlertSentEvenWhenRecorderMissing(t *testing.T) {
	// recorder为nil时预警照常发送，只是不落库
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)
	sc.Bootstrap(risingCandles(24, 100))

	sc.OnCandleEvent(&types.CandleEvent{
		Symbol: "ETH-USDT", Interval: "15m", Confirmed: true,
		Candle: types.Candle{Time: 25 * 60_000, Open: 123, High: 123.5, Low: 89, Close: 90},
	})

	assert.Len(t, fn.messages, 1)
}

func TestFormatMessageHeavyVariant(t *testing.T) {
	cfg := types.StreamConfig{
		Symbol:        "BTC-USDT",
		Interval:      "4H",
		AtrMultiplier: 4.0,
		HeikinAshi:    true,
	}
	sc := NewCoordinator(cfg, &fakeNotifier{}, nil, time.UTC)

	long := sc.FormatMessage(&types.FlipAlert{
		Symbol: "BTC-USDT", Interval: "4H", Direction: 1,
		Price: 65000.5, AtrMult: 4.0, HeikinAshi: true,
		AlertTime: time.Unix(0, 0).UTC(),
	})
	assert.Contains(t, long, "🟢🟢")
	assert.Contains(t, long, "🚀")
	assert.Contains(t, long, "BTC 4H (HA)")
	assert.Contains(t, long, "$65000.50")

	short := sc.FormatMessage(&types.FlipAlert{
		Symbol: "BTC-USDT", Interval: "4H", Direction: -1,
		Price: 65000.5, AtrMult: 4.0, HeikinAshi: true,
		AlertTime: time.Unix(0, 0).UTC(),
	})
	assert.Contains(t, short, "🔴🔴")
	assert.Contains(t, short, "🔻")
}

func TestStatsReadsDuringLiveUpdates(t *testing.T) {
	// 监控统计从其他协程读取方向与窗口长度，与本流的K线处理并发
	// 在-race下验证两者不冲突
	fn := &fakeNotifier{}
	sc := newTestCoordinator(fn)
	sc.Bootstrap(risingCandles(24, 100))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			c := 124.0 + float64(i)
			sc.OnCandleEvent(&types.CandleEvent{
				Symbol: "ETH-USDT", Interval: "15m", Confirmed: true,
				Candle: types.Candle{Time: int64(25+i) * 60_000, Open: c, High: c + 1, Low: c - 1, Close: c},
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = sc.LastDirection()
			_ = sc.BufferLen()
		}
	}()

	wg.Wait()
	assert.Equal(t, 1, sc.LastDirection())
}

func TestHeikinAshiAlertReportsMarketClose(t *testing.T) {
	// Heikin Ashi流的预警价格使用真实收盘价，而不是合成蜡烛的收盘价——
	// 合成价格在交易所并不存在，消息里报出来没有意义
	cfg := types.StreamConfig{
		Symbol:        "ETH-USDT",
		Interval:      "5m",
		AtrMultiplier: 3.0,
		HeikinAshi:    true,
	}
	fn := &fakeNotifier{}
	sc := NewCoordinator(cfg, fn, nil, time.UTC)
	sc.Bootstrap(risingCandles(24, 100))
	require.Equal(t, 1, sc.LastDirection())

	// 合成收盘价为 (123+123.5+89+90)/4 = 106.375，跌破调整多头止损翻空；
	// 预警报出的是真实收盘价90
	sc.OnCandleEvent(&types.CandleEvent{
		Symbol: "ETH-USDT", Interval: "5m", Confirmed: true,
		Candle: types.Candle{Time: 25 * 60_000, Open: 123, High: 123.5, Low: 89, Close: 90},
	})

	require.Len(t, fn.messages, 1)
	assert.Contains(t, fn.messages[0], "$90.00")
	assert.Contains(t, fn.messages[0], "(HA)")
	assert.NotContains(t, fn.messages[0], "106.37")
}

func TestHeikinAshiStreamUsesTransformedWindow(t *testing.T) {
	cfg := types.StreamConfig{
		Symbol:        "ETH-USDT",
		Interval:      "5m",
		AtrMultiplier: 4.0,
		HeikinAshi:    true,
	}
	fn := &fakeNotifier{}
	sc := NewCoordinator(cfg, fn, nil, time.UTC)

	sc.Bootstrap(risingCandles(24, 100))

	// Heikin Ashi流同样以多头基准启动
	assert.Equal(t, 1, sc.LastDirection())
	assert.Empty(t, fn.messages)
}
