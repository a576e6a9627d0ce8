package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"okx-chandelier-sentry/pkg/types"
)

// flipScenario 25根K线：前24根收盘价逐根上涨，最后一根暴跌
// 固定上下影线宽度，使ATR在整个上涨段稳定为2
func flipScenario() []types.Candle {
	candles := trendingCandles(24, 100, 1) // 收盘价 100..123
	crash := types.Candle{Time: 25 * 60_000, Open: 123, High: 123.5, Low: 89, Close: 90}
	return append(candles, crash)
}

func TestChandelierIdempotent(t *testing.T) {
	cc := NewChandelierCalculator(DefaultATRPeriod)
	candles := flipScenario()

	first := cc.Calculate(candles, 3.0)
	second := cc.Calculate(candles, 3.0)

	assert.Equal(t, first, second)
}

func TestChandelierSeedsLongWithShortInput(t *testing.T) {
	// K线数量不足ATR周期：止损序列保持0，趋势全程维持初始多头
	cc := NewChandelierCalculator(DefaultATRPeriod)
	result := cc.Calculate(trendingCandles(10, 100, 1), 3.0)

	require.Len(t, result.Trend, 10)
	for i, dir := range result.Trend {
		assert.Equal(t, 1, dir, "index %d", i)
	}
	for i := range result.LongStop {
		assert.Zero(t, result.LongStop[i], "index %d", i)
		assert.Zero(t, result.ShortStop[i], "index %d", i)
	}
}

func TestChandelierEmptyWindow(t *testing.T) {
	cc := NewChandelierCalculator(DefaultATRPeriod)
	result := cc.Calculate(nil, 3.0)
	assert.Empty(t, result.Trend)
}

func TestChandelierRatchetHoldsWhenPriceAboveStop(t *testing.T) {
	// 周期2、倍数1的三根K线：第三根原始多头止损跌破前值，
	// 但前收盘价仍在调整止损上方，棘轮应保持在较高位
	cc := NewChandelierCalculator(2)
	candles := []types.Candle{
		{Time: 1000, Open: 10, High: 11, Low: 9, Close: 10},
		{Time: 2000, Open: 10, High: 12, Low: 10, Close: 11},
		{Time: 3000, Open: 11, High: 11.05, Low: 8, Close: 9},
	}

	result := cc.Calculate(candles, 1.0)

	// i=1: atr=(2+2)/2=2，long_stop = max(10,11)-2 = 9；close[0]=10 > adj[0]=0 → 取max
	assert.InDelta(t, 9.0, result.LongStopAdj[1], 1e-12)
	// i=2: tr=3.05，atr=(2+3.05)/2=2.525，long_stop = max(11,9)-2.525 = 8.475
	assert.InDelta(t, 8.475, result.LongStop[2], 1e-12)
	// close[1]=11 > adj[1]=9 → 棘轮保持9，不随原始止损下移
	assert.InDelta(t, 9.0, result.LongStopAdj[2], 1e-12)
}

func TestChandelierRatchetResetsWhenPriceBreaksStop(t *testing.T) {
	// 前收盘价跌破调整止损后，棘轮失效，直接重置为原始止损值
	cc := NewChandelierCalculator(2)
	candles := []types.Candle{
		{Time: 1000, Open: 12, High: 12.5, Low: 11.5, Close: 12},
		{Time: 2000, Open: 12, High: 12, Low: 9.5, Close: 10},
		{Time: 3000, Open: 10, High: 10.5, Low: 9.5, Close: 10},
	}

	result := cc.Calculate(candles, 1.0)

	// i=1: tr1=2.5，atr=(1+2.5)/2=1.75，long_stop = 12-1.75 = 10.25
	assert.InDelta(t, 10.25, result.LongStopAdj[1], 1e-12)
	// close[1]=10 ≤ adj[1]=10.25 → 重置分支：adj[2]=long_stop[2]，放弃此前的高位
	assert.InDelta(t, result.LongStop[2], result.LongStopAdj[2], 1e-12)
	assert.Less(t, result.LongStopAdj[2], result.LongStopAdj[1])
}

func TestChandelierFlipAtExactIndex(t *testing.T) {
	cc := NewChandelierCalculator(DefaultATRPeriod)
	candles := flipScenario()

	result := cc.Calculate(candles, 3.0)
	require.Len(t, result.Trend, 25)

	// 上涨段全程多头
	for i := 0; i < 24; i++ {
		assert.Equal(t, 1, result.Trend[i], "index %d", i)
	}

	// 暴跌K线收盘价首次跌破前一根的调整多头止损，恰好在该索引翻空
	assert.Greater(t, candles[23].Close, result.LongStopAdj[22])
	assert.Less(t, candles[24].Close, result.LongStopAdj[23])
	assert.Equal(t, -1, result.Trend[24])
}

func TestChandelierHoldsOnExactEqualClose(t *testing.T) {
	// 收盘价恰好等于止损位时不翻转，只认严格不等
	cc := NewChandelierCalculator(2)
	base := []types.Candle{
		{Time: 1000, Open: 10, High: 11, Low: 9, Close: 10},
		{Time: 2000, Open: 10, High: 12, Low: 10, Close: 11},
	}
	probe := cc.Calculate(base, 1.0)
	stop := probe.LongStopAdj[1] // 下一根的翻转阈值

	equal := append(append([]types.Candle{}, base...),
		types.Candle{Time: 3000, Open: 11, High: stop + 1, Low: stop - 1, Close: stop})
	result := cc.Calculate(equal, 1.0)

	assert.Equal(t, 1, result.Trend[2])
}
