package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"okx-chandelier-sentry/pkg/types"
)

func sampleCandles() []types.Candle {
	return []types.Candle{
		{Time: 1000, Open: 100, High: 105, Low: 98, Close: 103},
		{Time: 2000, Open: 103, High: 108, Low: 102, Close: 107},
		{Time: 3000, Open: 107, High: 109, Low: 101, Close: 102},
		{Time: 4000, Open: 102, High: 104, Low: 96, Close: 97},
		{Time: 5000, Open: 97, High: 103, Low: 95, Close: 101},
	}
}

func TestHeikinAshiLengthAndTime(t *testing.T) {
	candles := sampleCandles()
	ha := HeikinAshi(candles)

	require.Len(t, ha, len(candles))
	for i := range ha {
		assert.Equal(t, candles[i].Time, ha[i].Time)
	}
}

func TestHeikinAshiFirstCandle(t *testing.T) {
	candles := sampleCandles()
	ha := HeikinAshi(candles)

	c := candles[0]
	assert.InDelta(t, (c.Open+c.Close)/2, ha[0].Open, 1e-12)
	assert.InDelta(t, (c.Open+c.High+c.Low+c.Close)/4, ha[0].Close, 1e-12)
}

func TestHeikinAshiOpenChainsFromSyntheticSeries(t *testing.T) {
	candles := sampleCandles()
	ha := HeikinAshi(candles)

	for i := 1; i < len(ha); i++ {
		expected := (ha[i-1].Open + ha[i-1].Close) / 2
		assert.InDelta(t, expected, ha[i].Open, 1e-12, "index %d", i)
	}
}

func TestHeikinAshiHighLowInvariants(t *testing.T) {
	ha := HeikinAshi(sampleCandles())

	for i, c := range ha {
		assert.GreaterOrEqual(t, c.High, math.Max(c.Open, c.Close), "index %d", i)
		assert.LessOrEqual(t, c.Low, math.Min(c.Open, c.Close), "index %d", i)
	}
}

func TestHeikinAshiFullWindowRecomputation(t *testing.T) {
	// 窗口淘汰一根旧K线后，合成开盘价链条完全不同——
	// 对子窗口重算的结果不能从整窗结果截取得到
	candles := sampleCandles()
	full := HeikinAshi(candles)
	sub := HeikinAshi(candles[1:])

	assert.NotEqual(t, full[1].Open, sub[0].Open)
}

func TestHeikinAshiEmptyInput(t *testing.T) {
	assert.Empty(t, HeikinAshi(nil))
}
