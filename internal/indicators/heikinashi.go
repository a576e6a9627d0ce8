package indicators

import (
	"math"

	"okx-chandelier-sentry/pkg/types"
)

// HeikinAshi 将K线序列重新表达为Heikin Ashi合成蜡烛
// ha_open由上一根合成蜡烛递推得来，因此窗口变化后必须整段重算，
// 不能只对新增K线做增量计算
func HeikinAshi(candles []types.Candle) []types.Candle {
	ha := make([]types.Candle, len(candles))
	for i, c := range candles {
		var haOpen float64
		if i == 0 {
			haOpen = (c.Open + c.Close) / 2
		} else {
			prev := ha[i-1]
			haOpen = (prev.Open + prev.Close) / 2
		}
		haClose := (c.Open + c.High + c.Low + c.Close) / 4

		ha[i] = types.Candle{
			Time:  c.Time,
			Open:  haOpen,
			High:  math.Max(c.High, math.Max(haOpen, haClose)),
			Low:   math.Min(c.Low, math.Min(haOpen, haClose)),
			Close: haClose,
		}
	}
	return ha
}
