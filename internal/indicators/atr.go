package indicators

import (
	"math"

	"okx-chandelier-sentry/pkg/types"
)

// DefaultATRPeriod ATR周期，固定为22
const DefaultATRPeriod = 22

// ATRCalculator Wilder平滑ATR计算器
type ATRCalculator struct {
	period int
}

// NewATRCalculator 创建ATR计算器，period <= 0 时使用默认周期
func NewATRCalculator(period int) *ATRCalculator {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	return &ATRCalculator{period: period}
}

// Period ATR周期
func (ac *ATRCalculator) Period() int {
	return ac.period
}

// TrueRange 计算真实波幅序列，长度与输入一致
// 首根K线没有前收盘价，以自身收盘价代替
func (ac *ATRCalculator) TrueRange(candles []types.Candle) []float64 {
	tr := make([]float64, len(candles))
	for i := range candles {
		prevClose := candles[0].Close
		if i > 0 {
			prevClose = candles[i-1].Close
		}

		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - prevClose)
		lc := math.Abs(candles[i].Low - prevClose)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// Calculate 计算Wilder平滑ATR序列
// 索引 < period-1 的值未定义，填0；index == period-1 为前period个TR的算术平均，
// 之后按 atr[i] = (atr[i-1]*(period-1) + tr[i]) / period 递推
func (ac *ATRCalculator) Calculate(candles []types.Candle) []float64 {
	tr := ac.TrueRange(candles)
	atr := make([]float64, len(candles))

	for i := range candles {
		switch {
		case i < ac.period-1:
			// 数据不足，未定义
		case i == ac.period-1:
			sum := 0.0
			for j := 0; j < ac.period; j++ {
				sum += tr[j]
			}
			atr[i] = sum / float64(ac.period)
		default:
			atr[i] = (atr[i-1]*float64(ac.period-1) + tr[i]) / float64(ac.period)
		}
	}
	return atr
}
