package indicators

import "okx-chandelier-sentry/pkg/types"

// ChandelierCalculator Chandelier Exit趋势计算器
// 纯函数式：不持有任何跨调用状态，每根新K线收盘后对整个窗口重算。
// 棘轮调整依赖完整历史路径，窗口淘汰旧K线后无法安全地增量更新
type ChandelierCalculator struct {
	period  int
	atrCalc *ATRCalculator
}

// NewChandelierCalculator 创建计算器，period <= 0 时使用默认ATR周期
func NewChandelierCalculator(period int) *ChandelierCalculator {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	return &ChandelierCalculator{
		period:  period,
		atrCalc: NewATRCalculator(period),
	}
}

// Calculate 计算完整的Chandelier Exit结果
// K线数量少于period时，止损序列保持0，趋势全程维持初始多头（+1），
// 不作为错误处理
func (cc *ChandelierCalculator) Calculate(candles []types.Candle, atrMult float64) *types.ChandelierResult {
	n := len(candles)
	result := &types.ChandelierResult{
		TrueRange:    cc.atrCalc.TrueRange(candles),
		ATR:          cc.atrCalc.Calculate(candles),
		LongStop:     make([]float64, n),
		ShortStop:    make([]float64, n),
		LongStopAdj:  make([]float64, n),
		ShortStopAdj: make([]float64, n),
		Trend:        make([]int, n),
	}
	if n == 0 {
		return result
	}

	// 原始止损：收盘价滚动极值 ± atrMult*ATR，仅在索引 >= period-1 处有定义
	for i := cc.period - 1; i < n; i++ {
		hiClose := candles[i].Close
		loClose := candles[i].Close
		for j := i - cc.period + 1; j < i; j++ {
			if candles[j].Close > hiClose {
				hiClose = candles[j].Close
			}
			if candles[j].Close < loClose {
				loClose = candles[j].Close
			}
		}
		result.LongStop[i] = hiClose - atrMult*result.ATR[i]
		result.ShortStop[i] = loClose + atrMult*result.ATR[i]
	}

	// 棘轮调整与方向判定：严格按索引顺序串行计算
	result.LongStopAdj[0] = result.LongStop[0]
	result.ShortStopAdj[0] = result.ShortStop[0]
	result.Trend[0] = 1 // 约定初始为多头

	for i := 1; i < n; i++ {
		prevClose := candles[i-1].Close
		prevLong := result.LongStopAdj[i-1]
		prevShort := result.ShortStopAdj[i-1]

		// 棘轮：价格保持在止损有利侧时只允许向有利方向移动，否则重置为原始值
		if prevClose > prevLong {
			result.LongStopAdj[i] = max64(result.LongStop[i], prevLong)
		} else {
			result.LongStopAdj[i] = result.LongStop[i]
		}
		if prevClose < prevShort {
			result.ShortStopAdj[i] = min64(result.ShortStop[i], prevShort)
		} else {
			result.ShortStopAdj[i] = result.ShortStop[i]
		}

		// 方向翻转只认严格不等，收盘价恰好等于止损位时维持原方向
		switch {
		case candles[i].Close > prevShort:
			result.Trend[i] = 1
		case candles[i].Close < prevLong:
			result.Trend[i] = -1
		default:
			result.Trend[i] = result.Trend[i-1]
		}
	}

	return result
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
