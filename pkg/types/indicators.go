package types

// ChandelierResult Chandelier Exit指标完整计算结果
// 所有切片长度与输入K线数量一致；ATR周期之前的索引填0
type ChandelierResult struct {
	TrueRange    []float64 `json:"true_range"`     // 真实波幅序列
	ATR          []float64 `json:"atr"`            // Wilder平滑ATR，索引 < period-1 未定义（为0）
	LongStop     []float64 `json:"long_stop"`      // 多头止损原始值
	ShortStop    []float64 `json:"short_stop"`     // 空头止损原始值
	LongStopAdj  []float64 `json:"long_stop_adj"`  // 多头止损棘轮调整值
	ShortStopAdj []float64 `json:"short_stop_adj"` // 空头止损棘轮调整值
	Trend        []int     `json:"trend"`          // 趋势方向序列，+1多头 / -1空头
}

// LastTrend 最新趋势方向
func (r *ChandelierResult) LastTrend() int {
	if len(r.Trend) == 0 {
		return 0
	}
	return r.Trend[len(r.Trend)-1]
}

// PrevTrend 倒数第二根K线的趋势方向
func (r *ChandelierResult) PrevTrend() int {
	if len(r.Trend) < 2 {
		return 0
	}
	return r.Trend[len(r.Trend)-2]
}
