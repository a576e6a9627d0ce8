package types

import "time"

// Candle K线数据（收盘后不可变，按CloseTime严格升序）
type Candle struct {
	Time  int64   `json:"time"` // 收盘时间，毫秒时间戳
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// CloseTime 收盘时间
func (c Candle) CloseTime() time.Time {
	return time.Unix(c.Time/1000, (c.Time%1000)*1000000)
}

// CandleEvent WebSocket推送的K线事件
type CandleEvent struct {
	Symbol    string `json:"symbol"`
	Interval  string `json:"interval"`
	Candle    Candle `json:"candle"`
	Confirmed bool   `json:"confirmed"` // 该K线是否已收盘（OKX confirm标志）
}

// FlipAlert 趋势翻转预警
type FlipAlert struct {
	Symbol     string    `json:"symbol"`
	Interval   string    `json:"interval"`
	Direction  int       `json:"direction"` // +1 多头 / -1 空头
	Price      float64   `json:"price"`     // 翻转K线收盘价
	AtrMult    float64   `json:"atr_mult"`
	HeikinAshi bool      `json:"heikin_ashi"`
	AlertTime  time.Time `json:"alert_time"` // 翻转K线收盘时间
}
