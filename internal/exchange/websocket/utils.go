package websocket

import (
	"strconv"
	"time"

	"go.uber.org/zap"
)

// parseTimestamp 解析时间戳（毫秒）
func parseTimestamp(ts string) (int64, error) {
	return strconv.ParseInt(ts, 10, 64)
}

// parseFloat 解析浮点数
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// IntervalDuration 获取K线周期的Duration
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1H", "1h":
		return time.Hour
	case "2H", "2h":
		return 2 * time.Hour
	case "4H", "4h":
		return 4 * time.Hour
	case "6H", "6h":
		return 6 * time.Hour
	case "12H", "12h":
		return 12 * time.Hour
	case "1D", "1d":
		return 24 * time.Hour
	case "1W", "1w":
		return 7 * 24 * time.Hour
	default:
		// 未知周期会导致收盘时间计算错位，按15分钟兜底并告警
		zap.L().Warn("⚠️ 未知的K线周期，按15分钟处理", zap.String("interval", interval))
		return 15 * time.Minute
	}
}
