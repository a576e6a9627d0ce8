package series

import "okx-chandelier-sentry/pkg/types"

// DefaultCapacity 每个流保留的K线数量
const DefaultCapacity = 200

// Series 固定容量的K线滑动窗口
// 由唯一的流协调器持有，不跨goroutine共享，因此无需加锁
type Series struct {
	capacity int
	candles  []types.Candle
}

// New 创建K线窗口，capacity <= 0 时使用默认容量
func New(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{
		capacity: capacity,
		candles:  make([]types.Candle, 0, capacity),
	}
}

// Append 追加一根K线，超出容量时淘汰最旧的一根
func (s *Series) Append(c types.Candle) {
	s.candles = append(s.candles, c)
	if len(s.candles) > s.capacity {
		// 原地左移，复用底层数组，避免容量随时间增长
		copy(s.candles, s.candles[1:])
		s.candles = s.candles[:s.capacity]
	}
}

// Snapshot 返回当前窗口副本，可安全地独立变换
func (s *Series) Snapshot() []types.Candle {
	result := make([]types.Candle, len(s.candles))
	copy(result, s.candles)
	return result
}

// Last 最新一根K线，窗口为空时返回false
func (s *Series) Last() (types.Candle, bool) {
	if len(s.candles) == 0 {
		return types.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Len 当前窗口内K线数量
func (s *Series) Len() int {
	return len(s.candles)
}

// Capacity 窗口容量
func (s *Series) Capacity() int {
	return s.capacity
}
