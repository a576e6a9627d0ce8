package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStreams(t *testing.T) {
	streams := DefaultStreams()
	require.Len(t, streams, 11)

	// 四元组 (symbol, interval, multiplier, heikin_ashi) 唯一
	seen := make(map[string]bool)
	for _, sc := range streams {
		key := sc.Symbol + "/" + sc.Interval + "/" + sc.CandleKind()
		assert.False(t, seen[key], "重复的流: %s", key)
		seen[key] = true

		assert.NotEmpty(t, sc.Symbol)
		assert.NotEmpty(t, sc.Interval)
		assert.Positive(t, sc.AtrMultiplier)
	}
}

func TestDefaultStreamsCandleKind(t *testing.T) {
	streams := DefaultStreams()

	// ETH 15m 日本蜡烛3倍流
	assert.Equal(t, "J3", streams[1].CandleKind())
	// ETH 5m Heikin Ashi流
	assert.Equal(t, "HA", streams[0].CandleKind())
}
