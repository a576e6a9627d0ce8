package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCandleCloseTime(t *testing.T) {
	c := Candle{Time: 1700000900500}
	assert.Equal(t, time.UnixMilli(1700000900500), c.CloseTime())
}

func TestStreamConfigCandleKind(t *testing.T) {
	assert.Equal(t, "HA", StreamConfig{HeikinAshi: true, AtrMultiplier: 4}.CandleKind())
	assert.Equal(t, "J3", StreamConfig{AtrMultiplier: 3}.CandleKind())
	assert.Equal(t, "J4", StreamConfig{AtrMultiplier: 4}.CandleKind())
}

func TestChandelierResultTrendAccessors(t *testing.T) {
	empty := &ChandelierResult{}
	assert.Zero(t, empty.LastTrend())
	assert.Zero(t, empty.PrevTrend())

	single := &ChandelierResult{Trend: []int{1}}
	assert.Equal(t, 1, single.LastTrend())
	assert.Zero(t, single.PrevTrend())

	r := &ChandelierResult{Trend: []int{1, 1, -1}}
	assert.Equal(t, -1, r.LastTrend())
	assert.Equal(t, 1, r.PrevTrend())
}
