package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandle_BodyAndWick(t *testing.T) {
	c := candle(1, 10, 0, 9)
	assert.InDelta(t, 8.0, c.Body(), 1e-9)
	assert.InDelta(t, 2.0, c.Wick(), 1e-9)
	assert.True(t, c.Bullish())
	assert.False(t, c.Bearish())
}

func TestCandle_Valid(t *testing.T) {
	assert.True(t, candle(1, 2, 0.5, 1.5).Valid())
	assert.True(t, candle(1, 1, 1, 1).Valid())
	assert.False(t, candle(1, 1.2, 0.5, 1.5).Valid(), "close above high")
	assert.False(t, candle(1, 2, 1.1, 1.5).Valid(), "open below low")
	assert.False(t, candle(math.Inf(1), 2, 0.5, 1.5).Valid())
}

func TestSeries_Tail(t *testing.T) {
	s := flatRange(5)
	assert.Len(t, s.Tail(3), 3)
	assert.Len(t, s.Tail(10), 5)
	assert.Empty(t, s.Tail(0))
	assert.Equal(t, s[4], s.At(1))
}

func TestInstrument_IsOTC(t *testing.T) {
	assert.True(t, Instrument("EUR/USD OTC").IsOTC())
	assert.True(t, Instrument("gbp/usd (otc)").IsOTC())
	assert.False(t, Instrument("EUR/USD").IsOTC())
}
