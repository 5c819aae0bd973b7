package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func candle(o, h, l, c float64) Candle {
	return Candle{Open: o, High: h, Low: l, Close: c}
}

// flatRange devuelve n velas dentro de [1.0, 2.0].
func flatRange(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = candle(1.5, 2.0, 1.0, 1.6)
	}
	return s
}

// orderBlockSeries: penúltima vela con body=8, wick=2 y media de cuerpos=3.
func orderBlockSeries() Series {
	return Series{
		candle(1, 3.5, 0.5, 3), // body 2
		candle(3, 3.2, 1.5, 2), // body 1
		candle(1, 1.0, 0, 0),   // body 1, high 1.0
		candle(1, 10, 0, 9),    // body 8, wick 2
		candle(9, 9.8, 1.2, 9.5),
	}
}

// --- Order Block ---

func TestDetectOrderBlock_TooShort(t *testing.T) {
	assert.False(t, DetectOrderBlock(orderBlockSeries()[:4]))
	assert.False(t, DetectOrderBlock(nil))
}

func TestDetectOrderBlock_BodyDominates(t *testing.T) {
	assert.True(t, DetectOrderBlock(orderBlockSeries()))
}

func TestDetectOrderBlock_WickDominates(t *testing.T) {
	s := orderBlockSeries()
	s[3] = candle(1, 20, 0, 9) // body 8, wick 12
	assert.False(t, DetectOrderBlock(s))
}

func TestDetectOrderBlock_BodyBelowMean(t *testing.T) {
	s := orderBlockSeries()
	s[0] = candle(0, 30, 0, 30) // body 30 → media 10
	s[3] = candle(1, 10, 0.5, 9.5)
	assert.False(t, DetectOrderBlock(s))
}

func TestDetectOrderBlock_UsesLastTenBodies(t *testing.T) {
	// Una vela gigante fuera de la ventana de 10 no afecta a la media.
	s := Series{candle(0, 100, 0, 100)}
	s = append(s, flatRange(9)...) // cuerpos 0.1
	s = append(s, candle(1, 2.1, 1, 2), candle(2, 2.1, 1.9, 2))
	assert.True(t, DetectOrderBlock(s))

	// Dentro de la ventana sí la afecta.
	s = append(flatRange(8), candle(0, 100, 0, 100), candle(1, 2.1, 1, 2), candle(2, 2.1, 1.9, 2))
	assert.False(t, DetectOrderBlock(s))
}

func TestDetectOrderBlock_UnreliableCandle(t *testing.T) {
	s := orderBlockSeries()
	s[3] = candle(1, 10, 5, 9) // low por encima del open
	assert.False(t, DetectOrderBlock(s))

	s = orderBlockSeries()
	s[1].Close = math.NaN()
	assert.False(t, DetectOrderBlock(s))
}

// --- Fair Value Gap ---

func TestDetectFairValueGap_TooShort(t *testing.T) {
	assert.False(t, DetectFairValueGap(Series{candle(1, 1, 1, 1), candle(2, 2, 2, 2)}))
}

func TestDetectFairValueGap_Bullish(t *testing.T) {
	s := Series{candle(0.9, 1.0, 0.8, 0.95), candle(1, 1.5, 1, 1.4), candle(1.3, 1.6, 1.2, 1.5)}
	assert.True(t, DetectFairValueGap(s))
}

func TestDetectFairValueGap_Bearish(t *testing.T) {
	s := Series{candle(2.2, 2.5, 2.0, 2.1), candle(2, 2, 1.6, 1.7), candle(1.5, 1.5, 1.2, 1.3)}
	assert.True(t, DetectFairValueGap(s))
}

func TestDetectFairValueGap_Overlap(t *testing.T) {
	s := Series{candle(1, 1.5, 0.9, 1.4), candle(1.4, 1.6, 1.3, 1.5), candle(1.5, 1.7, 1.4, 1.6)}
	assert.False(t, DetectFairValueGap(s))
}

func TestDetectFairValueGap_EqualEdgeIsNotGap(t *testing.T) {
	s := Series{candle(0.9, 1.2, 0.8, 1.1), candle(1.1, 1.4, 1.1, 1.3), candle(1.3, 1.5, 1.2, 1.4)}
	assert.False(t, DetectFairValueGap(s), "high == low no es estrictamente menor")
}

// --- Liquidity Sweep ---

func TestDetectLiquiditySweep_TooShort(t *testing.T) {
	s := append(flatRange(8), candle(1.8, 2.2, 1.7, 1.9))
	assert.False(t, DetectLiquiditySweep(s))
}

func TestDetectLiquiditySweep_High(t *testing.T) {
	s := append(flatRange(9), candle(1.8, 2.2, 1.7, 1.9))
	assert.True(t, DetectLiquiditySweep(s))
}

func TestDetectLiquiditySweep_Low(t *testing.T) {
	s := append(flatRange(9), candle(1.2, 1.3, 0.8, 1.1))
	assert.True(t, DetectLiquiditySweep(s))
}

func TestDetectLiquiditySweep_BreakoutIsNotSweep(t *testing.T) {
	s := append(flatRange(9), candle(1.9, 2.3, 1.8, 2.1))
	assert.False(t, DetectLiquiditySweep(s))
}

func TestDetectLiquiditySweep_OnlyLastTenCount(t *testing.T) {
	// Un máximo antiguo (fuera de la ventana) no cuenta como prevHigh.
	s := Series{candle(2, 5, 2, 4)}
	s = append(s, flatRange(9)...)
	s = append(s, candle(1.8, 2.2, 1.7, 1.9))
	assert.True(t, DetectLiquiditySweep(s))
}

// --- Engulfing ---

func TestDetectEngulfing_TooShort(t *testing.T) {
	assert.Equal(t, DirectionNone, DetectEngulfing(Series{candle(1, 2, 0.5, 1.5)}))
	assert.Equal(t, DirectionNone, DetectEngulfing(nil))
}

func TestDetectEngulfing_Bullish(t *testing.T) {
	s := Series{candle(1.5, 1.8, 1.2, 1.4), candle(1.3, 1.9, 1.1, 1.85)}
	assert.Equal(t, DirectionCall, DetectEngulfing(s))
}

func TestDetectEngulfing_Bearish(t *testing.T) {
	s := Series{candle(1.4, 1.8, 1.2, 1.5), candle(1.8, 1.9, 1.1, 1.15)}
	assert.Equal(t, DirectionPut, DetectEngulfing(s))
}

func TestDetectEngulfing_DojiIsNone(t *testing.T) {
	s := Series{candle(1.4, 1.8, 1.2, 1.5), candle(1.5, 1.9, 1.1, 1.5)}
	assert.Equal(t, DirectionNone, DetectEngulfing(s))
}

func TestDetectEngulfing_RangeNotContained(t *testing.T) {
	s := Series{candle(1.4, 1.8, 1.2, 1.5), candle(1.3, 1.7, 1.1, 1.65)}
	assert.Equal(t, DirectionNone, DetectEngulfing(s))
}

func TestDetectEngulfing_UnreliableCandle(t *testing.T) {
	// Engulfing alcista salvo que el close supera al high.
	s := Series{candle(1.5, 1.8, 1.2, 1.4), candle(1.3, 1.9, 1.1, 1.95)}
	assert.Equal(t, DirectionNone, DetectEngulfing(s))
}

// --- Break of Structure ---

func TestDetectBreakOfStructure_TooShort(t *testing.T) {
	s := append(flatRange(3), candle(1.9, 2.5, 1.8, 2.4))
	assert.False(t, DetectBreakOfStructure(s))
}

func TestDetectBreakOfStructure_High(t *testing.T) {
	s := append(flatRange(4), candle(1.9, 2.5, 1.8, 2.4))
	assert.True(t, DetectBreakOfStructure(s))
}

func TestDetectBreakOfStructure_Low(t *testing.T) {
	s := append(flatRange(4), candle(1.1, 1.2, 0.9, 0.95))
	assert.True(t, DetectBreakOfStructure(s))
}

func TestDetectBreakOfStructure_InsideSwing(t *testing.T) {
	s := append(flatRange(4), candle(1.5, 1.9, 1.1, 1.6))
	assert.False(t, DetectBreakOfStructure(s))
}

func TestDetectBreakOfStructure_IgnoresOlderSwing(t *testing.T) {
	// El máximo en n-5 queda fuera de la ventana n-4..n-2.
	s := Series{candle(1, 9, 1, 8)}
	s = append(s, flatRange(4)...)
	s = append(s, candle(1.9, 2.5, 1.8, 2.4))
	assert.True(t, DetectBreakOfStructure(s))
}

// --- Detect / Reasons ---

func TestDetect_CombinesBothSeries(t *testing.T) {
	fine := Series{candle(1.5, 1.8, 1.2, 1.4), candle(1.3, 1.9, 1.1, 1.85)}
	f := Detect(orderBlockSeries(), fine)

	assert.True(t, f.OrderBlock)
	assert.True(t, f.FairValueGap)
	assert.False(t, f.LiquiditySweep)
	assert.False(t, f.BreakOfStructure)
	assert.Equal(t, DirectionCall, f.Engulfing)
}

func TestDetect_EmptySeries(t *testing.T) {
	assert.Equal(t, DetectionFlags{}, Detect(nil, nil))
}

func TestDetectionFlags_Reasons(t *testing.T) {
	f := DetectionFlags{OrderBlock: true, LiquiditySweep: true, BreakOfStructure: true, Engulfing: DirectionPut}
	assert.Equal(t, []Pattern{PatternOrderBlock, PatternLiquiditySweep, PatternBreakOfStructure, PatternEngulfing}, f.Reasons())

	assert.Equal(t, []Pattern{PatternEngulfing}, DetectionFlags{}.Reasons())
}
