package scanner_test

import (
	"testing"

	"github.com/alejandrodnm/ictbot/internal/domain"
	"github.com/alejandrodnm/ictbot/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssembler() *scanner.Assembler {
	return scanner.NewAssembler(domain.DefaultCalendar(), domain.DefaultScoringPolicy(), domain.DefaultExpiryPolicy())
}

func TestAssembler_FullConfluenceInWindow(t *testing.T) {
	sig, ok := newAssembler().Assemble("EURUSD_otc", setupSeries(), bullishEngulf(), tehran(17, 45))

	require.True(t, ok)
	assert.Equal(t, domain.Instrument("EURUSD_otc"), sig.Instrument)
	assert.Equal(t, domain.DirectionCall, sig.Direction)
	assert.Equal(t, 85, sig.Score)
	assert.Equal(t, 2, sig.ExpiryMinutes, "todas las confluencias en 17:00–19:00")
	assert.Equal(t, "OB + FVG + Sweep + BOS + Engulfing", sig.ReasonText())
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, tehran(17, 45), sig.Time)
}

func TestAssembler_OutsideKillZoneScoresGapTier(t *testing.T) {
	sig, ok := newAssembler().Assemble("EURUSD_otc", setupSeries(), bullishEngulf(), tehran(10, 0))

	require.True(t, ok)
	assert.Equal(t, 80, sig.Score)
	assert.Equal(t, 1, sig.ExpiryMinutes)
}

func TestAssembler_KillZoneOutsideExpiryWindow(t *testing.T) {
	sig, ok := newAssembler().Assemble("EURUSD_otc", setupSeries(), bullishEngulf(), tehran(12, 0))

	require.True(t, ok)
	assert.Equal(t, 85, sig.Score)
	assert.Equal(t, 1, sig.ExpiryMinutes)
}

func TestAssembler_BearishDirection(t *testing.T) {
	sig, ok := newAssembler().Assemble("GBPUSD_otc", noGapSeries(), bearishEngulf(), tehran(17, 45))

	require.True(t, ok)
	assert.Equal(t, domain.DirectionPut, sig.Direction)
	assert.Equal(t, 85, sig.Score)
	assert.Equal(t, 1, sig.ExpiryMinutes, "sin FVG no se extiende")
	assert.Equal(t, []domain.Pattern{
		domain.PatternOrderBlock, domain.PatternLiquiditySweep,
		domain.PatternBreakOfStructure, domain.PatternEngulfing,
	}, sig.Reasons)
}

func TestAssembler_NoEngulfingNoSignal(t *testing.T) {
	a := newAssembler()
	ev := a.Evaluate("EURUSD_otc", setupSeries(), noEngulf(), tehran(17, 45))

	assert.Equal(t, 50, ev.Score, "FVG y BOS sin confluencia dan el suelo débil")
	_, ok := a.Build(ev)
	assert.False(t, ok)
}

func TestAssembler_WeakScoreNeverBuilds(t *testing.T) {
	_, ok := newAssembler().Assemble("EURUSD_otc", flat(10), bullishEngulf(), tehran(17, 45))
	assert.False(t, ok)
}

func TestAssembler_MissingSeries(t *testing.T) {
	a := newAssembler()

	ev := a.Evaluate("EURUSD_otc", nil, bullishEngulf(), tehran(17, 45))
	assert.Equal(t, "missing series", ev.Skipped)
	_, ok := a.Build(ev)
	assert.False(t, ok)

	ev = a.Evaluate("EURUSD_otc", setupSeries(), domain.Series{}, tehran(17, 45))
	assert.NotEmpty(t, ev.Skipped)
}

func TestAssembler_ShortCoarseSeriesCannotReachConfluence(t *testing.T) {
	// Con 5 velas hay OB y FVG pero no sweep (necesita 10).
	s := domain.Series{
		candle(1, 3.5, 0.5, 3),
		candle(3, 3.2, 1.5, 2),
		candle(1, 1.0, 0, 0),
		candle(1, 10, 0, 9),
		candle(9, 9.8, 1.2, 9.5),
	}
	ev := newAssembler().Evaluate("EURUSD_otc", s, bullishEngulf(), tehran(17, 45))

	assert.True(t, ev.Flags.OrderBlock)
	assert.True(t, ev.Flags.FairValueGap)
	assert.False(t, ev.Flags.LiquiditySweep)
	assert.Equal(t, 50, ev.Score)
}
