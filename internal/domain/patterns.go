package domain

import (
	talib "github.com/markcheno/go-talib"
)

// Lookbacks mínimos y ventanas de cada detector.
const (
	OrderBlockMinCandles       = 5
	OrderBlockMeanPeriod       = 10
	FairValueGapMinCandles     = 3
	LiquiditySweepWindow       = 10
	EngulfingMinCandles        = 2
	BreakOfStructureMinCandles = 5
	BreakOfStructureSwing      = 3
)

// DetectionFlags agrupa la salida de los cinco detectores para un instrumento.
type DetectionFlags struct {
	OrderBlock       bool
	FairValueGap     bool
	LiquiditySweep   bool
	BreakOfStructure bool
	Engulfing        Direction
}

// Reasons devuelve los patrones presentes en orden OB, FVG, Sweep, BOS,
// terminando siempre con Engulfing.
func (f DetectionFlags) Reasons() []Pattern {
	reasons := make([]Pattern, 0, 5)
	if f.OrderBlock {
		reasons = append(reasons, PatternOrderBlock)
	}
	if f.FairValueGap {
		reasons = append(reasons, PatternFairValueGap)
	}
	if f.LiquiditySweep {
		reasons = append(reasons, PatternLiquiditySweep)
	}
	if f.BreakOfStructure {
		reasons = append(reasons, PatternBreakOfStructure)
	}
	return append(reasons, PatternEngulfing)
}

// Detect ejecuta los detectores estructurales sobre la serie gruesa (5m)
// y el engulfing sobre la serie fina (1m).
func Detect(coarse, fine Series) DetectionFlags {
	return DetectionFlags{
		OrderBlock:       DetectOrderBlock(coarse),
		FairValueGap:     DetectFairValueGap(coarse),
		LiquiditySweep:   DetectLiquiditySweep(coarse),
		BreakOfStructure: DetectBreakOfStructure(coarse),
		Engulfing:        DetectEngulfing(fine),
	}
}

// DetectOrderBlock evalúa la penúltima vela: su cuerpo debe superar a sus mechas
// y a la media móvil de cuerpos (hasta OrderBlockMeanPeriod velas, terminando en ella).
// Con menos de OrderBlockMeanPeriod velas previas la media usa las disponibles.
func DetectOrderBlock(s Series) bool {
	if s.Len() < OrderBlockMinCandles {
		return false
	}
	upto := s[:s.Len()-1] // la penúltima vela es el último elemento
	period := min(OrderBlockMeanPeriod, upto.Len())
	window := upto.Tail(period)
	if !window.Reliable() {
		return false
	}

	ob := window[len(window)-1]
	mean := talib.Sma(window.Bodies(), period)[period-1]
	body := ob.Body()
	return body > ob.Wick() && body > mean
}

// DetectFairValueGap compara la vela n-3 con la última: hay gap si no se solapan.
func DetectFairValueGap(s Series) bool {
	if s.Len() < FairValueGapMinCandles {
		return false
	}
	tail := s.Tail(FairValueGapMinCandles)
	if !tail.Reliable() {
		return false
	}
	first, last := tail[0], tail[2]
	bullishGap := first.High < last.Low
	bearishGap := first.Low > last.High
	return bullishGap || bearishGap
}

// DetectLiquiditySweep busca una vela que rompe el máximo (o mínimo) de las 9
// anteriores y cierra de vuelta dentro del rango.
func DetectLiquiditySweep(s Series) bool {
	if s.Len() < LiquiditySweepWindow {
		return false
	}
	recent := s.Tail(LiquiditySweepWindow)
	if !recent.Reliable() {
		return false
	}
	prev := recent[:LiquiditySweepWindow-1]
	prevHigh := talib.Max(prev.Highs(), len(prev))[len(prev)-1]
	prevLow := talib.Min(prev.Lows(), len(prev))[len(prev)-1]

	last := recent[LiquiditySweepWindow-1]
	sweptHigh := last.High > prevHigh && last.Close < prevHigh
	sweptLow := last.Low < prevLow && last.Close > prevLow
	return sweptHigh || sweptLow
}

// DetectEngulfing compara las dos últimas velas. El rango de la actual debe
// contener al de la anterior; el color de la actual decide la dirección.
// Un doji (close == open) no produce dirección.
func DetectEngulfing(s Series) Direction {
	if s.Len() < EngulfingMinCandles {
		return DirectionNone
	}
	tail := s.Tail(EngulfingMinCandles)
	if !tail.Reliable() {
		return DirectionNone
	}
	prev, cur := tail[0], tail[1]
	engulfs := cur.Low <= prev.Low && cur.High >= prev.High
	switch {
	case engulfs && cur.Bullish():
		return DirectionCall
	case engulfs && cur.Bearish():
		return DirectionPut
	default:
		return DirectionNone
	}
}

// DetectBreakOfStructure toma el swing high/low de una ventana centrada de 3 velas
// situada 3 posiciones antes del final (velas n-4..n-2) y comprueba si la última
// vela lo supera.
func DetectBreakOfStructure(s Series) bool {
	if s.Len() < BreakOfStructureMinCandles {
		return false
	}
	// La ventana centrada en n-3 equivale a la ventana móvil que termina en n-2.
	tail := s.Tail(BreakOfStructureSwing + 1)
	if !tail.Reliable() {
		return false
	}
	swing := tail[:BreakOfStructureSwing]
	swingHigh := talib.Max(swing.Highs(), BreakOfStructureSwing)[BreakOfStructureSwing-1]
	swingLow := talib.Min(swing.Lows(), BreakOfStructureSwing)[BreakOfStructureSwing-1]

	last := tail[BreakOfStructureSwing]
	return last.High > swingHigh || last.Low < swingLow
}
