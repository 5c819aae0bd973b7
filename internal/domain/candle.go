package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrNoCandles indica que el proveedor no pudo obtener velas para un instrumento.
// No es excepcional: el ciclo simplemente no produce señal para ese instrumento.
var ErrNoCandles = errors.New("no candles available")

// Candle es una vela OHLC.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Body devuelve el tamaño del cuerpo |close - open|.
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Range devuelve high - low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Wick devuelve la suma de ambas mechas: (high - low) - body.
func (c Candle) Wick() float64 {
	return c.Range() - c.Body()
}

// Bullish devuelve true si la vela cierra por encima de su apertura.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish devuelve true si la vela cierra por debajo de su apertura.
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// Valid comprueba low ≤ min(open, close) y high ≥ max(open, close) con precios finitos.
// El proveedor no lo garantiza; una vela inválida se considera poco fiable.
func (c Candle) Valid() bool {
	for _, v := range [4]float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return c.Low <= math.Min(c.Open, c.Close) && c.High >= math.Max(c.Open, c.Close)
}

// Series es una ventana de velas ordenada de la más antigua a la más reciente.
type Series []Candle

// Len devuelve el número de velas.
func (s Series) Len() int {
	return len(s)
}

// Tail devuelve una vista de las últimas n velas (o todas si hay menos).
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	if n <= 0 {
		return nil
	}
	return s[len(s)-n:]
}

// At devuelve la vela en la posición i contando desde el final (At(1) es la última).
func (s Series) At(fromEnd int) Candle {
	return s[len(s)-fromEnd]
}

// Reliable devuelve true si todas las velas de la serie son válidas.
func (s Series) Reliable() bool {
	for _, c := range s {
		if !c.Valid() {
			return false
		}
	}
	return true
}

// Highs devuelve los máximos de cada vela.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows devuelve los mínimos de cada vela.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Bodies devuelve el tamaño del cuerpo de cada vela.
func (s Series) Bodies() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Body()
	}
	return out
}

// Instrument identifica un par (ej. "EUR/USD OTC"). No tiene comportamiento propio.
type Instrument string

// IsOTC devuelve true para los pares sintéticos OTC.
func (i Instrument) IsOTC() bool {
	return strings.Contains(strings.ToUpper(string(i)), "OTC")
}

// Timeframe es la resolución de las velas pedidas al proveedor.
type Timeframe string

const (
	TimeframeM1 Timeframe = "1m"
	TimeframeM5 Timeframe = "5m"
)

// Label devuelve la etiqueta que usa el selector de timeframe del gráfico.
func (tf Timeframe) Label() string {
	return string(tf)
}
