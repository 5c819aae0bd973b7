package domain

import (
	"strings"
	"time"
)

// Direction es el sentido de la operación sugerida.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
)

// Present devuelve true si hay una dirección definida.
func (d Direction) Present() bool {
	return d == DirectionCall || d == DirectionPut
}

// String devuelve "none" para la dirección vacía.
func (d Direction) String() string {
	if d == DirectionNone {
		return "none"
	}
	return string(d)
}

// Pattern es la etiqueta de un detector que contribuyó a una señal.
type Pattern string

const (
	PatternOrderBlock       Pattern = "OB"
	PatternFairValueGap     Pattern = "FVG"
	PatternLiquiditySweep   Pattern = "Sweep"
	PatternBreakOfStructure Pattern = "BOS"
	PatternEngulfing        Pattern = "Engulfing"
)

// Signal es la señal publicable de un ciclo. Se crea una vez, no se muta
// y la consume exactamente un Deliverer.
type Signal struct {
	ID            string
	Instrument    Instrument
	Direction     Direction
	ExpiryMinutes int
	Score         int
	Reasons       []Pattern
	Time          time.Time
}

// ReasonText devuelve las razones unidas con " + " (ej. "OB + FVG + Engulfing").
func (s Signal) ReasonText() string {
	parts := make([]string, len(s.Reasons))
	for i, r := range s.Reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, " + ")
}

// Evaluation es el resultado completo de evaluar un instrumento en un ciclo,
// publicable o no. Se usa para logging, métricas y el reporte de consola.
type Evaluation struct {
	Instrument Instrument
	Flags      DetectionFlags
	Score      int
	InKillZone bool
	Time       time.Time
	// Skipped explica por qué no se evaluó (ej. sin velas). Vacío si se evaluó.
	Skipped string
}

// CycleReport resume un ciclo del selector.
type CycleReport struct {
	StartedAt   time.Time
	Duration    time.Duration
	Evaluations []Evaluation
	Winner      *Signal
}
