package domain

// Tiers del score de confluencia.
const (
	ScoreConfluence = 70 // OB + Sweep + Engulfing
	ScoreGap        = 80 // confluencia + FVG
	ScoreKillZone   = 85 // confluencia + BOS dentro de kill zone
	ScoreWeak       = 50 // solo FVG o BOS: informativo, nunca publicable
)

// ScoringPolicy contiene los tiers del score. Los valores por defecto son las constantes Score*.
type ScoringPolicy struct {
	Confluence int
	Gap        int
	KillZone   int
	Weak       int
}

// DefaultScoringPolicy devuelve los tiers de producción.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Confluence: ScoreConfluence,
		Gap:        ScoreGap,
		KillZone:   ScoreKillZone,
		Weak:       ScoreWeak,
	}
}

// Score combina los detectores en un score 0–100. Las reglas se evalúan en orden
// y las posteriores sobreescriben a las anteriores cuando se cumple su condición:
//
//  1. base 0
//  2. OB ∧ Sweep ∧ Engulfing     → Confluence
//  3. score > 0 ∧ FVG            → Gap
//  4. score > 0 ∧ BOS ∧ killZone → max(score, KillZone)
//  5. score == 0 ∧ (FVG ∨ BOS)   → Weak
func (p ScoringPolicy) Score(f DetectionFlags, inKillZone bool) int {
	score := 0
	if f.OrderBlock && f.LiquiditySweep && f.Engulfing.Present() {
		score = p.Confluence
	}
	if score != 0 && f.FairValueGap {
		score = p.Gap
	}
	if score != 0 && f.BreakOfStructure && inKillZone {
		score = max(score, p.KillZone)
	}
	if score == 0 && (f.FairValueGap || f.BreakOfStructure) {
		score = p.Weak
	}
	return score
}
