package domain

import "time"

// ExpiryPolicy decide la duración sugerida de la operación en minutos.
// Solo se extiende cuando todas las confluencias coinciden dentro de la
// ventana de mayor liquidez (17:00–19:00 Teherán, incluido el minuto 19:00).
type ExpiryPolicy struct {
	DefaultMinutes  int
	ExtendedMinutes int
	MinScore        int
	WindowStart     TimeOfDay
	WindowEnd       TimeOfDay
	Location        *time.Location
}

// DefaultExpiryPolicy devuelve la política de producción.
func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		DefaultMinutes:  1,
		ExtendedMinutes: 2,
		MinScore:        ScoreKillZone,
		WindowStart:     At(17, 0),
		WindowEnd:       At(19, 0),
		Location:        TehranLocation(),
	}
}

// Minutes devuelve ExtendedMinutes solo si score ≥ MinScore, OB, FVG, BOS y
// Engulfing están presentes y now cae en la ventana. En otro caso DefaultMinutes.
func (p ExpiryPolicy) Minutes(score int, f DetectionFlags, now time.Time) int {
	if score >= p.MinScore &&
		f.OrderBlock && f.FairValueGap && f.BreakOfStructure &&
		f.Engulfing.Present() &&
		p.inWindow(now) {
		return p.ExtendedMinutes
	}
	return p.DefaultMinutes
}

// inWindow compara con precisión de minuto: 19:00:59 sigue dentro, 19:01 no.
func (p ExpiryPolicy) inWindow(now time.Time) bool {
	if p.Location != nil {
		now = now.In(p.Location)
	}
	tod := TimeOfDay(time.Duration(ClockOf(now)).Truncate(time.Minute))
	return tod >= p.WindowStart && tod <= p.WindowEnd
}
