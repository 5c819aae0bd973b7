package scanner

import (
	"time"

	"github.com/alejandrodnm/ictbot/internal/domain"
	"github.com/google/uuid"
)

// Assembler convierte las velas de un instrumento en una Signal (o nada).
type Assembler struct {
	calendar domain.Calendar
	scoring  domain.ScoringPolicy
	expiry   domain.ExpiryPolicy
}

// NewAssembler crea un Assembler con las políticas dadas.
func NewAssembler(calendar domain.Calendar, scoring domain.ScoringPolicy, expiry domain.ExpiryPolicy) *Assembler {
	return &Assembler{
		calendar: calendar,
		scoring:  scoring,
		expiry:   expiry,
	}
}

// Evaluate ejecuta los detectores y el scoring. Siempre devuelve una Evaluation,
// también para scores no publicables (ej. el suelo débil de 50).
// coarse es la serie de 5m; fine la de 1m para el engulfing.
func (a *Assembler) Evaluate(instrument domain.Instrument, coarse, fine domain.Series, now time.Time) domain.Evaluation {
	ev := domain.Evaluation{
		Instrument: instrument,
		Time:       now,
		InKillZone: a.calendar.Contains(now),
	}
	if coarse.Len() == 0 || fine.Len() == 0 {
		ev.Skipped = "missing series"
		return ev
	}

	ev.Flags = domain.Detect(coarse, fine)
	ev.Score = a.scoring.Score(ev.Flags, ev.InKillZone)
	return ev
}

// Build convierte una Evaluation en Signal. Las únicas dos puertas duras son
// score < tier de confluencia y ausencia de dirección de engulfing.
func (a *Assembler) Build(ev domain.Evaluation) (domain.Signal, bool) {
	if ev.Skipped != "" {
		return domain.Signal{}, false
	}
	if ev.Score < a.scoring.Confluence || !ev.Flags.Engulfing.Present() {
		return domain.Signal{}, false
	}

	return domain.Signal{
		ID:            uuid.New().String(),
		Instrument:    ev.Instrument,
		Direction:     ev.Flags.Engulfing,
		ExpiryMinutes: a.expiry.Minutes(ev.Score, ev.Flags, ev.Time),
		Score:         ev.Score,
		Reasons:       ev.Flags.Reasons(),
		Time:          ev.Time,
	}, true
}

// Assemble es Evaluate + Build.
func (a *Assembler) Assemble(instrument domain.Instrument, coarse, fine domain.Series, now time.Time) (domain.Signal, bool) {
	return a.Build(a.Evaluate(instrument, coarse, fine, now))
}
