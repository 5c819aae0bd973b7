package scanner

import (
	"github.com/alejandrodnm/ictbot/internal/domain"
)

// DefaultMinPublishScore es el score mínimo para publicar una señal.
const DefaultMinPublishScore = domain.ScoreKillZone

// Selector conserva la señal más fuerte de un ciclo.
// Solo acepta señales con score ≥ minScore; en empate gana la primera ofrecida.
type Selector struct {
	minScore int
	best     *domain.Signal
}

// NewSelector crea un Selector con el umbral de publicación dado.
func NewSelector(minScore int) *Selector {
	return &Selector{minScore: minScore}
}

// Offer propone una señal. Devuelve true si pasa a ser la mejor del ciclo.
func (s *Selector) Offer(sig domain.Signal) bool {
	if sig.Score < s.minScore {
		return false
	}
	if s.best != nil && sig.Score <= s.best.Score {
		return false
	}
	s.best = &sig
	return true
}

// Best devuelve la señal ganadora, si existe.
func (s *Selector) Best() (domain.Signal, bool) {
	if s.best == nil {
		return domain.Signal{}, false
	}
	return *s.best, true
}

// SelectStrongest aplica el Selector a una lista en orden.
func SelectStrongest(signals []domain.Signal, minScore int) (domain.Signal, bool) {
	sel := NewSelector(minScore)
	for _, sig := range signals {
		sel.Offer(sig)
	}
	return sel.Best()
}
