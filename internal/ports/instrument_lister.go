package ports

import (
	"context"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// InstrumentLister descubre los instrumentos disponibles en la plataforma.
type InstrumentLister interface {
	// ListInstruments devuelve los pares OTC visibles en el selector de activos.
	// Nunca devuelve una lista vacía sin error.
	ListInstruments(ctx context.Context) ([]domain.Instrument, error)
}
