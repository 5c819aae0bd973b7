package ports

import (
	"context"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// CandleProvider obtiene las velas más recientes de un instrumento.
type CandleProvider interface {
	// FetchCandles devuelve las últimas count velas en el timeframe pedido,
	// de la más antigua a la más reciente. Cualquier error significa "sin datos"
	// para ese instrumento en este ciclo (normalmente domain.ErrNoCandles).
	FetchCandles(ctx context.Context, instrument domain.Instrument, tf domain.Timeframe, count int) (domain.Series, error)
}
