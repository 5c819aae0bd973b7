package ports

import (
	"context"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// Deliverer publica una señal final en un canal externo (Telegram, consola).
type Deliverer interface {
	// Deliver envía la señal una sola vez. El scanner no reintenta dentro del ciclo.
	Deliver(ctx context.Context, signal domain.Signal) error
}

// CycleReporter recibe el resumen de cada ciclo, incluidas las evaluaciones
// que no llegaron a señal. Es opcional.
type CycleReporter interface {
	ReportCycle(ctx context.Context, report domain.CycleReport) error
}
