package scanner

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/ictbot/internal/domain"
	"github.com/alejandrodnm/ictbot/internal/ports"
)

// ResolveInstruments devuelve la lista fija si existe; si no, la descubre en la plataforma.
func ResolveInstruments(ctx context.Context, fixed []domain.Instrument, lister ports.InstrumentLister) ([]domain.Instrument, error) {
	if len(fixed) > 0 {
		return fixed, nil
	}
	if lister == nil {
		return nil, fmt.Errorf("scanner.ResolveInstruments: no instruments configured and no lister")
	}
	found, err := lister.ListInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanner.ResolveInstruments: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("scanner.ResolveInstruments: lister returned no instruments")
	}
	return found, nil
}
