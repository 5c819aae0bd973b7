package quotex

import (
	"context"
	"log/slog"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// FallbackInstruments se usa cuando el selector de activos no lista ningún par OTC.
var FallbackInstruments = []domain.Instrument{
	"EUR/USD OTC",
	"GBP/USD OTC",
	"AUD/USD OTC",
	"USD/JPY OTC",
	"NZD/CAD OTC",
	"EUR/GBP OTC",
}

// ListInstruments implementa ports.InstrumentLister. Nunca devuelve una lista
// vacía: si el descubrimiento falla usa FallbackInstruments.
func (b *Browser) ListInstruments(ctx context.Context) ([]domain.Instrument, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var names []string
	err := b.openAssetSelector(ctx)
	if err == nil {
		err = b.run(ctx, b.cfg.Wait,
			chromedp.Sleep(switchSettle),
			chromedp.Evaluate(assetNamesScript, &names),
		)
	}
	if err != nil {
		slog.Warn("asset discovery failed, using fallback list", "err", err)
	}

	var blurred bool
	_ = b.run(ctx, b.cfg.Wait, chromedp.Evaluate(blurScript, &blurred))
	b.current = ""

	pairs := otcPairs(names)
	if len(pairs) == 0 {
		return append([]domain.Instrument(nil), FallbackInstruments...), nil
	}
	slog.Info("otc pairs discovered", "count", len(pairs))
	return pairs, nil
}

// otcPairs filtra los nombres OTC, sin duplicados y en orden de aparición.
// Cada item puede traer el payout en otra línea; solo cuenta la primera.
func otcPairs(names []string) []domain.Instrument {
	seen := make(map[string]bool)
	var out []domain.Instrument
	for _, n := range names {
		n, _, _ = strings.Cut(n, "\n")
		n = strings.TrimSpace(n)
		inst := domain.Instrument(n)
		if n == "" || !inst.IsOTC() || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, inst)
	}
	return out
}
