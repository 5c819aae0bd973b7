package quotex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

const (
	minCandleRows   = 5
	switchSettle    = time.Second
	timeframeSettle = 800 * time.Millisecond
)

// FetchCandles implementa ports.CandleProvider: cambia el gráfico al par y al
// timeframe pedidos y lee las velas con los scripts candidatos.
func (b *Browser) FetchCandles(ctx context.Context, inst domain.Instrument, tf domain.Timeframe, count int) (domain.Series, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("quotex.FetchCandles: rate limiter: %w", err)
	}

	if b.current != inst {
		if err := b.switchTo(ctx, inst); err != nil {
			b.current = ""
			return nil, fmt.Errorf("quotex.FetchCandles %s: %w", inst, err)
		}
		b.current = inst
	}

	b.setTimeframe(ctx, tf)

	for i, script := range candleScripts(count) {
		var raw []byte
		if err := b.run(ctx, b.cfg.Wait, chromedp.Evaluate(script, &raw)); err != nil {
			slog.Debug("candle script failed", "instrument", inst, "script", i, "err", err)
			continue
		}
		series, err := parseCandles(raw, count)
		if err != nil {
			slog.Debug("candle script returned too few rows", "instrument", inst, "script", i, "err", err)
			continue
		}
		return series, nil
	}
	return nil, fmt.Errorf("quotex.FetchCandles %s %s: %w", inst, tf, domain.ErrNoCandles)
}

// switchTo abre el selector de activos y elige el par.
func (b *Browser) switchTo(ctx context.Context, inst domain.Instrument) error {
	if err := b.openAssetSelector(ctx); err != nil {
		return err
	}
	var found bool
	if err := b.run(ctx, b.cfg.Wait,
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Evaluate(clickAssetScript(string(inst)), &found),
	); err != nil {
		return fmt.Errorf("select asset: %w", err)
	}
	if !found {
		return fmt.Errorf("asset %q not found in selector", inst)
	}
	return b.run(ctx, b.cfg.Wait, chromedp.Sleep(switchSettle))
}

// openAssetSelector hace click en el selector de activos.
func (b *Browser) openAssetSelector(ctx context.Context) error {
	err := b.run(ctx, 10*time.Second, chromedp.Click(selAssetSelector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("open asset selector: %w", err)
	}
	return nil
}

// setTimeframe es best-effort: si el selector no aparece se leen las velas del
// timeframe actual.
func (b *Browser) setTimeframe(ctx context.Context, tf domain.Timeframe) {
	var clicked bool
	err := b.run(ctx, 10*time.Second,
		chromedp.Click(selTimeframeSelector, chromedp.ByQuery),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.Evaluate(clickTimeframeScript(tf.Label()), &clicked),
		chromedp.Sleep(timeframeSettle),
	)
	if err != nil || !clicked {
		slog.Debug("timeframe not set", "timeframe", tf, "err", err)
	}
}

// rawCandle es una fila tal como la devuelven los scripts.
type rawCandle struct {
	T jsNumber `json:"t"`
	O jsNumber `json:"o"`
	H jsNumber `json:"h"`
	L jsNumber `json:"l"`
	C jsNumber `json:"c"`
}

// jsNumber acepta números, strings numéricos, null y ausencia (→ 0).
type jsNumber float64

func (n *jsNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = jsNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = 0
		return nil
	}
	*n = jsNumber(f)
	return nil
}

// parseCandles convierte el JSON de un script en una Series. Exige al menos
// max(5, count/2) filas y conserva las últimas count.
func parseCandles(raw []byte, count int) (domain.Series, error) {
	var rows []*rawCandle
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}
	if need := max(minCandleRows, count/2); len(rows) < need {
		return nil, fmt.Errorf("got %d rows, need %d: %w", len(rows), need, domain.ErrNoCandles)
	}
	if count > 0 && len(rows) > count {
		rows = rows[len(rows)-count:]
	}

	series := make(domain.Series, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		series = append(series, domain.Candle{
			Time:  candleTime(float64(r.T)),
			Open:  float64(r.O),
			High:  float64(r.H),
			Low:   float64(r.L),
			Close: float64(r.C),
		})
	}
	if series.Len() == 0 {
		return nil, domain.ErrNoCandles
	}
	return series, nil
}

// candleTime interpreta t como epoch en segundos, o en milisegundos si es muy grande.
func candleTime(t float64) time.Time {
	switch {
	case t <= 0:
		return time.Time{}
	case t > 1e12:
		return time.UnixMilli(int64(t)).UTC()
	default:
		return time.Unix(int64(t), 0).UTC()
	}
}
