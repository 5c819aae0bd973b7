package scanner_test

import (
	"time"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

func candle(o, h, l, c float64) domain.Candle {
	return domain.Candle{Open: o, High: h, Low: l, Close: c}
}

func tehran(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, domain.TehranLocation())
}

// setupSeries: rango plano, order block en n-2 y una última vela que barre el
// máximo de las 9 anteriores (sweep + BOS) dejando un gap con la vela n-3.
func setupSeries() domain.Series {
	s := make(domain.Series, 0, 10)
	for i := 0; i < 7; i++ {
		s = append(s, candle(1.5, 2.0, 1.0, 1.6))
	}
	return append(s,
		candle(1.2, 1.3, 1.0, 1.25),  // n-3: high 1.3
		candle(1.1, 1.95, 1.05, 1.9), // n-2: body 0.8, wick 0.1
		candle(1.9, 2.2, 1.85, 1.95), // n-1: high 2.2 > 2.0, close < 2.0, low 1.85 > 1.3
	)
}

// noGapSeries es setupSeries sin el FVG.
func noGapSeries() domain.Series {
	s := setupSeries()
	s[7] = candle(1.5, 2.0, 1.0, 1.6)
	return s
}

func bullishEngulf() domain.Series {
	return domain.Series{candle(1.5, 1.8, 1.2, 1.4), candle(1.3, 1.9, 1.1, 1.85)}
}

func bearishEngulf() domain.Series {
	return domain.Series{candle(1.4, 1.8, 1.2, 1.5), candle(1.8, 1.9, 1.1, 1.15)}
}

func noEngulf() domain.Series {
	return domain.Series{candle(1.4, 1.8, 1.2, 1.5), candle(1.3, 1.7, 1.1, 1.65)}
}

func flat(n int) domain.Series {
	s := make(domain.Series, n)
	for i := range s {
		s[i] = candle(1.5, 2.0, 1.0, 1.6)
	}
	return s
}
