package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/ictbot/internal/domain"
	"github.com/alejandrodnm/ictbot/internal/ports"
)

// TickState es el macro-estado resultante de un tick del loop.
type TickState string

const (
	StateOutsideWindow TickState = "outside_window"
	StateAuthFailed    TickState = "auth_failed"
	StateNoSignal      TickState = "no_signal"
	StateSignal        TickState = "signal"
	StateStopped       TickState = "stopped"
)

// Config contiene la configuración del scanner.
type Config struct {
	// OutsideWindowInterval es la espera fuera de kill zone.
	OutsideWindowInterval time.Duration
	// AuthBackoff es la espera tras un fallo de re-autenticación.
	AuthBackoff time.Duration
	// NoSignalBackoff es la espera tras un ciclo sin señal.
	NoSignalBackoff time.Duration
	// Cooldown es la espera tras publicar, más larga que NoSignalBackoff
	// para no re-alertar sobre la misma formación.
	Cooldown time.Duration
	// CallTimeout acota cada llamada a un colaborador (velas, sesión, envío).
	CallTimeout time.Duration
	// AuthTimeout acota la re-autenticación completa (puede incluir 2FA).
	AuthTimeout time.Duration

	MinPublishScore int
	CoarseTimeframe domain.Timeframe
	CoarseCount     int
	FineTimeframe   domain.Timeframe
	FineCount       int

	Calendar domain.Calendar
	Scoring  domain.ScoringPolicy
	Expiry   domain.ExpiryPolicy
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		OutsideWindowInterval: 60 * time.Second,
		AuthBackoff:           30 * time.Second,
		NoSignalBackoff:       30 * time.Second,
		Cooldown:              65 * time.Second,
		CallTimeout:           45 * time.Second,
		AuthTimeout:           3 * time.Minute,
		MinPublishScore:       DefaultMinPublishScore,
		CoarseTimeframe:       domain.TimeframeM5,
		CoarseCount:           50,
		FineTimeframe:         domain.TimeframeM1,
		FineCount:             30,
		Calendar:              domain.DefaultCalendar(),
		Scoring:               domain.DefaultScoringPolicy(),
		Expiry:                domain.DefaultExpiryPolicy(),
	}
}

// SystemClock devuelve la hora actual en la location dada (Teherán por defecto).
type SystemClock struct {
	Location *time.Location
}

// Now implementa ports.Clock.
func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = domain.TehranLocation()
	}
	return time.Now().In(loc)
}

// Scanner es el orquestador principal del loop de señales.
type Scanner struct {
	cfg         Config
	instruments []domain.Instrument
	candles     ports.CandleProvider
	session     ports.Session
	deliverer   ports.Deliverer
	reporter    ports.CycleReporter
	metrics     ports.Metrics
	clock       ports.Clock
	assembler   *Assembler
}

// New crea un Scanner con todas las dependencias inyectadas.
// session puede ser nil (sin comprobación de login, ej. fixtures).
func New(
	cfg Config,
	instruments []domain.Instrument,
	candles ports.CandleProvider,
	session ports.Session,
	deliverer ports.Deliverer,
	clock ports.Clock,
) *Scanner {
	if clock == nil {
		clock = SystemClock{Location: cfg.Calendar.Location}
	}
	return &Scanner{
		cfg:         cfg,
		instruments: instruments,
		candles:     candles,
		session:     session,
		deliverer:   deliverer,
		clock:       clock,
		assembler:   NewAssembler(cfg.Calendar, cfg.Scoring, cfg.Expiry),
	}
}

// SetReporter registra un CycleReporter opcional.
func (s *Scanner) SetReporter(r ports.CycleReporter) {
	s.reporter = r
}

// SetMetrics registra el recorder de métricas.
func (s *Scanner) SetMetrics(m ports.Metrics) {
	s.metrics = m
}

// Run ejecuta el loop hasta que el contexto se cancele.
// Cada espera se interrumpe inmediatamente al cancelar.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"instruments", len(s.instruments),
		"kill_zones", len(s.cfg.Calendar.Zones),
		"min_score", s.cfg.MinPublishScore,
	)

	for {
		state, wait := s.Tick(ctx)
		if state == StateStopped || !sleep(ctx, wait) {
			slog.Info("scanner stopped")
			return nil
		}
	}
}

// Tick ejecuta un paso de la máquina de estados y devuelve cuánto esperar.
func (s *Scanner) Tick(ctx context.Context) (TickState, time.Duration) {
	if ctx.Err() != nil {
		return StateStopped, 0
	}

	now := s.clock.Now()
	if !s.cfg.Calendar.Contains(now) {
		slog.Debug("outside kill zone, waiting", "now", now.Format("15:04:05"))
		return s.done(StateOutsideWindow, s.cfg.OutsideWindowInterval)
	}

	if !s.ensureSession(ctx) {
		return s.done(StateAuthFailed, s.cfg.AuthBackoff)
	}

	report := s.cycle(ctx)
	if report.Winner == nil {
		return s.done(StateNoSignal, s.cfg.NoSignalBackoff)
	}

	s.deliver(ctx, *report.Winner)
	return s.done(StateSignal, s.cfg.Cooldown)
}

// RunOnce ejecuta exactamente un ciclo, sin kill zone ni comprobación de sesión,
// y devuelve el reporte completo.
func (s *Scanner) RunOnce(ctx context.Context) (domain.CycleReport, error) {
	if len(s.instruments) == 0 {
		return domain.CycleReport{}, fmt.Errorf("scanner.RunOnce: no instruments configured")
	}
	return s.cycle(ctx), nil
}

func (s *Scanner) done(state TickState, wait time.Duration) (TickState, time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordTick(string(state))
	}
	return state, wait
}

// ensureSession verifica la sesión y re-autentica si se perdió.
func (s *Scanner) ensureSession(ctx context.Context) bool {
	if s.session == nil {
		return true
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	alive := s.session.IsAuthenticated(checkCtx)
	cancel()
	if alive {
		return true
	}

	slog.Warn("session lost, re-authenticating")
	authCtx, cancel := context.WithTimeout(ctx, s.cfg.AuthTimeout)
	defer cancel()
	if err := s.session.Reauthenticate(authCtx); err != nil {
		slog.Error("re-authentication failed", "err", err, "retry_in", s.cfg.AuthBackoff)
		if s.metrics != nil {
			s.metrics.RecordAuthFailure()
		}
		return false
	}
	slog.Info("session restored")
	return true
}

// cycle evalúa todos los instrumentos y conserva la señal más fuerte.
// El fallo de un instrumento nunca bloquea a los demás.
func (s *Scanner) cycle(ctx context.Context) domain.CycleReport {
	report := domain.CycleReport{StartedAt: s.clock.Now()}
	start := time.Now()
	sel := NewSelector(s.cfg.MinPublishScore)

	for _, inst := range s.instruments {
		if ctx.Err() != nil {
			break
		}

		ev, sig, ok := s.evaluate(ctx, inst)
		report.Evaluations = append(report.Evaluations, ev)
		if s.metrics != nil {
			s.metrics.RecordEvaluation(ev)
		}
		if !ok {
			continue
		}
		if sel.Offer(sig) {
			slog.Debug("new cycle leader", "instrument", inst, "score", sig.Score)
		}
	}

	if best, ok := sel.Best(); ok {
		report.Winner = &best
	}
	report.Duration = time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveCycle(report.Duration)
	}

	if s.reporter != nil {
		if err := s.reporter.ReportCycle(ctx, report); err != nil {
			slog.Warn("cycle reporter error", "err", err)
		}
	}

	slog.Info("cycle complete",
		"instruments", len(report.Evaluations),
		"signal", report.Winner != nil,
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report
}

// evaluate obtiene ambas series y ejecuta el Assembler para un instrumento.
func (s *Scanner) evaluate(ctx context.Context, inst domain.Instrument) (domain.Evaluation, domain.Signal, bool) {
	coarse, err := s.fetch(ctx, inst, s.cfg.CoarseTimeframe, s.cfg.CoarseCount)
	if err != nil {
		slog.Debug("no coarse candles", "instrument", inst, "err", err)
		return domain.Evaluation{Instrument: inst, Time: s.clock.Now(), Skipped: "no coarse candles"}, domain.Signal{}, false
	}
	fine, err := s.fetch(ctx, inst, s.cfg.FineTimeframe, s.cfg.FineCount)
	if err != nil {
		slog.Debug("no fine candles", "instrument", inst, "err", err)
		return domain.Evaluation{Instrument: inst, Time: s.clock.Now(), Skipped: "no fine candles"}, domain.Signal{}, false
	}

	ev := s.assembler.Evaluate(inst, coarse, fine, s.clock.Now())
	slog.Debug("instrument evaluated",
		"instrument", inst,
		"score", ev.Score,
		"ob", ev.Flags.OrderBlock,
		"fvg", ev.Flags.FairValueGap,
		"sweep", ev.Flags.LiquiditySweep,
		"bos", ev.Flags.BreakOfStructure,
		"engulfing", ev.Flags.Engulfing.String(),
		"kill_zone", ev.InKillZone,
	)

	sig, ok := s.assembler.Build(ev)
	return ev, sig, ok
}

func (s *Scanner) fetch(ctx context.Context, inst domain.Instrument, tf domain.Timeframe, count int) (domain.Series, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	series, err := s.candles.FetchCandles(callCtx, inst, tf, count)
	if err != nil {
		return nil, fmt.Errorf("scanner.fetch %s %s: %w", inst, tf, err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("scanner.fetch %s %s: %w", inst, tf, domain.ErrNoCandles)
	}
	return series, nil
}

// deliver publica la señal una vez. Un fallo se registra y no se reintenta.
func (s *Scanner) deliver(ctx context.Context, sig domain.Signal) {
	if s.metrics != nil {
		s.metrics.RecordSignal(sig)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	if err := s.deliverer.Deliver(callCtx, sig); err != nil {
		slog.Warn("signal delivery failed", "instrument", sig.Instrument, "err", err)
		if s.metrics != nil {
			s.metrics.RecordDeliveryFailure("deliver")
		}
		return
	}
	slog.Info("signal delivered",
		"instrument", sig.Instrument,
		"direction", sig.Direction,
		"score", sig.Score,
		"expiry_min", sig.ExpiryMinutes,
		"reasons", sig.ReasonText(),
	)
}

// sleep espera d respetando el contexto. Devuelve false si se canceló.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
