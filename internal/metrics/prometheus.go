package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

const namespace = "ictbot"

// Recorder implementa ports.Metrics usando Prometheus sobre un registry propio.
type Recorder struct {
	registry         *prometheus.Registry
	ticks            *prometheus.CounterVec
	evaluations      *prometheus.CounterVec
	patternHits      *prometheus.CounterVec
	scores           prometheus.Histogram
	signals          *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	authFailures     prometheus.Counter
	cycleDuration    prometheus.Histogram
}

// New crea un Recorder con todas las métricas registradas.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Scheduler ticks by resulting state",
			},
			[]string{"state"},
		),
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Instrument evaluations, skipped or scored",
			},
			[]string{"result"},
		),
		patternHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pattern_hits_total",
				Help:      "Detector hits by pattern",
			},
			[]string{"pattern"},
		),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confluence_score",
			Help:      "Confluence score of scored evaluations",
			Buckets:   []float64{0, domain.ScoreWeak, domain.ScoreConfluence, domain.ScoreGap, domain.ScoreKillZone, 100},
		}),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Signals emitted by direction",
			},
			[]string{"direction"},
		),
		deliveryFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delivery_failures_total",
				Help:      "Failed signal deliveries by channel",
			},
			[]string{"channel"},
		),
		authFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Failed re-authentication attempts",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full selection cycle",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// RecordTick cuenta un tick del loop.
func (r *Recorder) RecordTick(state string) {
	r.ticks.WithLabelValues(state).Inc()
}

// RecordEvaluation cuenta una evaluación y sus patrones detectados.
func (r *Recorder) RecordEvaluation(ev domain.Evaluation) {
	if ev.Skipped != "" {
		r.evaluations.WithLabelValues("skipped").Inc()
		return
	}
	r.evaluations.WithLabelValues("scored").Inc()
	r.scores.Observe(float64(ev.Score))

	for _, p := range ev.Flags.Reasons() {
		if p == domain.PatternEngulfing && !ev.Flags.Engulfing.Present() {
			continue
		}
		r.patternHits.WithLabelValues(string(p)).Inc()
	}
}

// RecordSignal cuenta una señal emitida.
func (r *Recorder) RecordSignal(sig domain.Signal) {
	r.signals.WithLabelValues(string(sig.Direction)).Inc()
}

// RecordDeliveryFailure cuenta un envío fallido.
func (r *Recorder) RecordDeliveryFailure(channel string) {
	r.deliveryFailures.WithLabelValues(channel).Inc()
}

// RecordAuthFailure cuenta una re-autenticación fallida.
func (r *Recorder) RecordAuthFailure() {
	r.authFailures.Inc()
}

// ObserveCycle registra la duración de un ciclo.
func (r *Recorder) ObserveCycle(d time.Duration) {
	r.cycleDuration.Observe(d.Seconds())
}

// Handler expone el registry en formato Prometheus.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
