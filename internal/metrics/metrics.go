// Package metrics provides Prometheus metrics for ingestion and session health.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "linkedin_ingest"

// Metrics holds the collectors shared by the session manager and ingestor.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Labels: outcome (ok, cached, fetch_error, parse_error, session_error, suspended)
	IngestRequests *prometheus.CounterVec
	IngestDuration prometheus.Histogram

	// Labels: result (ok, challenge, error)
	SessionLogins *prometheus.CounterVec

	// Labels: result (ok, error)
	NoiseRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IngestRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_requests_total",
				Help:      "Total number of profile ingestions by outcome",
			},
			[]string{"outcome"},
		),
		IngestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingest_duration_seconds",
				Help:      "Duration of profile ingestions in seconds, pacing included",
				Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
			},
		),
		SessionLogins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_logins_total",
				Help:      "Total number of full upstream logins by result",
			},
			[]string{"result"},
		),
		NoiseRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "noise_requests_total",
				Help:      "Total number of decoy upstream calls by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveIngest records one finished ingestion.
func (m *Metrics) ObserveIngest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IngestRequests.WithLabelValues(outcome).Inc()
	m.IngestDuration.Observe(elapsed.Seconds())
}

// Login records one login attempt.
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.SessionLogins.WithLabelValues(result).Inc()
}

// Noise records one decoy call.
func (m *Metrics) Noise(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NoiseRequests.WithLabelValues(result).Inc()
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
