package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds Prometheus collectors for decoding and chain calls.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	decodes          *prometheus.CounterVec
	aggregateCalls   *prometheus.CounterVec
	aggregateLatency prometheus.Histogram
	aggregateSize    prometheus.Histogram
	batchDuration    prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "narrator_log_decodes_total",
			Help: "Logs processed, by outcome",
		}, []string{"status"}),
		aggregateCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "narrator_multicall_requests_total",
			Help: "Multicall aggregate requests, by result",
		}, []string{"result"}),
		aggregateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrator_multicall_duration_seconds",
			Help:    "Latency of multicall aggregate requests including retries",
			Buckets: prometheus.DefBuckets,
		}),
		aggregateSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrator_multicall_batch_size",
			Help:    "Sub-calls per multicall aggregate request",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrator_batch_duration_seconds",
			Help:    "Wall time of batch decodes",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.decodes, m.aggregateCalls, m.aggregateLatency, m.aggregateSize, m.batchDuration)
	}
	return m
}

// DecodeOutcome counts one processed log.
func (m *Metrics) DecodeOutcome(status string) {
	if m != nil {
		m.decodes.WithLabelValues(status).Inc()
	}
}

// AggregateObserved records one multicall request.
func (m *Metrics) AggregateObserved(calls int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.aggregateCalls.WithLabelValues(result).Inc()
	m.aggregateLatency.Observe(elapsed.Seconds())
	m.aggregateSize.Observe(float64(calls))
}

// BatchObserved records the wall time of one batch decode.
func (m *Metrics) BatchObserved(elapsed time.Duration) {
	if m != nil {
		m.batchDuration.Observe(elapsed.Seconds())
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
