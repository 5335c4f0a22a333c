package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	purchaseAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_attempts_total",
			Help: "Purchase attempts by outcome",
		},
		[]string{"result"},
	)

	purchaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "purchase_duration_seconds",
			Help:    "Time spent handling a purchase",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"result"},
	)

	ticketsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Passes sold per event",
		},
		[]string{"event_id"},
	)

	remainingPasses = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_remaining_passes",
			Help: "Remaining passes per event as of the last purchase",
		},
		[]string{"event_id"},
	)

	compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_compensations_total",
			Help: "Compensating increments after a failed order write",
		},
		[]string{"outcome"},
	)

	reconciliationCases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_reconciliation_cases_total",
			Help: "Passes lost because both the order write and its compensation failed",
		},
	)

	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Login and signup attempts",
		},
		[]string{"kind", "result"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)
)

const (
	CompensationRestored = "restored"
	CompensationFailed   = "failed"
)

type Monitor struct {
	interval time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{interval: 30 * time.Second}
}

// Run samples runtime metrics until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.collectGoroutineMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectGoroutineMetrics()
		}
	}
}

func (m *Monitor) collectGoroutineMetrics() {
	goroutineCount.Set(float64(runtime.NumGoroutine()))
}

// TrackPurchase records the outcome of one purchase call.
func (m *Monitor) TrackPurchase(result string, duration time.Duration) {
	purchaseAttempts.WithLabelValues(result).Inc()
	purchaseDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// TrackSale records passes sold and the inventory left afterwards.
func (m *Monitor) TrackSale(eventID string, quantity, remaining int) {
	ticketsSold.WithLabelValues(eventID).Add(float64(quantity))
	remainingPasses.WithLabelValues(eventID).Set(float64(remaining))
}

func (m *Monitor) TrackCompensation(outcome string) {
	compensations.WithLabelValues(outcome).Inc()
}

func (m *Monitor) TrackReconciliationCase() {
	reconciliationCases.Inc()
}

func (m *Monitor) TrackAuth(kind, result string) {
	authAttempts.WithLabelValues(kind, result).Inc()
}

func (m *Monitor) TrackRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

// Serve exposes /metrics on its own port until ctx is done.
func Serve(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
