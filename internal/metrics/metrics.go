package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigbooks_auth_requests_total",
		Help: "Authorization round-trips grouped by response status",
	}, []string{"status"})

	relayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigbooks_relay_requests_total",
		Help: "Relayed API calls grouped by method and outcome",
	}, []string{"method", "outcome"})

	relayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bigbooks_relay_duration_seconds",
		Help:    "Duration of relayed API calls including authorization",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	processStartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigbooks_process_starts_total",
		Help: "Supervised process launches grouped by outcome",
	}, []string{"outcome"})

	processReadyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bigbooks_process_ready_seconds",
		Help:    "Time from spawn until the supervised process passed its readiness gate",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	processLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bigbooks_process_live",
		Help: "1 while a supervised process handle is held",
	})
)

// ObserveAuth records one authorization round-trip. Status 0 means the endpoint was unreachable.
func ObserveAuth(status int) {
	authRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveRelay records the outcome of a relayed call.
func ObserveRelay(method, outcome string, duration time.Duration) {
	if method == "" {
		method = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	relayRequestsTotal.WithLabelValues(method, outcome).Inc()
	relayDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveProcessStart records a supervised launch attempt.
func ObserveProcessStart(outcome string, sinceSpawn time.Duration) {
	processStartsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ready" {
		processReadyDuration.Observe(sinceSpawn.Seconds())
	}
}

// SetProcessLive flips the live-handle gauge.
func SetProcessLive(live bool) {
	if live {
		processLive.Set(1)
		return
	}
	processLive.Set(0)
}
