// Package metrics defines Prometheus metrics for the locker front end.
//
// Metric naming follows Prometheus conventions:
//   - smartlocker_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BackendRequestsTotal counts calls to the locker REST backend by
	// operation and outcome (2xx, 4xx, 5xx, error).
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlocker_backend_requests_total",
			Help: "Total backend REST calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	// BackendRequestSeconds is a histogram of backend call latency.
	BackendRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartlocker_backend_request_seconds",
			Help:    "Latency of backend REST calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// PollsTotal counts directory poll ticks by result.
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlocker_directory_polls_total",
			Help: "Total locker directory refreshes by result.",
		},
		[]string{"result"},
	)

	// ReservationsTotal counts reservation submissions by result.
	ReservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlocker_reservations_total",
			Help: "Total reservation requests by result.",
		},
		[]string{"result"},
	)

	// GuardDecisionsTotal counts route guard outcomes.
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlocker_guard_decisions_total",
			Help: "Total route guard decisions by outcome.",
		},
		[]string{"decision"},
	)

	// ActiveWatches is the number of running directory polls.
	ActiveWatches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smartlocker_active_watches",
			Help: "Number of locker directory polls currently running.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BackendRequestsTotal,
		BackendRequestSeconds,
		PollsTotal,
		ReservationsTotal,
		GuardDecisionsTotal,
		ActiveWatches,
	)
}

// Outcome buckets an HTTP status; 0 means the request never got a response.
func Outcome(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// RecordBackendRequest records one backend call.
func RecordBackendRequest(op string, status int, d time.Duration) {
	BackendRequestsTotal.WithLabelValues(op, Outcome(status)).Inc()
	BackendRequestSeconds.WithLabelValues(op).Observe(d.Seconds())
}

func RecordPoll(err error) {
	PollsTotal.WithLabelValues(result(err)).Inc()
}

func RecordReservation(err error) {
	ReservationsTotal.WithLabelValues(result(err)).Inc()
}

func RecordGuardDecision(decision string) {
	GuardDecisionsTotal.WithLabelValues(decision).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
