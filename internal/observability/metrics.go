// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level collectors let the auth, offload, and session packages
// record events without holding a Server. They are registered with a
// registry by NewMetrics.
var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yaug_login_attempts_total",
			Help: "Total number of credential validations by outcome",
		},
		[]string{"outcome"},
	)

	validateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yaug_login_validate_duration_seconds",
			Help:    "Wall-clock time of credential validation by outcome",
			Buckets: []float64{.005, .01, .025, .05, .075, .1, .15, .25, .5, 1, 2.5},
		},
		[]string{"outcome"},
	)

	offloadQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yaug_offload_queue_depth",
			Help: "Number of tasks waiting for a hashing worker",
		},
	)

	offloadRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yaug_offload_rejected_total",
			Help: "Total number of offloaded tasks not run to a waiting caller, by reason",
		},
		[]string{"reason"},
	)

	offloadWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yaug_offload_wait_seconds",
			Help:    "Time tasks spent queued before a worker picked them up",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	sessionOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yaug_session_operations_total",
			Help: "Total number of session store operations by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// RecordLoginOutcome counts a validation and observes its duration.
func RecordLoginOutcome(outcome string, d time.Duration) {
	loginAttempts.WithLabelValues(outcome).Inc()
	validateDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetOffloadQueueDepth records the current offload queue length.
func SetOffloadQueueDepth(n int) {
	offloadQueueDepth.Set(float64(n))
}

// RecordOffloadRejected counts a task that was refused or abandoned.
func RecordOffloadRejected(reason string) {
	offloadRejected.WithLabelValues(reason).Inc()
}

// ObserveOffloadWait records how long a task sat in the queue.
func ObserveOffloadWait(d time.Duration) {
	offloadWait.Observe(d.Seconds())
}

// RecordSessionOperation counts a session store operation.
func RecordSessionOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	sessionOperations.WithLabelValues(operation, status).Inc()
}

// Metrics contains request-level metrics owned by the web layer.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
}

// NewMetrics creates the web metrics and registers them, together with the
// package-level collectors, on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yaug_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(
		loginAttempts,
		validateDuration,
		offloadQueueDepth,
		offloadRejected,
		offloadWait,
		sessionOperations,
	)

	return m
}
