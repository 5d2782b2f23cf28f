// Package metrics holds the Prometheus instruments incremented by the
// worker loop and exported by the API server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queuectl_jobs_claimed_total",
		Help: "Jobs claimed for execution.",
	})
	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queuectl_jobs_completed_total",
		Help: "Jobs that finished successfully.",
	})
	JobsRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queuectl_jobs_retried_total",
		Help: "Failed attempts requeued for retry.",
	})
	JobsDead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queuectl_jobs_dead_total",
		Help: "Jobs moved to the dead-letter queue.",
	})
	WorkersRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queuectl_workers_running",
		Help: "Worker loops currently running.",
	})
)
