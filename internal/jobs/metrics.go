package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studypath_jobs_started_total",
		Help: "Pipeline runs scheduled, including retries.",
	})
	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studypath_jobs_finished_total",
		Help: "Pipeline runs finished, by outcome.",
	}, []string{"status"})
	stepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studypath_job_step_failures_total",
		Help: "Step failures, by step name.",
	}, []string{"step"})
	watchdogTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studypath_job_watchdog_timeouts_total",
		Help: "Jobs forced to error by the watchdog.",
	})
	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studypath_job_duration_seconds",
		Help:    "Wall time of one pipeline run.",
		Buckets: prometheus.DefBuckets,
	})
)
