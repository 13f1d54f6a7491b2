// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics collection for the watchdog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsObserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "benderjob_jobs_observed_total",
		Help: "Total number of upload directories observed by the watchdog",
	})

	jobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "benderjob_jobs_created_total",
		Help: "Total number of descriptors created from uploads",
	})

	jobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "benderjob_jobs_rejected_total",
		Help: "Total number of uploads rejected (no scene file or unreadable)",
	})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benderjob_status_transitions_total",
		Help: "Status transitions driven by this process, by resulting status",
	}, []string{"status"})

	saveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "benderjob_sidecar_save_errors_total",
		Help: "Total number of failed sidecar writes",
	})
)

// IncJobsObserved counts an observed upload directory.
func IncJobsObserved() { jobsObserved.Inc() }

// IncJobsCreated counts a descriptor created from an upload.
func IncJobsCreated() { jobsCreated.Inc() }

// IncJobsRejected counts a rejected upload.
func IncJobsRejected() { jobsRejected.Inc() }

// IncTransition counts a status transition by its resulting status.
func IncTransition(status string) { transitions.WithLabelValues(status).Inc() }

// IncSaveError counts a failed sidecar write.
func IncSaveError() { saveErrors.Inc() }
