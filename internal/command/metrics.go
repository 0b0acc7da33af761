// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess          = "success"
	StatusError            = "error"
	StatusNotFound         = "not_found"
	StatusPermissionDenied = "permission_denied"
	StatusInvalidArgs      = "invalid_args"
)

// CommandExecutions is the counter for command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatekeeper_command_executions_total",
		Help: "Total number of command executions",
	},
	[]string{"command", "status"},
)

// CommandDuration is the histogram for command execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gatekeeper_command_duration_seconds",
		Help:    "Command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// RegisterMetrics registers command package metrics with the given
// Prometheus registry. This must be called at startup to make metrics
// available on /metrics. Panics if registration fails (following
// prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
}

// RecordCommandExecution increments the command execution counter.
func RecordCommandExecution(command, status string) {
	CommandExecutions.WithLabelValues(command, status).Inc()
}

// RecordCommandDuration records the duration of a command execution.
func RecordCommandDuration(command string, duration time.Duration) {
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}
