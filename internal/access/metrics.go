// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package access

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
)

// Decision and reason label values for check metrics.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"

	ReasonGranted      = "granted"
	ReasonUnauthorized = "unauthorized"
	ReasonError        = "error"
)

// PermissionChecks counts authorization decisions.
// Use RegisterMetrics to register this with a Prometheus registry.
var PermissionChecks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatekeeper_permission_checks_total",
		Help: "Total number of permission checks by permission, decision, and reason",
	},
	[]string{"permission", "decision", "reason"},
)

// RegisterMetrics registers access package metrics with the given Prometheus
// registry. Panics if registration fails (prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(PermissionChecks)
}

// RecordCheck increments the permission check counter.
func RecordCheck(p perm.Permission, decision, reason string) {
	PermissionChecks.WithLabelValues(p.Label(), decision, reason).Inc()
}
