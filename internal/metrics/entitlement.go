// SPDX-License-Identifier: MIT

package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var entitlementRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "playcore_entitlement_request_total",
	Help: "Total number of entitlement resolutions by playable kind, outcome, and whether the unencrypted-DRM retry fired",
}, []string{"kind", "outcome", "retried"})

// RecordEntitlementRequest records one prepareSource resolution outcome.
func RecordEntitlementRequest(kind, outcome string, retried bool) {
	entitlementRequestTotal.WithLabelValues(
		normalizeSourceLabel(kind),
		normalizeOutcomeLabel(outcome),
		strconv.FormatBool(retried),
	).Inc()
}

func normalizeOutcomeLabel(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "success", "error":
		return strings.ToLower(strings.TrimSpace(outcome))
	default:
		return "unknown"
	}
}
