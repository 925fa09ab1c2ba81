// SPDX-License-Identifier: MIT

// Package metrics exposes prometheus counters for playback policy outcomes.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startOffsetTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_start_offset_total",
		Help: "Total number of start-offset resolutions by source kind, start policy, and offset tag",
	}, []string{"source", "policy", "tag"})

	seekDecisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_seek_decision_total",
		Help: "Total number of seek and go-live policy decisions by source kind and decision",
	}, []string{"source", "decision"})

	policyWarningTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_policy_warning_total",
		Help: "Total number of non-fatal policy warnings by kind",
	}, []string{"kind"})
)

// RecordStartOffset records one start-offset resolution outcome.
func RecordStartOffset(source, policy, tag string) {
	startOffsetTotal.WithLabelValues(
		normalizeSourceLabel(source),
		normalizePolicyLabel(policy),
		normalizeTagLabel(tag),
	).Inc()
}

// RecordSeekDecision records one seek or go-live policy decision.
func RecordSeekDecision(source, decision string) {
	seekDecisionTotal.WithLabelValues(
		normalizeSourceLabel(source),
		normalizeDecisionLabel(decision),
	).Inc()
}

// RecordPolicyWarning records one non-fatal policy warning.
func RecordPolicyWarning(kind string) {
	policyWarningTotal.WithLabelValues(normalizeWarningLabel(kind)).Inc()
}

func normalizeSourceLabel(source string) string {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "asset", "channel", "program":
		return strings.ToLower(strings.TrimSpace(source))
	default:
		return "unknown"
	}
}

func normalizePolicyLabel(policy string) string {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "default", "beginning", "bookmark", "custom_position", "custom_time":
		return strings.ToLower(strings.TrimSpace(policy))
	default:
		return "unknown"
	}
}

func normalizeTagLabel(tag string) string {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "position", "time":
		return strings.ToLower(strings.TrimSpace(tag))
	default:
		return "unknown"
	}
}

func normalizeDecisionLabel(decision string) string {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "seek_local", "escalate_program", "go_live", "re_entitle_channel", "abandon", "reject_contract":
		return strings.ToLower(strings.TrimSpace(decision))
	default:
		return "unknown"
	}
}

func normalizeWarningLabel(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "seekable_ranges_empty", "discontinuous_seekable_ranges", "seek_time_beyond_live_point",
		"invalid_start_time", "program_service_fetch_failure", "program_service_validation_failure", "epg_gap":
		return strings.ToLower(strings.TrimSpace(kind))
	default:
		return "unknown"
	}
}
