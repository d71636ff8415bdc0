// Package metrics defines and registers all custom Prometheus metrics for the
// launchpad. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "launchpad"

// ── Launch metrics ────────────────────────────────────────────────────────────

// ToolLaunchesTotal counts launch attempts that reached the orchestrator.
// Labels:
//   - tool: tool id
//   - strategy: "url", "remote_desktop", "executable", "project", "bundle"
//   - status: desktop status ("launched", "not_found", "error", "not_configured") or "url"
var ToolLaunchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_launches_total",
		Help:      "Total number of tool launch attempts, by strategy and outcome.",
	},
	[]string{"tool", "strategy", "status"},
)

// BundleBringUpsTotal counts dev-tool bundle bring-ups by their terminal state.
// Label:
//   - result: "browser_opened" or "failed"
var BundleBringUpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bundle_bringups_total",
		Help:      "Total number of multi-process bundle bring-ups, by terminal state.",
	},
	[]string{"result"},
)

// ── Service control metrics ───────────────────────────────────────────────────

// ServiceActionsTotal counts start/stop/restart requests.
// Labels:
//   - service: OS service name
//   - action: "start", "stop", "restart"
//   - result: "ok", "access_denied", "error"
var ServiceActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "service_actions_total",
		Help:      "Total number of service control actions, by result.",
	},
	[]string{"service", "action", "result"},
)

// ServiceUp is 1 when the last poll saw the service Running, 0 otherwise.
// Label:
//   - service: OS service name
var ServiceUp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_up",
		Help:      "Whether the configured service was Running at the last poll.",
	},
	[]string{"service"},
)

// ShellDuration measures shell invocations used for service control.
// Label:
//   - kind: "status", "logs", "action"
var ShellDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "shell_duration_seconds",
		Help:      "Duration of shell invocations for service control.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
	},
	[]string{"kind"},
)
