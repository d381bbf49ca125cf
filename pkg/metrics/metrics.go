package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appstore_connect",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the App Store Connect API.",
		},
		[]string{"endpoint", "status"},
	)

	sliceOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appstore_connect",
			Subsystem: "reports",
			Name:      "slices_total",
			Help:      "Report slices fetched during fan-out, by outcome.",
		},
		[]string{"report_type", "outcome"},
	)

	flaggedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appstore_connect",
			Subsystem: "reports",
			Name:      "flagged_rows_total",
			Help:      "Rows flagged during normalization or aggregation.",
		},
		[]string{"flag"},
	)

	toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appstore_connect",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Tool invocations by tool and result code.",
		},
		[]string{"tool", "code"},
	)
)

func init() {
	Registry.MustRegister(upstreamRequests, sliceOutcomes, flaggedRows, toolCalls)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordUpstreamRequest(endpoint string, status int) {
	upstreamRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
}

func RecordSlice(reportType, outcome string) {
	sliceOutcomes.WithLabelValues(reportType, outcome).Inc()
}

func RecordFlaggedRow(flag string) {
	flaggedRows.WithLabelValues(flag).Inc()
}

func RecordToolCall(tool, code string) {
	toolCalls.WithLabelValues(tool, code).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
