// Package metrics exposes Prometheus collectors for imports, statements and
// the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashledger_import_rows_total",
		Help: "Statement rows seen by imports, by outcome (inserted, duplicate, dropped).",
	}, []string{"account", "outcome"})

	ImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cashledger_import_duration_seconds",
		Help:    "Time spent normalizing and storing one import batch.",
		Buckets: prometheus.DefBuckets,
	}, []string{"account"})

	StatementRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashledger_statement_rows_total",
		Help: "Statement rows served, by reconciliation status.",
	}, []string{"account", "status"})

	EventPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cashledger_event_publish_errors_total",
		Help: "Import events that could not be published.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashledger_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cashledger_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
