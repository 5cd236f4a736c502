package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "gistkv"

	metricLabelOperation = "operation"
	metricLabelStatus    = "status"
	metricLabelRoute     = "route"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// GistRequestCounter counts the requests sent to the gist API
	GistRequestCounter = newCounterVec(
		"gist_request_count",
		"Count of requests sent to the gist API for each operation",
		metricLabelOperation, metricLabelStatus,
	)
	// GistRequestDuration observes the duration of requests sent to the gist API
	GistRequestDuration = newSummaryVec(
		"gist_request_duration_seconds",
		"Seconds spent on a gist API request",
		metricLabelOperation, metricLabelStatus,
	)
	// TruncatedReadsCounter counts reads that had to follow the raw url
	TruncatedReadsCounter = newCounterVec(
		"truncated_read_count",
		"Number of reads where the gist API truncated the file content",
	)
	// MutationsCompletedCounter counts snapshots that were pushed successfully
	MutationsCompletedCounter = newCounterVec(
		"mutations_completed_count",
		"Number of mutations that were successfully pushed to the gist",
	)
	// MutationsFailedCounter counts snapshots that could not be pushed
	MutationsFailedCounter = newCounterVec(
		"mutations_failed_count",
		"Number of mutations that failed to be pushed to the gist",
	)
	// ServiceRequestCounter count the number of requests for each handler route
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler route",
		metricLabelRoute, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of requests for each handler route
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to unmarshal requests, execute a store operation and marshal its reponses",
		metricLabelRoute, metricLabelStatus,
	)
	// HistoryPersistFailedCounter count the number of failed attempts to mirror a snapshot
	HistoryPersistFailedCounter = newCounterVec(
		"history_persist_failed_count",
		"Number of failures to store a snapshot in the local history",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
