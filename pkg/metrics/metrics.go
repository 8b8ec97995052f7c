package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session bootstrap metrics
	SessionBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eksgateway_session_builds_total",
		Help: "Total number of cluster session build attempts by outcome",
	}, []string{"outcome"})
	SessionBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "eksgateway_session_build_duration_seconds",
		Help:    "Duration of successful cluster session builds",
		Buckets: prometheus.DefBuckets,
	})
	SessionInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eksgateway_session_invalidations_total",
		Help: "Total number of sessions discarded after an auth rejection",
	})
	TokenMints = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eksgateway_token_mints_total",
		Help: "Total number of IAM bearer token mint attempts by outcome",
	}, []string{"outcome"})
	ClusterLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eksgateway_cluster_lookups_total",
		Help: "Total number of control-plane DescribeCluster calls by outcome",
	}, []string{"outcome"})
	AuthRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eksgateway_auth_rejections_total",
		Help: "Total number of cluster API requests rejected as unauthenticated or forbidden",
	})

	// Resource operation metrics
	JobOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eksgateway_job_operations_total",
		Help: "Total number of Job operations by verb and outcome",
	}, []string{"operation", "outcome"})
	NamespaceOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eksgateway_namespace_operations_total",
		Help: "Total number of Namespace operations by verb and outcome",
	}, []string{"operation", "outcome"})

	// Audit sink metrics
	AuditEventsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eksgateway_audit_events_written_total",
		Help: "Total number of audit events written per sink",
	}, []string{"sink"})
	AuditEventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eksgateway_audit_events_failed_total",
		Help: "Total number of audit events that failed to write per sink",
	}, []string{"sink"})
)

func init() {
	prometheus.MustRegister(SessionBuilds)
	prometheus.MustRegister(SessionBuildDuration)
	prometheus.MustRegister(SessionInvalidations)
	prometheus.MustRegister(TokenMints)
	prometheus.MustRegister(ClusterLookups)
	prometheus.MustRegister(AuthRejections)
	prometheus.MustRegister(JobOperations)
	prometheus.MustRegister(NamespaceOperations)
	prometheus.MustRegister(AuditEventsWritten)
	prometheus.MustRegister(AuditEventsFailed)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
