package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "auth_connector"

// queryCacheTotal counts cache lookups per operation.
// Labels:
//   - op: the query operation name (e.g. "credentials.email-exists")
//   - result: "hit", "miss" or "shared" (attached to another in-flight call)
var queryCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "query_cache_total",
		Help:      "Total number of query cache lookups, by operation and result.",
	},
	[]string{"op", "result"},
)

// queryFetchDuration measures upstream fetches (cache misses only), from
// dispatch to settled result, retries included.
// Labels:
//   - op: the query operation name
//   - result: "success" or "error"
var queryFetchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "query_fetch_duration_seconds",
		Help:      "Duration of upstream query fetches, retries included.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op", "result"},
)

// mutationsTotal counts executed mutations.
// Labels:
//   - op: the mutation operation name (e.g. "credentials.create")
//   - result: "success" or "error"
var mutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "mutations_total",
		Help:      "Total number of mutations executed, by operation and result.",
	},
	[]string{"op", "result"},
)

// invalidationsTotal counts cache invalidations triggered by successful
// mutations or explicit calls.
// Label:
//   - op: the query operation name whose entries were invalidated
var invalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "invalidations_total",
		Help:      "Total number of cache invalidations, by invalidated operation.",
	},
	[]string{"op"},
)
