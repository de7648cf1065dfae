package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transaction manager metrics (internal/kvs, spec §4.2)
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warrendb_kvs_transactions_total",
			Help: "Total number of transactions by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	TransactionConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warrendb_kvs_transaction_conflicts_total",
			Help: "Total number of optimistic transaction commit conflicts",
		},
	)

	TransactionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warrendb_kvs_transaction_duration_seconds",
			Help:    "Time a transaction stayed open, from begin to commit/cancel",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Document pipeline metrics (internal/doc, spec §4.5)
	DocPipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warrendb_doc_pipeline_duration_seconds",
			Help:    "Time to run the per-record processing pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table", "stage"},
	)

	// Full-text search metrics (internal/search, spec §4.6)
	SearchQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warrendb_search_query_duration_seconds",
			Help:    "Time to evaluate a full-text search query",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"index"},
	)

	SearchIndexedTermsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warrendb_search_indexed_terms_total",
			Help: "Total number of distinct terms carried by a full-text index",
		},
		[]string{"index"},
	)

	// Vector index metrics (internal/vector, spec §4.7)
	HNSWInsertDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warrendb_hnsw_insert_duration_seconds",
			Help:    "Time to insert an element into an HNSW index",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"index"},
	)

	HNSWSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warrendb_hnsw_search_duration_seconds",
			Help:    "Time to run a k-nearest-neighbor search against an HNSW index",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"index"},
	)

	HNSWElementsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warrendb_hnsw_elements_total",
			Help: "Total number of elements carried by an HNSW index",
		},
		[]string{"index"},
	)

	// Change feed / live query metrics (internal/feed, spec §4.8)
	ChangefeedLagSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warrendb_changefeed_lag_seconds",
			Help: "Age of the oldest unconsumed change feed entry for a table",
		},
		[]string{"ns", "db", "table"},
	)

	LiveQueriesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warrendb_live_queries_total",
			Help: "Total number of registered live queries by table",
		},
		[]string{"table"},
	)

	NotificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warrendb_notifications_sent_total",
			Help: "Total number of live query notifications delivered, by action",
		},
		[]string{"action"},
	)

	// Cluster / node lifecycle metrics (internal/cluster, spec §4.10)
	ClusterNodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warrendb_cluster_nodes_total",
			Help: "Total number of known nodes by liveness status",
		},
		[]string{"status"},
	)

	TaskLeasesHeld = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warrendb_cluster_task_leases_held",
			Help: "Whether this node currently holds a named singleton task lease (1) or not (0)",
		},
		[]string{"task"},
	)

	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "warrendb_cluster_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TransactionsTotal,
		TransactionConflictsTotal,
		TransactionDuration,
		DocPipelineDuration,
		SearchQueryDuration,
		SearchIndexedTermsTotal,
		HNSWInsertDuration,
		HNSWSearchDuration,
		HNSWElementsTotal,
		ChangefeedLagSeconds,
		LiveQueriesTotal,
		NotificationsSentTotal,
		ClusterNodesTotal,
		TaskLeasesHeld,
		RaftLeader,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
