/*
Package metrics provides Prometheus metrics collection and exposition for warrendb.

The metrics package defines and registers every warrendb metric using the
Prometheus client library, providing observability into transaction
throughput, document pipeline latency, full-text and vector index size and
query latency, change feed lag, and cluster node liveness. Metrics are
exposed via an HTTP endpoint for scraping by Prometheus servers.

# Metrics Catalog

Transaction manager (internal/kvs, spec §4.2):

warrendb_kvs_transactions_total{mode,outcome}:
  - Type: Counter
  - Labels: mode (ro/rw), outcome (commit/cancel/conflict)

warrendb_kvs_transaction_conflicts_total:
  - Type: Counter
  - Optimistic transaction commit conflicts

warrendb_kvs_transaction_duration_seconds:
  - Type: Histogram
  - Time from begin to commit/cancel

Document pipeline (internal/doc, spec §4.5):

warrendb_doc_pipeline_duration_seconds{table,stage}:
  - Type: Histogram
  - Per-stage latency of the 15-stage record pipeline

Full-text search (internal/search, spec §4.6):

warrendb_search_query_duration_seconds{index}:
  - Type: Histogram

warrendb_search_indexed_terms_total{index}:
  - Type: Gauge

Vector index (internal/vector, spec §4.7):

warrendb_hnsw_insert_duration_seconds{index}:
  - Type: Histogram

warrendb_hnsw_search_duration_seconds{index}:
  - Type: Histogram

warrendb_hnsw_elements_total{index}:
  - Type: Gauge

Change feed / live queries (internal/feed, spec §4.8):

warrendb_changefeed_lag_seconds{ns,db,table}:
  - Type: Gauge

warrendb_live_queries_total{table}:
  - Type: Gauge

warrendb_notifications_sent_total{action}:
  - Type: Counter

Cluster / node lifecycle (internal/cluster, spec §4.10):

warrendb_cluster_nodes_total{status}:
  - Type: Gauge

warrendb_cluster_task_leases_held{task}:
  - Type: Gauge

warrendb_cluster_raft_is_leader:
  - Type: Gauge

# Usage

	timer := metrics.NewTimer()
	// ... run the document pipeline for one record ...
	timer.ObserveDurationVec(metrics.DocPipelineDuration, table, "store")

	http.Handle("/metrics", metrics.Handler())

# Health and Collector

health.go exposes /health, /ready and /live handlers backed by a
HealthChecker that components register themselves against.
collector.go polls a Source (satisfied by internal/cluster's Roster,
which also reads the search and vector index sizes) on a
fixed interval to keep the gauge metrics current without every
caller having to remember to update them inline.
*/
package metrics
