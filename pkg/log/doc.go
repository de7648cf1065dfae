/*
Package log provides structured logging for warrendb using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("kvs")                     │          │
	│  │  - WithNodeID("node-abc123")                │          │
	│  │  - WithTxnID("txn-000042")                  │          │
	│  │  - WithTable("person")                      │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from every warrendb package

Log Levels:
  - Debug: per-record pipeline stage tracing
  - Info: catalog mutations, transaction commits, node lifecycle events
  - Warn: stale-node detection, changefeed GC running behind
  - Error: transaction conflicts surfaced to the caller, storage errors
  - Fatal: engine failed to open, process exits

Context Loggers:
  - WithComponent: add a component name ("kvs", "catalog", "search", "vector", "feed", "cluster")
  - WithNodeID: add this node's uuid
  - WithTxnID: add the active transaction's identifier
  - WithTable: add the (ns, db, table) a log line concerns

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("catalog initialized")

	kvsLog := log.WithComponent("kvs")
	kvsLog.Info().Str("txn_id", txnID).Msg("transaction committed")

	kvsLog.Error().Err(err).Msg("transaction conflict on commit")

# Integration Points

This package is used by:

  - internal/kvs: transaction begin/commit/cancel and conflict logging
  - internal/catalog: DEFINE/REMOVE statement logging
  - internal/doc: per-stage pipeline tracing at debug level
  - internal/search, internal/vector: index build and query logging
  - internal/feed: change feed and live query dispatch logging
  - internal/cluster: heartbeat, stale-node pruning, task lease acquisition

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields (.Str, .Int, .Err) instead of string concatenation
  - Create component-specific loggers with WithComponent
  - Include the transaction id on every log line inside a transaction's scope

Don't:
  - Log record payloads or field values (may contain user data)
  - Use Debug level in production
  - Log inside the per-record pipeline's hot path above Debug

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
