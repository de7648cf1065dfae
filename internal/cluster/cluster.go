// Package cluster implements spec §4.10: node heartbeats, task leases,
// and stale-node pruning with live-query reassignment. Membership
// changes (a node joining or permanently leaving the roster) are
// proposed through internal/cluster/raftlog's replicated log the way
// the teacher's pkg/manager.Manager wires a Raft FSM over BoltDB log
// stores; heartbeats and task leases stay plain KV compare-and-set
// against internal/kvs, exactly as spec §4.10 describes them, since
// neither needs cross-node consensus beyond what the KV layer already
// gives a single committed write.
package cluster

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warrendb/warrendb/pkg/log"
)

// DefaultHeartbeatInterval is how often a node refreshes its own
// heartbeat key (spec §4.10 "periodic tick").
const DefaultHeartbeatInterval = 5 * time.Second

// DefaultStaleThreshold is how long a node's heartbeat may go
// unrefreshed before any other node is entitled to prune it.
const DefaultStaleThreshold = 3 * DefaultHeartbeatInterval

// Named background tasks a node can hold a TaskLease for (spec §4.10
// "Leased tasks are: change-feed GC, index compaction, event
// processing").
const (
	TaskChangeFeedGC    = "changefeed-gc"
	TaskIndexCompaction = "index-compaction"
	TaskEventProcessing = "event-processing"
)

// Cluster bundles node-lifecycle operations under one process-wide
// logger and this node's own identity, the way every other subsystem
// (internal/feed.Feed, internal/search.Writer) wraps its operations in
// a small owning struct rather than free functions alone.
type Cluster struct {
	Self uuid.UUID
	log  zerolog.Logger
}

func New(self uuid.UUID) *Cluster {
	return &Cluster{Self: self, log: log.WithComponent("cluster")}
}
