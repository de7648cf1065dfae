package cluster

import (
	"context"
	"fmt"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/search"
	"github.com/warrendb/warrendb/internal/vector"
	"github.com/warrendb/warrendb/pkg/metrics"
)

// Roster implements pkg/metrics.Source by opening its own short-lived
// read transaction per call against the shared *kvs.Manager, the way
// pkg/manager.Manager.GetRaftStats reads straight off its local store
// rather than needing a caller to thread one through. A Collector
// calls these on a 15-second timer, so a full-catalog walk per call is
// an acceptable cost.
type Roster struct {
	mgr *kvs.Manager
}

func NewRoster(mgr *kvs.Manager) *Roster {
	return &Roster{mgr: mgr}
}

func (r *Roster) withReadTxn(fn func(*kvs.Transaction) error) error {
	txn, err := r.mgr.Begin(context.Background(), kvs.ModeRead, kvs.LockOptimistic)
	if err != nil {
		return err
	}
	defer txn.Cancel()
	return fn(txn)
}

// NodeCounts reports every distinct node uuid seen in the heartbeat
// family, bucketed as "alive" (latest tick within DefaultStaleThreshold
// of the transaction's snapshot time) or "stale".
func (r *Roster) NodeCounts() (metrics.NodeCounts, error) {
	counts := metrics.NodeCounts{"alive": 0, "stale": 0}
	err := r.withReadTxn(func(txn *kvs.Transaction) error {
		lo, hi := keys.HeartbeatScopeRange()
		rows, err := txn.Scan(lo, hi, false, 0)
		if err != nil {
			return err
		}
		latest := map[[16]byte]uint64{}
		for _, row := range rows {
			hb, err := keys.DecodeHeartbeat(row.Key)
			if err != nil {
				return err
			}
			if hb.TS > latest[hb.NodeUUID] {
				latest[hb.NodeUUID] = hb.TS
			}
		}
		cutoff := uint64(txn.Clock().Add(-DefaultStaleThreshold).UnixNano())
		for _, ts := range latest {
			if ts < cutoff {
				counts["stale"]++
			} else {
				counts["alive"]++
			}
		}
		return nil
	})
	return counts, err
}

// SearchIndexedTerms reports every full-text index's vocabulary size,
// keyed "ns/db/tb/index" the way ClusterNodesTotal's labels are plain
// strings.
func (r *Roster) SearchIndexedTerms() (map[string]int, error) {
	out := map[string]int{}
	err := r.forEachIndex(catalog.IndexFullText, func(txn *kvs.Transaction, ix catalog.Index) error {
		n, err := search.TermCount(txn, ix)
		if err != nil {
			return err
		}
		out[indexLabel(ix)] = n
		return nil
	})
	return out, err
}

// HNSWElements reports every HNSW index's live vector count.
func (r *Roster) HNSWElements() (map[string]int, error) {
	out := map[string]int{}
	err := r.forEachIndex(catalog.IndexHNSW, func(txn *kvs.Transaction, ix catalog.Index) error {
		n, err := vector.ElementCount(txn, ix)
		if err != nil {
			return err
		}
		out[indexLabel(ix)] = n
		return nil
	})
	return out, err
}

// LiveQueriesByTable reports the registered live-query count per
// table, keyed "ns/db/tb".
func (r *Roster) LiveQueriesByTable() (map[string]int, error) {
	out := map[string]int{}
	err := r.withReadTxn(func(txn *kvs.Transaction) error {
		return forEachTable(txn, func(ns, db string, tb catalog.Table) error {
			lqs, err := catalog.ListLiveQueries(txn, ns, db, tb.Name)
			if err != nil {
				return err
			}
			if len(lqs) > 0 {
				out[fmt.Sprintf("%s/%s/%s", ns, db, tb.Name)] = len(lqs)
			}
			return nil
		})
	})
	return out, err
}

// forEachIndex walks every namespace/database/table's indexes of one
// method, calling fn once per match inside a single read transaction.
func (r *Roster) forEachIndex(method catalog.IndexMethod, fn func(*kvs.Transaction, catalog.Index) error) error {
	return r.withReadTxn(func(txn *kvs.Transaction) error {
		return forEachTable(txn, func(ns, db string, tb catalog.Table) error {
			indexes, err := catalog.ListIndexes(txn, ns, db, tb.Name)
			if err != nil {
				return err
			}
			for _, ix := range indexes {
				if ix.Method != method {
					continue
				}
				if err := fn(txn, ix); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// forEachTable enumerates every table across every namespace/database.
func forEachTable(txn *kvs.Transaction, fn func(ns, db string, tb catalog.Table) error) error {
	namespaces, err := catalog.ListNamespaces(txn)
	if err != nil {
		return err
	}
	for _, ns := range namespaces {
		databases, err := catalog.ListDatabases(txn, ns.Name)
		if err != nil {
			return err
		}
		for _, db := range databases {
			tables, err := catalog.ListTables(txn, ns.Name, db.Name)
			if err != nil {
				return err
			}
			for _, tb := range tables {
				if err := fn(ns.Name, db.Name, tb); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func indexLabel(ix catalog.Index) string {
	return fmt.Sprintf("%s/%s/%s/%s", ix.NS, ix.DB, ix.TB, ix.Name)
}
