package cluster

import (
	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
)

// ReassignLiveQueries walks every namespace/database/table and hands
// ownership of any live query still assigned to staleNode over to
// newOwner (spec §4.10; supplemented per `original_source/core/src/
// kvs/tests/{hb,lq,ndlq}.rs`, whose heartbeat-GC tests pair "prune a
// stale node" with "its registered live queries move to the node
// running the GC"). There is no catalog-wide live-query index, so this
// is a full enumeration; it runs from PruneStale, which cmd/warrendb
// calls on each heartbeat tick, not on the per-record hot path, so the
// cost is paid at a cadence the rest of the system never sees.
func ReassignLiveQueries(txn doc.TxnWriter, staleNode, newOwner uuid.UUID) error {
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
				lqs, err := catalog.ListLiveQueries(txn, ns.Name, db.Name, tb.Name)
				if err != nil {
					return err
				}
				for _, lq := range lqs {
					if lq.OwnerNode != staleNode {
						continue
					}
					if _, err := catalog.UpdateLiveQueryOwner(txn, lq, newOwner); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
