package cluster

import (
	"time"

	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
)

// Beat writes this node's heartbeat key for now (spec §4.10 "writes a
// heartbeat key ... on a periodic tick with its current logical
// timestamp"). Each tick adds a new (ts, node_uuid) row rather than
// overwriting one, since the key itself embeds ts; PruneStale
// compacts a node's older ticks down to its latest as it walks past
// them.
func (c *Cluster) Beat(txn doc.TxnWriter, now time.Time) error {
	key, err := keys.Heartbeat{TS: uint64(now.UnixNano()), NodeUUID: [16]byte(c.Self)}.Encode()
	if err != nil {
		return err
	}
	return txn.Set(key, nil)
}

// PruneStale scans the whole heartbeat family in ascending (oldest-
// first) key order — ascending on ts since Heartbeat's key embeds ts
// big-endian first — compacts every node down to its single most
// recent tick, and, for any node whose most recent tick still falls
// before now-threshold, deletes that last tick too and reassigns any
// live query it owned to newOwner (spec §4.10 "Stale nodes ... are
// pruned by any node observing them, which also reassigns any live
// queries owned by the stale node").
func PruneStale(txn doc.TxnWriter, now time.Time, threshold time.Duration, newOwner uuid.UUID) ([]uuid.UUID, error) {
	cutoff := uint64(now.Add(-threshold).UnixNano())
	lo, hi := keys.HeartbeatScopeRange()
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}

	// latest[node] is the index into rows of that node's most recent
	// tick; ascending order means the last occurrence we see wins.
	latest := map[uuid.UUID]int{}
	for i, row := range rows {
		hb, err := keys.DecodeHeartbeat(row.Key)
		if err != nil {
			return nil, err
		}
		latest[uuid.UUID(hb.NodeUUID)] = i
	}

	var stale []uuid.UUID
	for i, row := range rows {
		hb, err := keys.DecodeHeartbeat(row.Key)
		if err != nil {
			return nil, err
		}
		node := uuid.UUID(hb.NodeUUID)
		if latest[node] != i {
			// superseded by a later tick from the same node.
			if err := txn.Del(row.Key); err != nil {
				return nil, err
			}
			continue
		}
		if hb.TS < cutoff {
			if err := txn.Del(row.Key); err != nil {
				return nil, err
			}
			stale = append(stale, node)
		}
	}

	for _, node := range stale {
		if err := ReassignLiveQueries(txn, node, newOwner); err != nil {
			return nil, err
		}
	}
	return stale, nil
}
