// Package raftlog replicates cluster node-membership changes (DEFINE/
// REMOVE of the cluster-wide node roster, spec.md §4.10) through a
// Raft log, grounded directly on the teacher's pkg/manager.WarrenFSM:
// same Command{Op, Data} envelope, same Apply/Snapshot/Restore shape,
// narrowed to the one state machine this system needs (the node
// roster) instead of the teacher's nodes/services/containers/secrets/
// volumes/networks. Task leases and heartbeats stay plain KV compare-
// and-set (internal/cluster.AcquireLease, internal/cluster.Beat) —
// only membership itself needs a consensus-backed log, since a stale
// last-writer-wins join/leave could otherwise split the roster.
package raftlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/raft"

	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/kvs"
)

// Op names the two membership operations the log carries.
const (
	OpJoin  = "join_node"
	OpLeave = "leave_node"
)

// Command is one Raft log entry: Op plus the node uuid it concerns.
type Command struct {
	Op       string `json:"op"`
	NodeUUID string `json:"node_uuid"`
}

// FSM applies committed membership commands to the shared *kvs.Manager
// so Roster's NodeCounts and every other reader sees the same roster
// every node in the Raft group agreed on.
type FSM struct {
	mu  sync.Mutex
	mgr *kvs.Manager
}

func NewFSM(mgr *kvs.Manager) *FSM {
	return &FSM{mgr: mgr}
}

// Apply implements raft.FSM. It is invoked once per committed log
// entry, already serialized by Raft, so the internal mutex here only
// guards against this process's own concurrent Snapshot/Restore calls.
func (f *FSM) Apply(l *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(l.Data, &cmd); err != nil {
		return fmt.Errorf("raftlog: unmarshal command: %w", err)
	}
	id, err := uuid.Parse(cmd.NodeUUID)
	if err != nil {
		return fmt.Errorf("raftlog: parse node uuid: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ctx := context.Background()
	txn, err := f.mgr.Begin(ctx, kvs.ModeWrite, kvs.LockPessimistic)
	if err != nil {
		return fmt.Errorf("raftlog: begin: %w", err)
	}

	key, err := keys.Node{UUID: [16]byte(id)}.Encode()
	if err != nil {
		_ = txn.Cancel()
		return fmt.Errorf("raftlog: encode node key: %w", err)
	}

	switch cmd.Op {
	case OpJoin:
		err = txn.Set(key, nil)
	case OpLeave:
		err = txn.Del(key)
	default:
		err = fmt.Errorf("raftlog: unknown op %q", cmd.Op)
	}
	if err != nil {
		_ = txn.Cancel()
		return err
	}
	if err := txn.Commit(ctx); err != nil {
		return fmt.Errorf("raftlog: commit: %w", err)
	}
	return nil
}

// Snapshot captures the current node roster. Restore (on a fresh
// follower, or after log compaction) replays it by re-applying Join
// for every uuid in the snapshot rather than trying to diff against
// whatever is already in the KV store.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn, err := f.mgr.Begin(context.Background(), kvs.ModeRead, kvs.LockOptimistic)
	if err != nil {
		return nil, err
	}
	defer txn.Cancel()

	lo, hi := keys.NodeScopeRange()
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		node, err := keys.DecodeNode(row.Key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uuid.UUID(node.UUID).String())
	}
	return &snapshot{nodeUUIDs: ids}, nil
}

func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var ids []string
	if err := json.NewDecoder(rc).Decode(&ids); err != nil {
		return fmt.Errorf("raftlog: decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ctx := context.Background()
	txn, err := f.mgr.Begin(ctx, kvs.ModeWrite, kvs.LockPessimistic)
	if err != nil {
		return err
	}
	for _, idStr := range ids {
		id, err := uuid.Parse(idStr)
		if err != nil {
			_ = txn.Cancel()
			return err
		}
		key, err := keys.Node{UUID: [16]byte(id)}.Encode()
		if err != nil {
			_ = txn.Cancel()
			return err
		}
		if err := txn.Set(key, nil); err != nil {
			_ = txn.Cancel()
			return err
		}
	}
	return txn.Commit(ctx)
}

type snapshot struct{ nodeUUIDs []string }

func (s *snapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s.nodeUUIDs); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		_ = sink.Cancel()
	}
	return err
}

func (s *snapshot) Release() {}
