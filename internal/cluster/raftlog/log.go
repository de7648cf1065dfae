package raftlog

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/warrendb/warrendb/internal/kvs"
)

// Log wraps a *raft.Raft whose FSM is this package's node-membership
// state machine, grounded on the teacher's pkg/manager.Manager.Bootstrap/
// Join (same TCP transport, BoltDB log/stable store, file snapshot
// store) narrowed to the one command set this package defines.
type Log struct {
	raft *raft.Raft
	fsm  *FSM
}

// Bootstrap starts a brand-new single-node Raft group rooted at this
// node, the way Manager.Bootstrap seeds a fresh cluster.
func Bootstrap(mgr *kvs.Manager, nodeID, bindAddr, dataDir string) (*Log, error) {
	r, fsm, err := newRaft(mgr, nodeID, bindAddr, dataDir)
	if err != nil {
		return nil, err
	}
	future := r.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: raft.ServerID(nodeID), Address: raft.ServerAddress(bindAddr)}},
	})
	if err := future.Error(); err != nil {
		return nil, fmt.Errorf("raftlog: bootstrap: %w", err)
	}
	return &Log{raft: r, fsm: fsm}, nil
}

// Join starts this node's Raft instance without bootstrapping a new
// configuration; the caller is expected to have already had the
// existing leader add this node as a voter (AddVoter), mirroring
// Manager.Join's two-step "start raft, then contact leader" shape.
func Join(mgr *kvs.Manager, nodeID, bindAddr, dataDir string) (*Log, error) {
	r, fsm, err := newRaft(mgr, nodeID, bindAddr, dataDir)
	if err != nil {
		return nil, err
	}
	return &Log{raft: r, fsm: fsm}, nil
}

func newRaft(mgr *kvs.Manager, nodeID, bindAddr, dataDir string) (*raft.Raft, *FSM, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("raftlog: data dir: %w", err)
	}

	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(nodeID)

	addr, err := net.ResolveTCPAddr("tcp", bindAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("raftlog: resolve bind addr: %w", err)
	}
	transport, err := raft.NewTCPTransport(bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("raftlog: transport: %w", err)
	}
	snapshotStore, err := raft.NewFileSnapshotStore(dataDir, 2, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("raftlog: snapshot store: %w", err)
	}
	logStore, err := raftboltdb.NewBoltStore(filepath.Join(dataDir, "raftlog-log.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("raftlog: log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(dataDir, "raftlog-stable.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("raftlog: stable store: %w", err)
	}

	fsm := NewFSM(mgr)
	r, err := raft.NewRaft(config, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, nil, fmt.Errorf("raftlog: new raft: %w", err)
	}
	return r, fsm, nil
}

// ProposeJoin and ProposeLeave append a membership command to the
// log; the caller must already be (or become) the Raft leader for
// r.raft.Apply to succeed — exactly the constraint Manager.Apply
// documents.
func (l *Log) ProposeJoin(id uuid.UUID) error  { return l.propose(OpJoin, id) }
func (l *Log) ProposeLeave(id uuid.UUID) error { return l.propose(OpLeave, id) }

func (l *Log) propose(op string, id uuid.UUID) error {
	data, err := json.Marshal(Command{Op: op, NodeUUID: id.String()})
	if err != nil {
		return err
	}
	future := l.raft.Apply(data, 5*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("raftlog: apply %s: %w", op, err)
	}
	if resp := future.Response(); resp != nil {
		if err, ok := resp.(error); ok && err != nil {
			return err
		}
	}
	return nil
}

// AddVoter adds a new node to the Raft configuration; only the
// current leader may call this successfully.
func (l *Log) AddVoter(nodeID, address string) error {
	if l.raft.State() != raft.Leader {
		return fmt.Errorf("raftlog: not the leader, current leader: %s", l.raft.Leader())
	}
	future := l.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(address), 0, 10*time.Second)
	return future.Error()
}

func (l *Log) IsLeader() bool       { return l.raft.State() == raft.Leader }
func (l *Log) LeaderAddr() string   { return string(l.raft.Leader()) }
func (l *Log) Shutdown() error      { return l.raft.Shutdown().Error() }
