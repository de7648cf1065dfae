package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/kvs"
)

// memEngine is a minimal in-memory kvs.Engine, duplicated per-package
// test-only (see internal/catalog/catalog_test.go for the same shape).
type memEngine struct{ data map[string][]byte }

func newMemEngine() *memEngine { return &memEngine{data: map[string][]byte{}} }

func (e *memEngine) NewSnapshot(_ context.Context) (kvs.Snapshot, error) {
	cp := make(map[string][]byte, len(e.data))
	for k, v := range e.data {
		cp[k] = append([]byte(nil), v...)
	}
	return &memSnapshot{data: cp}, nil
}

func (e *memEngine) Apply(_ context.Context, batch kvs.Batch, checkConflict func(kvs.Snapshot) error) error {
	if checkConflict != nil {
		snap, _ := e.NewSnapshot(context.Background())
		if err := checkConflict(snap); err != nil {
			return err
		}
	}
	wb := batch.(*kvs.WriteBatch)
	for _, op := range wb.Ops() {
		switch {
		case op.DelRange:
			for k := range e.data {
				if k >= string(op.Key) && (op.Hi == nil || k < string(op.Hi)) {
					delete(e.data, k)
				}
			}
		case op.Del:
			delete(e.data, string(op.Key))
		default:
			e.data[string(op.Key)] = append([]byte(nil), op.Value...)
		}
	}
	return nil
}

func (e *memEngine) Close() error { return nil }

type memSnapshot struct{ data map[string][]byte }

func (s *memSnapshot) Get(key []byte) ([]byte, bool, error) {
	v, ok := s.data[string(key)]
	return v, ok, nil
}

func (s *memSnapshot) Scan(lo, hi []byte, reverse bool, limit int) ([]kvs.KV, error) {
	var out []kvs.KV
	for k, v := range s.data {
		if k < string(lo) || (hi != nil && k >= string(hi)) {
			continue
		}
		out = append(out, kvs.KV{Key: []byte(k), Value: v})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if string(out[j].Key) < string(out[i].Key) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memSnapshot) Close() error { return nil }

func newTestTxn(t *testing.T, mgr *kvs.Manager) *kvs.Transaction {
	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)
	return txn
}

func TestBeat_WritesHeartbeatKey(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)
	c := New(uuid.New())

	now := time.Unix(1000, 0)
	require.NoError(t, c.Beat(txn, now))

	lo, hi := keys.HeartbeatScopeRange()
	rows, err := txn.Scan(lo, hi, false, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPruneStale_CompactsToLatestAndPrunesOldNode(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)

	fresh := New(uuid.New())
	stale := New(uuid.New())

	base := time.Unix(10_000, 0)
	require.NoError(t, stale.Beat(txn, base))
	require.NoError(t, fresh.Beat(txn, base))
	require.NoError(t, fresh.Beat(txn, base.Add(1*time.Second)))
	require.NoError(t, fresh.Beat(txn, base.Add(2*time.Second)))

	now := base.Add(4 * time.Second)
	newOwner := uuid.New()
	pruned, err := PruneStale(txn, now, 3*time.Second, newOwner)
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	assert.Equal(t, stale.Self, pruned[0])

	lo, hi := keys.HeartbeatScopeRange()
	rows, err := txn.Scan(lo, hi, false, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "stale's row is gone, fresh's two superseded ticks are compacted away, only fresh's latest tick remains")
}

func TestPruneStale_LeavesFreshNodeAlone(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)

	fresh := New(uuid.New())
	now := time.Unix(20_000, 0)
	require.NoError(t, fresh.Beat(txn, now))

	pruned, err := PruneStale(txn, now, 3*time.Second, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, pruned)
}

func TestAcquireLease_NoOwnerSucceeds(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)
	c := New(uuid.New())

	ok, err := c.AcquireLease(txn, TaskChangeFeedGC, time.Unix(0, 0), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	lease, present, err := GetLease(txn, TaskChangeFeedGC)
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, c.Self, lease.Owner)
}

func TestAcquireLease_UnexpiredOtherOwnerFails(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)

	holder := New(uuid.New())
	ok, err := holder.AcquireLease(txn, TaskIndexCompaction, time.Unix(0, 0), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	challenger := New(uuid.New())
	ok, err = challenger.AcquireLease(txn, TaskIndexCompaction, time.Unix(10, 0), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcquireLease_ExpiredOtherOwnerSucceeds(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)

	holder := New(uuid.New())
	ok, err := holder.AcquireLease(txn, TaskEventProcessing, time.Unix(0, 0), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	challenger := New(uuid.New())
	ok, err = challenger.AcquireLease(txn, TaskEventProcessing, time.Unix(0, 0).Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	lease, _, err := GetLease(txn, TaskEventProcessing)
	require.NoError(t, err)
	assert.Equal(t, challenger.Self, lease.Owner)
}

func TestRenewLease_OtherOwnerFails(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)

	holder := New(uuid.New())
	_, err := holder.AcquireLease(txn, TaskChangeFeedGC, time.Unix(0, 0), time.Minute)
	require.NoError(t, err)

	other := New(uuid.New())
	err = other.RenewLease(txn, TaskChangeFeedGC, time.Unix(10, 0), time.Minute)
	assert.Error(t, err)
}

func TestReassignLiveQueries_MovesOwnedQueriesOnly(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)
	alloc := catalog.NewAllocator()

	_, err := catalog.DefineNamespace(txn, alloc, "acme")
	require.NoError(t, err)
	_, err = catalog.DefineDatabase(txn, alloc, "acme", "main")
	require.NoError(t, err)
	_, err = catalog.DefineTable(txn, "acme", "main", "post", false)
	require.NoError(t, err)

	staleNode := uuid.New()
	otherNode := uuid.New()
	newOwner := uuid.New()

	owned, err := catalog.DefineLiveQuery(txn, catalog.LiveQuery{NS: "acme", DB: "main", TB: "post", OwnerNode: staleNode})
	require.NoError(t, err)
	unowned, err := catalog.DefineLiveQuery(txn, catalog.LiveQuery{NS: "acme", DB: "main", TB: "post", OwnerNode: otherNode})
	require.NoError(t, err)

	require.NoError(t, ReassignLiveQueries(txn, staleNode, newOwner))

	got, err := catalog.GetLiveQuery(txn, "acme", "main", "post", owned.UUID)
	require.NoError(t, err)
	assert.Equal(t, newOwner, got.OwnerNode)

	gotOther, err := catalog.GetLiveQuery(txn, "acme", "main", "post", unowned.UUID)
	require.NoError(t, err)
	assert.Equal(t, otherNode, gotOther.OwnerNode)
}

func TestRoster_SearchAndHNSWAndLiveQueryCounts(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn := newTestTxn(t, mgr)
	alloc := catalog.NewAllocator()

	_, err := catalog.DefineNamespace(txn, alloc, "acme")
	require.NoError(t, err)
	_, err = catalog.DefineDatabase(txn, alloc, "acme", "main")
	require.NoError(t, err)
	_, err = catalog.DefineTable(txn, "acme", "main", "post", false)
	require.NoError(t, err)
	_, err = catalog.DefineLiveQuery(txn, catalog.LiveQuery{NS: "acme", DB: "main", TB: "post"})
	require.NoError(t, err)

	require.NoError(t, txn.Commit(context.Background()))

	roster := NewRoster(mgr)
	lq, err := roster.LiveQueriesByTable()
	require.NoError(t, err)
	assert.Equal(t, 1, lq["acme/main/post"])

	terms, err := roster.SearchIndexedTerms()
	require.NoError(t, err)
	assert.Empty(t, terms)

	elems, err := roster.HNSWElements()
	require.NoError(t, err)
	assert.Empty(t, elems)
}
