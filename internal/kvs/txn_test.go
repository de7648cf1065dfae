package kvs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memEngine is an in-memory Engine for unit-testing the transaction
// manager without a real storage backend, the way the teacher's
// scheduler tests fake out node/service lookups with plain structs
// instead of a live store.
type memEngine struct {
	data map[string][]byte
}

func newMemEngine() *memEngine { return &memEngine{data: map[string][]byte{}} }

func (e *memEngine) NewSnapshot(_ context.Context) (Snapshot, error) {
	cp := make(map[string][]byte, len(e.data))
	for k, v := range e.data {
		cp[k] = append([]byte(nil), v...)
	}
	return &memSnapshot{data: cp}, nil
}

func (e *memEngine) Apply(_ context.Context, batch Batch, checkConflict func(Snapshot) error) error {
	if checkConflict != nil {
		snap, _ := e.NewSnapshot(context.Background())
		if err := checkConflict(snap); err != nil {
			return err
		}
	}
	wb := batch.(*WriteBatch)
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

func (s *memSnapshot) Scan(lo, hi []byte, reverse bool, limit int) ([]KV, error) {
	var out []KV
	for k, v := range s.data {
		if k < string(lo) || (hi != nil && k >= string(hi)) {
			continue
		}
		out = append(out, KV{Key: []byte(k), Value: v})
	}
	sortKVs(out)
	if reverse {
		reverseKVs(out)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memSnapshot) Close() error { return nil }

func TestTransaction_SetGetCommit(t *testing.T) {
	mgr := NewManager(newMemEngine())
	ctx := context.Background()

	txn, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	require.NoError(t, txn.Set([]byte("a"), []byte("1")))
	v, ok, err := txn.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
	require.NoError(t, txn.Commit(ctx))

	readTxn, err := mgr.Begin(ctx, ModeRead, LockOptimistic)
	require.NoError(t, err)
	v, ok, err = readTxn.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
}

func TestTransaction_PutIfAbsent(t *testing.T) {
	mgr := NewManager(newMemEngine())
	ctx := context.Background()

	txn, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	require.NoError(t, txn.PutIfAbsent([]byte("a"), []byte("1")))
	err = txn.PutIfAbsent([]byte("a"), []byte("2"))
	assert.Error(t, err, "second put_if_absent on the same key within a transaction must fail")
	require.NoError(t, txn.Commit(ctx))
}

func TestTransaction_DelAndDelRange(t *testing.T) {
	mgr := NewManager(newMemEngine())
	ctx := context.Background()

	setup, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, setup.Set([]byte(k), []byte("v")))
	}
	require.NoError(t, setup.Commit(ctx))

	txn, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	require.NoError(t, txn.DelRange([]byte("a"), []byte("c")))
	kvs, err := txn.Scan([]byte(""), []byte("z"), false, 0)
	require.NoError(t, err)
	var keys []string
	for _, kv := range kvs {
		keys = append(keys, string(kv.Key))
	}
	assert.Equal(t, []string{"c"}, keys)
	require.NoError(t, txn.Commit(ctx))
}

func TestTransaction_OptimisticConflict(t *testing.T) {
	mgr := NewManager(newMemEngine())
	ctx := context.Background()

	seed, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	require.NoError(t, seed.Set([]byte("a"), []byte("1")))
	require.NoError(t, seed.Commit(ctx))

	txnA, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	_, _, err = txnA.Get([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, txnA.Set([]byte("a"), []byte("2")))

	txnB, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	require.NoError(t, txnB.Set([]byte("a"), []byte("3")))
	require.NoError(t, txnB.Commit(ctx))

	err = txnA.Commit(ctx)
	assert.Error(t, err, "txnA read 'a' before txnB overwrote it, so its commit must conflict")
}

func TestTransaction_PessimisticSerializes(t *testing.T) {
	mgr := NewManager(newMemEngine())
	ctx := context.Background()

	txnA, err := mgr.Begin(ctx, ModeWrite, LockPessimistic)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		txnB, err := mgr.Begin(ctx, ModeWrite, LockPessimistic)
		assert.NoError(t, err)
		assert.NoError(t, txnB.Set([]byte("b"), []byte("2")))
		assert.NoError(t, txnB.Commit(ctx))
		close(done)
	}()

	require.NoError(t, txnA.Set([]byte("a"), []byte("1")))
	require.NoError(t, txnA.Commit(ctx))
	<-done
}

func TestTransaction_ReadOnlyCannotWrite(t *testing.T) {
	mgr := NewManager(newMemEngine())
	ctx := context.Background()

	txn, err := mgr.Begin(ctx, ModeRead, LockOptimistic)
	require.NoError(t, err)
	assert.Error(t, txn.Set([]byte("a"), []byte("1")))
}

func TestTransaction_CancelDiscardsWrites(t *testing.T) {
	mgr := NewManager(newMemEngine())
	ctx := context.Background()

	txn, err := mgr.Begin(ctx, ModeWrite, LockOptimistic)
	require.NoError(t, err)
	require.NoError(t, txn.Set([]byte("a"), []byte("1")))
	require.NoError(t, txn.Cancel())

	readTxn, err := mgr.Begin(ctx, ModeRead, LockOptimistic)
	require.NoError(t, err)
	_, ok, err := readTxn.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}
