package boltengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrendb/warrendb/internal/kvs"
)

func TestEngine_SetGetScan(t *testing.T) {
	dir := t.TempDir()
	eng, err := Open(dir)
	require.NoError(t, err)
	defer eng.Close()

	ctx := context.Background()
	wb := &kvs.WriteBatch{}
	wb.Set([]byte("a"), []byte("1"))
	wb.Set([]byte("b"), []byte("2"))
	wb.Set([]byte("c"), []byte("3"))
	require.NoError(t, eng.Apply(ctx, wb, nil))

	snap, err := eng.NewSnapshot(ctx)
	require.NoError(t, err)
	defer snap.Close()

	v, ok, err := snap.Get([]byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), v)

	kvsOut, err := snap.Scan([]byte("a"), []byte("c"), false, 0)
	require.NoError(t, err)
	require.Len(t, kvsOut, 2)
	assert.Equal(t, "a", string(kvsOut[0].Key))
	assert.Equal(t, "b", string(kvsOut[1].Key))
}

func TestEngine_ScanReverse(t *testing.T) {
	dir := t.TempDir()
	eng, err := Open(dir)
	require.NoError(t, err)
	defer eng.Close()

	ctx := context.Background()
	wb := &kvs.WriteBatch{}
	for _, k := range []string{"a", "b", "c", "d"} {
		wb.Set([]byte(k), []byte(k))
	}
	require.NoError(t, eng.Apply(ctx, wb, nil))

	snap, err := eng.NewSnapshot(ctx)
	require.NoError(t, err)
	defer snap.Close()

	out, err := snap.Scan([]byte("a"), nil, true, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "d", string(out[0].Key))
	assert.Equal(t, "c", string(out[1].Key))
}

func TestEngine_ApplyConflictCheckRollsBack(t *testing.T) {
	dir := t.TempDir()
	eng, err := Open(dir)
	require.NoError(t, err)
	defer eng.Close()

	ctx := context.Background()
	wb := &kvs.WriteBatch{}
	wb.Set([]byte("a"), []byte("1"))

	failing := func(kvs.Snapshot) error { return assert.AnError }
	err = eng.Apply(ctx, wb, failing)
	assert.Error(t, err)

	snap, err := eng.NewSnapshot(ctx)
	require.NoError(t, err)
	defer snap.Close()
	_, ok, err := snap.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok, "a failed conflict check must roll back the whole batch")
}

func TestEngine_DeleteRange(t *testing.T) {
	dir := t.TempDir()
	eng, err := Open(dir)
	require.NoError(t, err)
	defer eng.Close()

	ctx := context.Background()
	wb := &kvs.WriteBatch{}
	for _, k := range []string{"a", "b", "c", "d"} {
		wb.Set([]byte(k), []byte(k))
	}
	require.NoError(t, eng.Apply(ctx, wb, nil))

	del := &kvs.WriteBatch{}
	del.DeleteRange([]byte("b"), []byte("d"))
	require.NoError(t, eng.Apply(ctx, del, nil))

	snap, err := eng.NewSnapshot(ctx)
	require.NoError(t, err)
	defer snap.Close()
	out, err := snap.Scan(nil, nil, false, 0)
	require.NoError(t, err)
	var keys []string
	for _, kv := range out {
		keys = append(keys, string(kv.Key))
	}
	assert.Equal(t, []string{"a", "d"}, keys)
}
