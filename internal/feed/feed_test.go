package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/val"
)

// memEngine is a minimal in-memory kvs.Engine, duplicated per-package
// test-only (see internal/catalog/catalog_test.go for the same shape)
// since internal/kvs's own fake is unexported in its own test file.
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

func newTestTxn(t *testing.T) *kvs.Transaction {
	mgr := kvs.NewManager(newMemEngine())
	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)
	return txn
}

func cfSchema(retention time.Duration, includeOriginal bool) catalog.TableSchema {
	return catalog.TableSchema{
		Table: catalog.Table{
			NS: "acme", DB: "main", Name: "post",
			ChangeFeedEnabled: retention > 0, ChangeFeedRetention: retention,
			ChangeFeedIncludeOriginal: includeOriginal,
		},
	}
}

func postValue(id val.RecordID, title string) val.Value {
	return val.Object(map[string]val.Value{
		"id":    val.FromRecordID(id),
		"title": val.String(title),
	})
}

func TestAppend_DisabledTableIsNoop(t *testing.T) {
	txn := newTestTxn(t)
	schema := cfSchema(0, false)
	id := val.NewStringID("post", "p1")

	require.NoError(t, Append(txn, schema, doc.ActionCreate, val.None(), postValue(id, "hi"), time.Unix(0, 1000)))

	muts, err := ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	assert.Empty(t, muts)
}

func TestAppend_FreshCreateAlwaysWritesSet(t *testing.T) {
	txn := newTestTxn(t)
	schema := cfSchema(time.Hour, true)
	id := val.NewStringID("post", "p1")

	require.NoError(t, Append(txn, schema, doc.ActionCreate, val.None(), postValue(id, "hi"), time.Unix(0, 1000)))

	muts, err := ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	require.Len(t, muts, 1)
	assert.Equal(t, MutationSet, muts[0].Kind)
	assert.True(t, muts[0].Before.IsNone())
}

func TestAppend_UpdateWithIncludeOriginalWritesSetWithDiff(t *testing.T) {
	txn := newTestTxn(t)
	schema := cfSchema(time.Hour, true)
	id := val.NewStringID("post", "p1")
	before := postValue(id, "hi")
	after := postValue(id, "bye")

	require.NoError(t, Append(txn, schema, doc.ActionUpdate, before, after, time.Unix(0, 2000)))

	muts, err := ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	require.Len(t, muts, 1)
	assert.Equal(t, MutationSetWithDiff, muts[0].Kind)
	title, _ := muts[0].Before.AsObject()
	s, _ := title["title"].AsString()
	assert.Equal(t, "hi", s)
}

func TestAppend_UpdateWithoutIncludeOriginalWritesSet(t *testing.T) {
	txn := newTestTxn(t)
	schema := cfSchema(time.Hour, false)
	id := val.NewStringID("post", "p1")

	require.NoError(t, Append(txn, schema, doc.ActionUpdate, postValue(id, "hi"), postValue(id, "bye"), time.Unix(0, 2000)))

	muts, err := ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	require.Len(t, muts, 1)
	assert.Equal(t, MutationSet, muts[0].Kind)
	assert.True(t, muts[0].Before.IsNone())
}

func TestAppend_DeleteWritesDelKind(t *testing.T) {
	txn := newTestTxn(t)
	schema := cfSchema(time.Hour, false)
	id := val.NewStringID("post", "p1")

	require.NoError(t, Append(txn, schema, doc.ActionDelete, postValue(id, "hi"), val.None(), time.Unix(0, 3000)))

	muts, err := ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	require.Len(t, muts, 1)
	assert.Equal(t, MutationDel, muts[0].Kind)
	assert.True(t, muts[0].After.IsNone())
}

func TestReadSince_OrdersByVersionStamp(t *testing.T) {
	txn := newTestTxn(t)
	schema := cfSchema(time.Hour, false)
	id1 := val.NewStringID("post", "p1")
	id2 := val.NewStringID("post", "p2")

	require.NoError(t, Append(txn, schema, doc.ActionCreate, val.None(), postValue(id1, "one"), time.Unix(0, 1000)))
	require.NoError(t, Append(txn, schema, doc.ActionCreate, val.None(), postValue(id2, "two"), time.Unix(0, 2000)))

	muts, err := ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	require.Len(t, muts, 2)
	assert.Equal(t, id1.Collate(), muts[0].RecordIDBytes)
	assert.Equal(t, id2.Collate(), muts[1].RecordIDBytes)
}

func TestGC_DeletesEntriesBeforeWatermark(t *testing.T) {
	txn := newTestTxn(t)
	schema := cfSchema(time.Hour, false)
	id := val.NewStringID("post", "p1")

	require.NoError(t, Append(txn, schema, doc.ActionCreate, val.None(), postValue(id, "old"), time.Unix(0, 1000)))
	require.NoError(t, Append(txn, schema, doc.ActionCreate, val.None(), postValue(id, "new"), time.Unix(0, int64(3*time.Hour))))

	watermark := keys.NewVersionStamp(uint64(time.Hour), 0)
	require.NoError(t, GC(txn, "acme", "main", watermark))

	muts, err := ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	require.Len(t, muts, 1)
	title, _ := muts[0].After.AsObject()
	s, _ := title["title"].AsString()
	assert.Equal(t, "new", s)
}

func TestRegistry_PublishDeliversToRegisteredChannel(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	sub := reg.Register(id, 4)

	reg.Publish(Notification{LiveQueryID: id, Action: NotifyCreate, Result: val.String("hi")})

	select {
	case n := <-sub:
		assert.Equal(t, NotifyCreate, n.Action)
	default:
		t.Fatal("expected a queued notification")
	}
}

func TestRegistry_PublishToUnregisteredIDIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Publish(Notification{LiveQueryID: uuid.New(), Action: NotifyCreate})
}

func TestRegistry_UnregisterClosesChannel(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	sub := reg.Register(id, 1)
	reg.Unregister(id)

	_, ok := <-sub
	assert.False(t, ok)
	assert.False(t, reg.Has(id))
}

func TestFeed_NotifyPublishesPlainAndDiffResults(t *testing.T) {
	f := New()
	plainID := uuid.New()
	diffID := uuid.New()
	plainSub := f.Registry.Register(plainID, 4)
	diffSub := f.Registry.Register(diffID, 4)

	before := val.String("old")
	after := val.String("new")
	f.Notify([]LiveMatch{{ID: plainID, Diff: false}, {ID: diffID, Diff: true}}, doc.ActionUpdate, before, after)

	plain := <-plainSub
	assert.Equal(t, after, plain.Result)

	diff := <-diffSub
	obj, ok := diff.Result.AsObject()
	require.True(t, ok)
	assert.Equal(t, before, obj["before"])
	assert.Equal(t, after, obj["after"])
}
