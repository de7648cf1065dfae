package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrendb/warrendb/internal/catalog"
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

func embeddingIndex() catalog.Index {
	return catalog.Index{
		NS: "acme", DB: "main", TB: "doc", Name: "embedding_hnsw",
		Fields: []string{"embedding"}, Method: catalog.IndexHNSW,
		Dimension: 3, Distance: catalog.DistanceEuclidean,
	}
}

func vecValue(vs ...float64) val.Value {
	arr := make([]val.Value, len(vs))
	for i, v := range vs {
		arr[i] = val.Float(v)
	}
	return val.Array(arr)
}

func TestDistance_Euclidean(t *testing.T) {
	d := Distance(catalog.DistanceEuclidean, []float64{0, 0}, []float64{3, 4})
	assert.InDelta(t, 5.0, d, 1e-9)
}

func TestDistance_Cosine(t *testing.T) {
	d := Distance(catalog.DistanceCosine, []float64{1, 0}, []float64{1, 0})
	assert.InDelta(t, 0.0, d, 1e-9)
}

func TestWriteIndex_InsertsElementAndLinksRecord(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := embeddingIndex()
	id := val.NewStringID("doc", "d1")
	after := val.Object(map[string]val.Value{"embedding": vecValue(1, 2, 3)})

	require.NoError(t, w.WriteIndex(txn, ix, id, val.None(), after))

	st, err := loadGraphState(txn, ix)
	require.NoError(t, err)
	assert.True(t, st.HasEntry)
}

func TestSearch_FindsNearestNeighbour(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := embeddingIndex()

	require.NoError(t, w.WriteIndex(txn, ix, val.NewStringID("doc", "near"), val.None(),
		val.Object(map[string]val.Value{"embedding": vecValue(1, 1, 1)})))
	require.NoError(t, w.WriteIndex(txn, ix, val.NewStringID("doc", "far"), val.None(),
		val.Object(map[string]val.Value{"embedding": vecValue(100, 100, 100)})))

	results, err := w.Search(txn, ix, []float64{1, 1, 1.1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, val.NewStringID("doc", "near").Collate(), results[0].RecordIDBytes)
}

func TestRemoveIndex_ClearsElement(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := embeddingIndex()
	id := val.NewStringID("doc", "d1")
	after := val.Object(map[string]val.Value{"embedding": vecValue(1, 2, 3)})

	require.NoError(t, w.WriteIndex(txn, ix, id, val.None(), after))
	require.NoError(t, w.RemoveIndex(txn, ix, id, after))

	_, present, err := w.lookupElement(txn, ix, id.Collate())
	require.NoError(t, err)
	assert.False(t, present)
}
