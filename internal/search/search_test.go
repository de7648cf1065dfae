package search

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

func titleIndex() catalog.Index {
	return catalog.Index{NS: "acme", DB: "main", TB: "post", Name: "title_ft", Fields: []string{"title"}, Method: catalog.IndexFullText}
}

func TestAnalyze_BlankLowercase(t *testing.T) {
	a := catalog.Analyzer{Tokenizers: []string{"blank"}, Filters: []string{"lowercase"}}
	toks := Analyze(a, "The Quick Brown Fox")
	assert.Equal(t, []string{"the", "quick", "brown", "fox"}, toks)
}

func TestWriteIndex_AssignsDocIDAndPostings(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := titleIndex()
	id := val.NewStringID("post", "p1")
	after := val.Object(map[string]val.Value{"title": val.String("graph databases are fast")})

	require.NoError(t, w.WriteIndex(txn, ix, id, val.None(), after))

	st, err := loadState(txn, ix)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.DocCount)
	assert.Equal(t, int64(4), st.TotalTerms)
}

func TestWriteIndex_UpdateReplacesPostings(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := titleIndex()
	id := val.NewStringID("post", "p1")
	before := val.Object(map[string]val.Value{"title": val.String("old title text")})
	after := val.Object(map[string]val.Value{"title": val.String("new content")})

	require.NoError(t, w.WriteIndex(txn, ix, id, val.None(), before))
	require.NoError(t, w.WriteIndex(txn, ix, id, before, after))

	st, err := loadState(txn, ix)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.DocCount)
	assert.Equal(t, int64(2), st.TotalTerms)
}

func TestRemoveIndex_ClearsState(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := titleIndex()
	id := val.NewStringID("post", "p1")
	after := val.Object(map[string]val.Value{"title": val.String("graph databases")})

	require.NoError(t, w.WriteIndex(txn, ix, id, val.None(), after))
	require.NoError(t, w.RemoveIndex(txn, ix, id, after))

	st, err := loadState(txn, ix)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.DocCount)
	assert.Equal(t, int64(0), st.TotalTerms)
}

func TestSearch_ReturnsOnlyMatchingDocWithPositiveScore(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := titleIndex()

	require.NoError(t, w.WriteIndex(txn, ix, val.NewStringID("post", "p1"), val.None(),
		val.Object(map[string]val.Value{"title": val.String("graph database graph engine")})))
	require.NoError(t, w.WriteIndex(txn, ix, val.NewStringID("post", "p2"), val.None(),
		val.Object(map[string]val.Value{"title": val.String("relational database basics")})))

	results, err := Search(txn, ix, "graph", DefaultK1, DefaultB, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, val.NewStringID("post", "p1").Collate(), results[0].RecordIDBytes)
	assert.Greater(t, results[0].Score, 0.0, "a term present in only 1 of 2 docs must score positive")
}

func TestSearch_NoMatchesReturnsEmpty(t *testing.T) {
	txn := newTestTxn(t)
	w := NewWriter(catalog.NewAllocator())
	ix := titleIndex()
	require.NoError(t, w.WriteIndex(txn, ix, val.NewStringID("post", "p1"), val.None(),
		val.Object(map[string]val.Value{"title": val.String("graph database")})))

	results, err := Search(txn, ix, "nonexistentterm", DefaultK1, DefaultB, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
