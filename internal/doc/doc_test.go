package doc

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

func personSchema() catalog.TableSchema {
	return catalog.TableSchema{
		Table: catalog.Table{NS: "acme", DB: "main", Name: "person", Schemafull: true},
		Fields: []catalog.Field{
			{Name: "name", Kind: val.KindString},
			{Name: "age", Kind: val.KindNumber, Optional: true},
		},
	}
}

func TestRun_CreateStoresRecord(t *testing.T) {
	txn := newTestTxn(t)
	schema := personSchema()
	id := val.NewStringID("person", "tobie")

	mut := Mutation{Kind: MutationContent, Data: val.Object(map[string]val.Value{
		"name": val.String("Tobie"),
		"junk": val.String("dropped by clean"),
	})}

	res, err := Run(txn, schema, id, ActionCreate, val.None(), mut, Hooks{})
	require.NoError(t, err)

	obj, ok := res.After.AsObject()
	require.True(t, ok)
	name, _ := obj["name"].AsString()
	assert.Equal(t, "Tobie", name)
	_, hasJunk := obj["junk"]
	assert.False(t, hasJunk, "clean stage should have dropped a field not in schema")

	storedID, ok := obj["id"].AsRecordID()
	require.True(t, ok)
	assert.True(t, storedID.Equal(id))
}

func TestRun_FieldCheckFailsOnBadCoercion(t *testing.T) {
	txn := newTestTxn(t)
	schema := catalog.TableSchema{
		Table: catalog.Table{NS: "acme", DB: "main", Name: "person", Schemafull: true},
		Fields: []catalog.Field{
			{Name: "age", Kind: val.KindNumber, Optional: false},
		},
	}
	id := val.NewStringID("person", "a")

	mut := Mutation{Kind: MutationContent, Data: val.Object(map[string]val.Value{
		"age": val.String("not a number"),
	})}

	_, err := Run(txn, schema, id, ActionCreate, val.None(), mut, Hooks{})
	assert.Error(t, err)
}

func TestRun_CheckStageSkipsSilently(t *testing.T) {
	txn := newTestTxn(t)
	schema := personSchema()
	id := val.NewStringID("person", "a")
	mut := Mutation{Kind: MutationContent, Data: val.Object(map[string]val.Value{"name": val.String("x")})}

	hooks := Hooks{Check: func(before, working val.Value) (bool, error) { return false, nil }}
	_, err := Run(txn, schema, id, ActionCreate, val.None(), mut, hooks)
	assert.ErrorIs(t, err, ErrSkip)
}

func TestRun_UniqueIndexConflict(t *testing.T) {
	txn := newTestTxn(t)
	schema := personSchema()
	schema.Indexes = []catalog.Index{{NS: "acme", DB: "main", TB: "person", Name: "name_u", Fields: []string{"name"}, Method: catalog.IndexBTree, Unique: true}}

	mut1 := Mutation{Kind: MutationContent, Data: val.Object(map[string]val.Value{"name": val.String("dup")})}
	_, err := Run(txn, schema, val.NewStringID("person", "a"), ActionCreate, val.None(), mut1, Hooks{})
	require.NoError(t, err)

	mut2 := Mutation{Kind: MutationContent, Data: val.Object(map[string]val.Value{"name": val.String("dup")})}
	_, err = Run(txn, schema, val.NewStringID("person", "b"), ActionCreate, val.None(), mut2, Hooks{})
	assert.Error(t, err)
}

func TestRun_Delete(t *testing.T) {
	txn := newTestTxn(t)
	schema := personSchema()
	id := val.NewStringID("person", "a")
	mut := Mutation{Kind: MutationContent, Data: val.Object(map[string]val.Value{"name": val.String("x")})}
	res, err := Run(txn, schema, id, ActionCreate, val.None(), mut, Hooks{})
	require.NoError(t, err)

	delRes, err := Run(txn, schema, id, ActionDelete, res.After, Mutation{}, Hooks{})
	require.NoError(t, err)
	assert.True(t, delRes.After.IsNone())
}

func TestRun_RelateWritesEdges(t *testing.T) {
	txn := newTestTxn(t)
	schema := catalog.TableSchema{Table: catalog.Table{NS: "acme", DB: "main", Name: "likes", Schemafull: false}}
	id := val.NewStringID("likes", "1")
	from := val.NewStringID("person", "a")
	to := val.NewStringID("person", "b")
	mut := Mutation{Kind: MutationContent, Data: val.Object(map[string]val.Value{
		"in":  val.FromRecordID(from),
		"out": val.FromRecordID(to),
	})}
	_, err := Run(txn, schema, id, ActionRelate, val.None(), mut, Hooks{})
	require.NoError(t, err)
}
