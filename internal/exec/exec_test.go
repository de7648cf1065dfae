package exec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/val"
)

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

func TestBlock_SequencesAndReturnsLast(t *testing.T) {
	s := NewSession()
	ran := []int{}
	stmt := Block(
		Let("x", func(context.Context, *Session) (val.Value, error) { ran = append(ran, 1); return val.Int(1), nil }),
		Let("y", func(context.Context, *Session) (val.Value, error) { ran = append(ran, 2); return val.Int(2), nil }),
	)
	v, err := stmt(context.Background(), s)
	require.NoError(t, err)
	n, _ := v.AsNumber()
	assert.Equal(t, int64(2), n.I)
	assert.Equal(t, []int{1, 2}, ran)
}

func TestFor_BreakStopsLoop(t *testing.T) {
	s := NewSession()
	var seen []int64
	body := Block(
		If(func(_ context.Context, s *Session) (bool, error) {
			v, _ := s.GetVar("i")
			n, _ := v.AsNumber()
			return n.I == 2, nil
		}, Break(), Statement(func(_ context.Context, s *Session) (val.Value, error) {
			v, _ := s.GetVar("i")
			n, _ := v.AsNumber()
			seen = append(seen, n.I)
			return val.None(), nil
		})),
	)
	loop := For(func(context.Context, *Session) ([]val.Value, error) {
		return []val.Value{val.Int(0), val.Int(1), val.Int(2), val.Int(3)}, nil
	}, "i", body)
	_, err := loop(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, seen)
}

func TestReturn_PropagatesThroughBlockAndFor(t *testing.T) {
	s := NewSession()
	loop := For(func(context.Context, *Session) ([]val.Value, error) {
		return []val.Value{val.Int(1), val.Int(2)}, nil
	}, "i", Return(val.String("done")))

	resp := RunStatement(context.Background(), loop, s, time.Now)
	require.NoError(t, resp.Err)
	str, _ := resp.Value.AsString()
	assert.Equal(t, "done", str)
}

func TestThrow_ProducesThrownError(t *testing.T) {
	s := NewSession()
	resp := RunStatement(context.Background(), Throw("boom"), s, time.Now)
	assert.Equal(t, StatusErr, resp.Status)
	assert.Error(t, resp.Err)
}

func TestRunStatement_TimeoutZeroExpiresImmediately(t *testing.T) {
	s := NewSession()
	zero := time.Duration(0)
	opts := Options{Timeout: &zero}
	ctx, cancel := opts.Deadline(context.Background(), time.Now())
	defer cancel()

	ran := false
	stmt := Statement(func(context.Context, *Session) (val.Value, error) {
		ran = true
		return val.None(), nil
	})

	resp := RunStatement(ctx, stmt, s, time.Now)
	assert.Equal(t, StatusErr, resp.Status)
	assert.True(t, errs.Is(resp.Err, errs.KindTimeout))
	assert.False(t, ran, "a TIMEOUT 0ms batch must not run any statement")
}

func TestRunStatement_NilTimeoutNeverExpires(t *testing.T) {
	s := NewSession()
	opts := Options{}
	ctx, cancel := opts.Deadline(context.Background(), time.Now())
	defer cancel()

	resp := RunStatement(ctx, Statement(func(context.Context, *Session) (val.Value, error) {
		return val.Int(1), nil
	}), s, time.Now)
	require.NoError(t, resp.Err)
}

func TestExecutor_ExecuteRecord(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	cache := kvs.NewCatalogCache(64)
	ex := NewExecutor(mgr, cache)

	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)

	alloc := catalog.NewAllocator()
	_, err = catalog.DefineNamespace(txn, alloc, "acme")
	require.NoError(t, err)
	_, err = catalog.DefineDatabase(txn, alloc, "acme", "main")
	require.NoError(t, err)
	_, err = catalog.DefineTable(txn, "acme", "main", "person", false)
	require.NoError(t, err)

	id := val.NewStringID("person", "a")
	mut := doc.Mutation{Kind: doc.MutationContent, Data: val.Object(map[string]val.Value{"name": val.String("Tobie")})}
	res, err := ex.ExecuteRecord(context.Background(), txn, "acme", "main", "person", id, doc.ActionCreate, val.None(), mut, doc.Hooks{})
	require.NoError(t, err)
	obj, _ := res.After.AsObject()
	name, _ := obj["name"].AsString()
	assert.Equal(t, "Tobie", name)
}

