package exec

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/feed"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/policy"
	"github.com/warrendb/warrendb/internal/val"
)

func newTestSchema(t *testing.T, txn *kvs.Transaction, ns, db, tb string) catalog.TableSchema {
	t.Helper()
	alloc := catalog.NewAllocator()
	_, err := catalog.DefineNamespace(txn, alloc, ns)
	require.NoError(t, err)
	_, err = catalog.DefineDatabase(txn, alloc, ns, db)
	require.NoError(t, err)
	table, err := catalog.DefineTable(txn, ns, db, tb, false)
	require.NoError(t, err)
	return catalog.TableSchema{Table: table}
}

func TestIndexWriters_DispatchesOnMethodAndIgnoresBTree(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)

	alloc := catalog.NewAllocator()
	w := NewIndexWriters(alloc)

	id := val.NewStringID("post", "a")
	btreeIx := catalog.Index{NS: "acme", DB: "main", TB: "post", Name: "by_title", Method: catalog.IndexBTree}

	// a btree index is the caller's (internal/doc's own) concern; the
	// composite must not error, it just does nothing.
	require.NoError(t, w.WriteIndex(txn, btreeIx, id, val.None(), val.String("hello")))
	require.NoError(t, w.RemoveIndex(txn, btreeIx, id, val.String("hello")))
}

func TestNewHooks_AllowDeniesWhenEnforcedAndNotAllowed(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)

	hooks := NewHooks(txn, HookDeps{
		Enforce: true,
		Actor:   policy.Actor{Role: policy.RoleViewer, Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"},
	})

	ok, err := hooks.Allow("pre", doc.ActionCreate, val.None(), val.String("x"))
	require.NoError(t, err)
	assert.False(t, ok, "a Viewer may not Edit")

	ok, err = hooks.Allow("pre", doc.ActionSelect, val.None(), val.String("x"))
	require.NoError(t, err)
	assert.True(t, ok, "a Viewer may View")
}

func TestNewHooks_AllowSkipsPolicyWhenNotEnforced(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)

	hooks := NewHooks(txn, HookDeps{Enforce: false, Actor: policy.Actor{Role: policy.RoleViewer}})
	ok, err := hooks.Allow("pre", doc.ActionCreate, val.None(), val.String("x"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewHooks_ChangeFeedAppendsWhenTableConfigured(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)

	schema := newTestSchema(t, txn, "acme", "main", "post")
	schema.Table.ChangeFeedEnabled = true

	fixed := time.Unix(1000, 0)
	hooks := NewHooks(txn, HookDeps{Clock: func() time.Time { return fixed }})

	require.NoError(t, hooks.ChangeFeed(schema, doc.ActionCreate, val.None(), val.String("hi")))

	muts, err := feed.ReadSince(txn, "acme", "main", keys.VersionStamp{})
	require.NoError(t, err)
	assert.Len(t, muts, 1)
}

func TestLiveQueryMatcher_PublishesOnlyForMatchingRegisteredPredicates(t *testing.T) {
	mgr := kvs.NewManager(newMemEngine())
	txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockOptimistic)
	require.NoError(t, err)

	schema := newTestSchema(t, txn, "acme", "main", "post")

	matchingID := uuid.New()
	_, err = catalog.DefineLiveQuery(txn, catalog.LiveQuery{NS: "acme", DB: "main", TB: "post", UUID: matchingID})
	require.NoError(t, err)
	nonMatchingID := uuid.New()
	_, err = catalog.DefineLiveQuery(txn, catalog.LiveQuery{NS: "acme", DB: "main", TB: "post", UUID: nonMatchingID})
	require.NoError(t, err)
	unregisteredID := uuid.New()
	_, err = catalog.DefineLiveQuery(txn, catalog.LiveQuery{NS: "acme", DB: "main", TB: "post", UUID: unregisteredID})
	require.NoError(t, err)

	f := feed.New()
	sub := f.Registry.Register(matchingID, 4)
	nonMatchingSub := f.Registry.Register(nonMatchingID, 4)

	m := NewLiveQueryMatcher(f)
	m.Register(matchingID, func(before, after val.Value) (bool, error) { return true, nil })
	m.Register(nonMatchingID, func(before, after val.Value) (bool, error) { return false, nil })
	// unregisteredID deliberately has no Predicate: must be skipped, not errored.

	hooks := NewHooks(txn, HookDeps{Lives: m})
	require.NoError(t, hooks.Lives(schema, doc.ActionCreate, val.None(), val.String("hi")))

	select {
	case n := <-sub:
		assert.Equal(t, matchingID, n.LiveQueryID)
	default:
		t.Fatal("expected a notification for the matching live query")
	}

	select {
	case n := <-nonMatchingSub:
		t.Fatalf("unexpected notification for non-matching live query: %+v", n)
	default:
	}
}
