package exec

import (
	"sync"

	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/feed"
	"github.com/warrendb/warrendb/internal/val"
)

// Predicate is a live query's compiled SELECT pattern: the already-
// parsed form spec §6 assumes an external collaborator produces (same
// status as a Statement — a pure function closing over resolved
// operands, not a string to interpret). catalog.LiveQuery.Query keeps
// the human-readable source around for display; the Predicate itself
// is supplied by whoever issues LIVE SELECT and lives only in this
// process's memory for as long as the live query runs here.
type Predicate func(before, after val.Value) (bool, error)

// LiveQueryMatcher implements pipeline stage 12 (doc.Hooks.Lives):
// for every live query registered on a mutated table, re-evaluate its
// compiled Predicate against (before, after) and publish a
// notification for each match through the shared feed.Feed. Per
// feed.go's package doc: "internal/exec owns pattern matching; this
// package [feed] owns everything downstream of a match".
type LiveQueryMatcher struct {
	mu         sync.RWMutex
	predicates map[uuid.UUID]Predicate
	feed       *feed.Feed
}

func NewLiveQueryMatcher(f *feed.Feed) *LiveQueryMatcher {
	return &LiveQueryMatcher{predicates: map[uuid.UUID]Predicate{}, feed: f}
}

// Register installs pred as id's compiled pattern. Call this when a
// LIVE SELECT statement is issued, before its catalog.LiveQuery row
// commits, and again on any node that newly owns a live query it
// didn't compile itself (internal/cluster.ReassignLiveQueries only
// updates the catalog's OwnerNode column; it cannot hand across a
// compiled closure between processes).
func (m *LiveQueryMatcher) Register(id uuid.UUID, pred Predicate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predicates[id] = pred
}

// Unregister removes id's compiled pattern, e.g. on KILL.
func (m *LiveQueryMatcher) Unregister(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.predicates, id)
}

// Hook returns the doc.Hooks.Lives closure for one transaction.
// doc.Hooks.Lives carries no txn parameter of its own, so the
// transaction is captured here rather than threaded through the
// Hooks struct.
func (m *LiveQueryMatcher) Hook(txn doc.TxnWriter) func(catalog.TableSchema, doc.Action, val.Value, val.Value) error {
	return func(schema catalog.TableSchema, action doc.Action, before, after val.Value) error {
		return m.lives(txn, schema, action, before, after)
	}
}

func (m *LiveQueryMatcher) lives(txn doc.TxnWriter, schema catalog.TableSchema, action doc.Action, before, after val.Value) error {
	lqs, err := catalog.ListLiveQueries(txn, schema.Table.NS, schema.Table.DB, schema.Table.Name)
	if err != nil {
		return err
	}
	if len(lqs) == 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []feed.LiveMatch
	for _, lq := range lqs {
		pred, ok := m.predicates[lq.UUID]
		if !ok {
			// reassigned to this node but never re-registered here;
			// nothing to evaluate yet.
			continue
		}
		hit, err := pred(before, after)
		if err != nil {
			return err
		}
		if hit {
			matched = append(matched, feed.LiveMatch{ID: lq.UUID, Diff: lq.Diff})
		}
	}
	if len(matched) > 0 {
		m.feed.Notify(matched, action, before, after)
	}
	return nil
}
