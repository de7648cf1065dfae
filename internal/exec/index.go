package exec

import (
	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/search"
	"github.com/warrendb/warrendb/internal/val"
	"github.com/warrendb/warrendb/internal/vector"
)

// IndexWriters composes internal/search.Writer and internal/vector.Writer
// into a single doc.IndexWriter, dispatching on ix.Method the way
// internal/doc's own applyIndexes dispatches catalog.IndexBTree
// directly and defers every other method to the caller-supplied
// IndexWriter (internal/doc/index.go: "internal/exec composes them
// into a single IndexWriter"). Both writers share one *catalog.Allocator
// so full-text term ids and HNSW element ids are drawn from the same
// process-wide id-reservation counters everything else in this
// repository uses.
type IndexWriters struct {
	Search *search.Writer
	Vector *vector.Writer
}

// NewIndexWriters builds the composite over a shared allocator.
func NewIndexWriters(alloc *catalog.Allocator) *IndexWriters {
	return &IndexWriters{
		Search: search.NewWriter(alloc),
		Vector: vector.NewWriter(alloc),
	}
}

func (w *IndexWriters) WriteIndex(txn doc.TxnWriter, ix catalog.Index, id val.RecordID, before, after val.Value) error {
	switch ix.Method {
	case catalog.IndexFullText:
		return w.Search.WriteIndex(txn, ix, id, before, after)
	case catalog.IndexHNSW:
		return w.Vector.WriteIndex(txn, ix, id, before, after)
	default:
		return nil
	}
}

func (w *IndexWriters) RemoveIndex(txn doc.TxnWriter, ix catalog.Index, id val.RecordID, before val.Value) error {
	switch ix.Method {
	case catalog.IndexFullText:
		return w.Search.RemoveIndex(txn, ix, id, before)
	case catalog.IndexHNSW:
		return w.Vector.RemoveIndex(txn, ix, id, before)
	default:
		return nil
	}
}
