// Package vector implements spec §4.7: a per-index HNSW graph
// persisted incrementally to the `!he`/`!hl`/`!hi`/`!hd`/`!hs` key
// families internal/keys already names. Writer implements
// internal/doc.IndexWriter for catalog.IndexHNSW the way
// internal/search implements it for catalog.IndexFullText; internal/
// exec composes both into one dispatching IndexWriter.
package vector

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/pkg/log"
)

// Writer owns the id allocator HNSW element ids are drawn from and a
// per-index read/write lock (spec §4.7 "writes acquire the index's
// write lock; reads acquire the read lock. Multiple indexes on
// different scopes are independent").
type Writer struct {
	alloc *catalog.Allocator
	log   zerolog.Logger

	mu     sync.Mutex
	scopes map[string]*sync.RWMutex
}

func NewWriter(alloc *catalog.Allocator) *Writer {
	return &Writer{alloc: alloc, log: log.WithComponent("vector"), scopes: map[string]*sync.RWMutex{}}
}

func elementIDScope(tb, ix string) string { return "hnsw:el:" + tb + ":" + ix }

func scopeKey(ix catalog.Index) string { return ix.NS + "\x00" + ix.DB + "\x00" + ix.TB + "\x00" + ix.Name }

// lockFor returns the RWMutex guarding ix, creating it on first use.
func (w *Writer) lockFor(ix catalog.Index) *sync.RWMutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := scopeKey(ix)
	l, ok := w.scopes[key]
	if !ok {
		l = &sync.RWMutex{}
		w.scopes[key] = l
	}
	return l
}
