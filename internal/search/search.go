// Package search implements spec §4.6: full-text indexing over the
// `!bu`/`!bf`/`!bk`/`!bo`/`!bc`/`!bs` key families internal/keys
// already names, and BM25-scored queries over them. Indexing is
// reached through internal/doc.IndexWriter the way
// internal/vector reaches it for HNSW — internal/exec composes both
// into one dispatching writer keyed on catalog.Index.Method.
package search

import (
	"github.com/rs/zerolog"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/pkg/log"
)

// Writer implements internal/doc.IndexWriter for catalog.IndexFullText.
// It owns the catalog.Allocator doc ids and term ids are drawn from
// (scoped per index so separate full-text indexes never contend on
// the same counter). It holds no analyzers of its own: each write looks
// the index's Analyzer name up in the catalog, falling back to a blank
// tokenizer with a lowercase filter, so internal/doc never needs to
// know analyzers exist.
type Writer struct {
	alloc *catalog.Allocator
	log   zerolog.Logger
}

// NewWriter returns a Writer sharing alloc with the rest of the
// process (the same *catalog.Allocator DEFINE statements use), the way
// the teacher shares one *manager.Manager process-wide.
func NewWriter(alloc *catalog.Allocator) *Writer {
	return &Writer{alloc: alloc, log: log.WithComponent("search")}
}

// docIDScope and termIDScope namespace the allocator's per-counter
// cache key so doc ids and term ids for the same index never collide,
// and so two different indexes never share a counter.
func docIDScope(tb, ix string) string  { return "ft:doc:" + tb + ":" + ix }
func termIDScope(tb, ix string) string { return "ft:term:" + tb + ":" + ix }
