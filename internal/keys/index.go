package keys

// Index encodes /*{ns}*{db}*{tb}+{ix}{value}{id}: a single posting of
// a B-tree (unique or non-unique) index, spec §3's "maps value -> list
// of record ids". ValueBytes is the indexed value's collating
// encoding (internal/val.Value.Collate), IDBytes the record id's.
type Index struct {
	NS, DB, TB, IX string
	ValueBytes     []byte
	IDBytes        []byte
}

func (k Index) Encode() ([]byte, error) {
	b := indexScopeBuilder(k.NS, k.DB, k.TB, k.IX)
	return b.Bytes(k.ValueBytes).Bytes(k.IDBytes).Done()
}

// IndexValueScopeRange brackets every posting for one indexed value,
// used to detect a UNIQUE conflict (more than one id under the same
// value) and to clean up stale postings on update (spec §4.5 step 9).
func IndexValueScopeRange(ns, db, tb, ix string, valueBytes []byte) (lo, hi []byte, err error) {
	b := indexScopeBuilder(ns, db, tb, ix).Bytes(valueBytes)
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// IndexScopeRange brackets an entire index's postings, used when the
// index is removed (catalog.RemoveIndex) or rebuilt.
func IndexScopeRange(ns, db, tb, ix string) (lo, hi []byte, err error) {
	prefix, err := indexScopeBuilder(ns, db, tb, ix).Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

func indexScopeBuilder(ns, db, tb, ix string) *Builder {
	b := NewBuilder()
	scopeHeader(b, ns, db)
	b.Bytes([]byte{'*'}).Str(tb)
	b.Bytes([]byte{'+'}).Str(ix)
	return b
}

// --- Full-text posting families (spec §4.6), all under one index's '+' scope. ---

func ftFamilyBuilder(ns, db, tb, ix string, fam Family) *Builder {
	b := indexScopeBuilder(ns, db, tb, ix)
	return b.Family(fam)
}

// FTTermText: !bu{term_id} -> term text, assigned lazily by monotonic counter.
type FTTermText struct {
	NS, DB, TB, IX string
	TermID         uint64
}

func (k FTTermText) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTTermText).U64(k.TermID).Done()
}

// FTTermID: !bt{term} -> term_id, the forward lookup a write needs to
// find a term's id before it can write `!bf`/`!bc` postings under it;
// FTTermText only gives the reverse (id -> text) direction spec §4.6
// itself names, so this is the index writer's own bookkeeping key,
// not one of the spec's named families.
type FTTermID struct {
	NS, DB, TB, IX string
	Term           string
}

func (k FTTermID) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTTermID).Str(k.Term).Done()
}

// FTTermIDScopeRange brackets every term an index has assigned an id
// to, used to report the index's vocabulary size (pkg/metrics
// SearchIndexedTerms gauge).
func FTTermIDScopeRange(ns, db, tb, ix string) (lo, hi []byte, err error) {
	prefix, err := ftFamilyBuilder(ns, db, tb, ix, FamFTTermID).Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// FTPosting: !bf{term_id}{doc_id} -> frequency, grouped-by-term for BM25 scans.
type FTPosting struct {
	NS, DB, TB, IX string
	TermID, DocID  uint64
}

func (k FTPosting) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTPosting).U64(k.TermID).U64(k.DocID).Done()
}

// FTPostingsForTermRange brackets every (doc_id, frequency) posting
// for one term — the scan a BM25 match query drives.
func FTPostingsForTermRange(ns, db, tb, ix string, termID uint64) (lo, hi []byte, err error) {
	b := ftFamilyBuilder(ns, db, tb, ix, FamFTPosting).U64(termID)
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// FTDocTerms: !bk{doc_id} -> compact term-id manifest, the per-doc
// cleanup manifest used when a record is deleted or reindexed.
type FTDocTerms struct {
	NS, DB, TB, IX string
	DocID          uint64
}

func (k FTDocTerms) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTDocTerms).U64(k.DocID).Done()
}

// FTOffsets: !bo{doc_id}{term_id} -> offset list, for highlight/snippet.
type FTOffsets struct {
	NS, DB, TB, IX string
	DocID, TermID  uint64
}

func (k FTOffsets) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTOffsets).U64(k.DocID).U64(k.TermID).Done()
}

// FTBitmap: !bc{term_id} -> roaring bitmap of doc_ids containing the term.
type FTBitmap struct {
	NS, DB, TB, IX string
	TermID         uint64
}

func (k FTBitmap) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTBitmap).U64(k.TermID).Done()
}

// FTState: !bs -> aggregate doc count / total term count / avg doc length.
type FTState struct{ NS, DB, TB, IX string }

func (k FTState) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTState).Done()
}

// FTDocID: !bi{record_id} -> doc_id (record -> dense doc id mapping).
type FTDocID struct {
	NS, DB, TB, IX string
	RecordIDBytes  []byte
}

func (k FTDocID) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTDocID).Bytes(k.RecordIDBytes).Done()
}

// FTDocRecord: !bd{doc_id} -> record_id (inverse of FTDocID).
type FTDocRecord struct {
	NS, DB, TB, IX string
	DocID          uint64
}

func (k FTDocRecord) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamFTDocRecord).U64(k.DocID).Done()
}

// --- HNSW families (spec §4.7), all under one index's '+' scope. ---

// HNSWElement: !he{element_id} -> vector bytes.
type HNSWElement struct {
	NS, DB, TB, IX string
	ElementID      uint64
}

func (k HNSWElement) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamHNSWElement).U64(k.ElementID).Done()
}

// HNSWElementScopeRange brackets every element an index holds, used to
// report the index's live vector count (pkg/metrics HNSWElements gauge).
func HNSWElementScopeRange(ns, db, tb, ix string) (lo, hi []byte, err error) {
	prefix, err := ftFamilyBuilder(ns, db, tb, ix, FamHNSWElement).Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// HNSWLayer: !hl{layer}{chunk} -> adjacency chunk (spec §4.7 "chunked for KV serialisation").
type HNSWLayer struct {
	NS, DB, TB, IX string
	Layer          uint32
	Chunk          uint32
}

func (k HNSWLayer) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamHNSWLayer).U32(k.Layer).U32(k.Chunk).Done()
}

func HNSWLayerRange(ns, db, tb, ix string, layer uint32) (lo, hi []byte, err error) {
	b := ftFamilyBuilder(ns, db, tb, ix, FamHNSWLayer).U32(layer)
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// HNSWDocByElement: !hi{element_id} -> record_id.
type HNSWDocByElement struct {
	NS, DB, TB, IX string
	ElementID      uint64
}

func (k HNSWDocByElement) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamHNSWDocByEl).U64(k.ElementID).Done()
}

// HNSWElementByDoc: !hd{record_id} -> element_id.
type HNSWElementByDoc struct {
	NS, DB, TB, IX string
	RecordIDBytes  []byte
}

func (k HNSWElementByDoc) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamHNSWElByDoc).Bytes(k.RecordIDBytes).Done()
}

// HNSWState: !hs -> entry point element id + max level.
type HNSWState struct{ NS, DB, TB, IX string }

func (k HNSWState) Encode() ([]byte, error) {
	return ftFamilyBuilder(k.NS, k.DB, k.TB, k.IX, FamHNSWState).Done()
}
