package search

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// WriteIndex implements doc.IndexWriter for catalog.IndexFullText
// (spec §4.5 stage 9, spec §4.6). It reverses any postings the
// record's old value produced, then tokenizes the new projected field
// text and writes the full `!bu`/`!bf`/`!bk`/`!bo`/`!bc`/`!bs` family.
func (w *Writer) WriteIndex(txn doc.TxnWriter, ix catalog.Index, id val.RecordID, before, after val.Value) error {
	if before.Kind() != val.KindNone {
		if err := w.RemoveIndex(txn, ix, id, before); err != nil {
			return err
		}
	}
	if after.Kind() == val.KindNone {
		return nil
	}
	text := fieldText(ix, after)
	if text == "" {
		return nil
	}
	a, err := catalog.GetAnalyzer(txn, ix.NS, ix.DB, ix.Analyzer)
	if err != nil {
		a = catalog.Analyzer{Tokenizers: []string{"blank"}, Filters: []string{"lowercase"}}
	}
	terms := Analyze(a, text)
	if len(terms) == 0 {
		return nil
	}

	docID, _, err := w.resolveDocID(txn, ix, id, true)
	if err != nil {
		return err
	}
	recKey, err := keys.FTDocRecord{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Set(recKey, id.Collate()); err != nil {
		return err
	}

	freq := map[string]int{}
	positions := map[string][]int{}
	for pos, t := range terms {
		freq[t]++
		positions[t] = append(positions[t], pos)
	}

	termIDs := make([]uint64, 0, len(freq))
	for term, count := range freq {
		termID, err := w.resolveTermID(txn, ix, term)
		if err != nil {
			return err
		}
		termIDs = append(termIDs, termID)

		pk, err := keys.FTPosting{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, TermID: termID, DocID: docID}.Encode()
		if err != nil {
			return err
		}
		if err := txn.Set(pk, encodeU64(uint64(count))); err != nil {
			return err
		}

		if err := w.addToBitmap(txn, ix, termID, docID); err != nil {
			return err
		}

		ok, err := keys.FTOffsets{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID, TermID: termID}.Encode()
		if err != nil {
			return err
		}
		if err := txn.Set(ok, encodePositions(positions[term])); err != nil {
			return err
		}
	}

	dk, err := keys.FTDocTerms{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Set(dk, encodeTermIDs(termIDs)); err != nil {
		return err
	}

	return w.bumpState(txn, ix, 1, len(terms))
}

// RemoveIndex implements doc.IndexWriter for catalog.IndexFullText,
// walking `!bk{doc_id}`'s term manifest (spec §4.6 "Deletion reverses
// the insertion using !bk{doc_id} as the manifest") to drop every
// posting, bitmap membership, and offset list the doc_id produced.
func (w *Writer) RemoveIndex(txn doc.TxnWriter, ix catalog.Index, id val.RecordID, before val.Value) error {
	if before.Kind() == val.KindNone {
		return nil
	}
	docID, present, err := w.lookupDocID(txn, ix, id)
	if err != nil || !present {
		return err
	}

	dk, err := keys.FTDocTerms{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID}.Encode()
	if err != nil {
		return err
	}
	raw, present, err := txn.Get(dk)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	termIDs := decodeTermIDs(raw)
	termCount := 0

	for _, termID := range termIDs {
		pk, err := keys.FTPosting{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, TermID: termID, DocID: docID}.Encode()
		if err != nil {
			return err
		}
		if freqRaw, present, err := txn.Get(pk); err != nil {
			return err
		} else if present {
			termCount += int(decodeU64(freqRaw))
		}
		if err := txn.Del(pk); err != nil {
			return err
		}
		if err := w.removeFromBitmap(txn, ix, termID, docID); err != nil {
			return err
		}
		ok, err := keys.FTOffsets{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID, TermID: termID}.Encode()
		if err != nil {
			return err
		}
		if err := txn.Del(ok); err != nil {
			return err
		}
	}

	if err := txn.Del(dk); err != nil {
		return err
	}

	recKey, err := keys.FTDocID{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, RecordIDBytes: id.Collate()}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Del(recKey); err != nil {
		return err
	}
	rk, err := keys.FTDocRecord{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Del(rk); err != nil {
		return err
	}

	return w.bumpState(txn, ix, -1, -termCount)
}

// fieldText projects and concatenates an index's field list off a
// record into the text Analyze tokenizes (spec §4.6 "indexed field").
func fieldText(ix catalog.Index, record val.Value) string {
	obj, ok := record.AsObject()
	if !ok {
		return ""
	}
	out := ""
	for i, f := range ix.Fields {
		if i > 0 {
			out += " "
		}
		if s, ok := obj[f].AsString(); ok {
			out += s
		}
	}
	return out
}

// resolveDocID returns the dense doc_id assigned to id under this
// index, allocating one from w.alloc if allocate is true and none
// exists yet.
func (w *Writer) resolveDocID(txn doc.TxnWriter, ix catalog.Index, id val.RecordID, allocate bool) (uint64, []byte, error) {
	key, err := keys.FTDocID{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, RecordIDBytes: id.Collate()}.Encode()
	if err != nil {
		return 0, nil, err
	}
	raw, present, err := txn.Get(key)
	if err != nil {
		return 0, nil, err
	}
	if present {
		return decodeU64(raw), key, nil
	}
	if !allocate {
		return 0, key, nil
	}
	docID, err := w.alloc.NextID(txn, ix.NS, ix.DB, docIDScope(ix.TB, ix.Name))
	if err != nil {
		return 0, nil, err
	}
	if err := txn.Set(key, encodeU64(docID)); err != nil {
		return 0, nil, err
	}
	return docID, key, nil
}

func (w *Writer) lookupDocID(txn doc.TxnWriter, ix catalog.Index, id val.RecordID) (uint64, bool, error) {
	key, err := keys.FTDocID{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, RecordIDBytes: id.Collate()}.Encode()
	if err != nil {
		return 0, false, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return 0, present, err
	}
	return decodeU64(raw), true, nil
}

func (w *Writer) resolveTermID(txn doc.TxnWriter, ix catalog.Index, term string) (uint64, error) {
	// FTTermText only maps term_id -> text (spec §4.6's named
	// direction); FTTermID is the reverse lookup a write needs to find
	// an existing term's id before assigning a fresh one.
	lookupKey, err := keys.FTTermID{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, Term: term}.Encode()
	if err != nil {
		return 0, err
	}
	raw, present, err := txn.Get(lookupKey)
	if err != nil {
		return 0, err
	}
	if present {
		return decodeU64(raw), nil
	}
	termID, err := w.alloc.NextID(txn, ix.NS, ix.DB, termIDScope(ix.TB, ix.Name))
	if err != nil {
		return 0, err
	}
	if err := txn.Set(lookupKey, encodeU64(termID)); err != nil {
		return 0, err
	}
	textKey, err := keys.FTTermText{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, TermID: termID}.Encode()
	if err != nil {
		return 0, err
	}
	if err := txn.Set(textKey, []byte(term)); err != nil {
		return 0, err
	}
	return termID, nil
}

func (w *Writer) addToBitmap(txn doc.TxnWriter, ix catalog.Index, termID, docID uint64) error {
	bm, key, err := w.loadBitmap(txn, ix, termID)
	if err != nil {
		return err
	}
	bm.Add(uint32(docID))
	enc, err := bm.ToBytes()
	if err != nil {
		return err
	}
	return txn.Set(key, enc)
}

func (w *Writer) removeFromBitmap(txn doc.TxnWriter, ix catalog.Index, termID, docID uint64) error {
	bm, key, err := w.loadBitmap(txn, ix, termID)
	if err != nil {
		return err
	}
	bm.Remove(uint32(docID))
	if bm.IsEmpty() {
		return txn.Del(key)
	}
	enc, err := bm.ToBytes()
	if err != nil {
		return err
	}
	return txn.Set(key, enc)
}

func (w *Writer) loadBitmap(txn doc.TxnWriter, ix catalog.Index, termID uint64) (*roaring.Bitmap, []byte, error) {
	key, err := keys.FTBitmap{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, TermID: termID}.Encode()
	if err != nil {
		return nil, nil, err
	}
	bm := roaring.New()
	raw, present, err := txn.Get(key)
	if err != nil {
		return nil, nil, err
	}
	if present {
		if err := bm.UnmarshalBinary(raw); err != nil {
			return nil, nil, err
		}
	}
	return bm, key, nil
}

// bumpState maintains `!bs{ix}`'s aggregate doc count / total term
// count BM25 scoring reads (spec §4.6).
func (w *Writer) bumpState(txn doc.TxnWriter, ix catalog.Index, docDelta, termDelta int) error {
	st, err := loadState(txn, ix)
	if err != nil {
		return err
	}
	st.DocCount += int64(docDelta)
	st.TotalTerms += int64(termDelta)
	if st.DocCount < 0 {
		st.DocCount = 0
	}
	if st.TotalTerms < 0 {
		st.TotalTerms = 0
	}
	return saveState(txn, ix, st)
}
