package vector

import (
	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// WriteIndex implements doc.IndexWriter for catalog.IndexHNSW (spec
// §4.5 stage 9, spec §4.7). HNSW has no in-place update: a changed
// vector removes the record's old element (and its adjacency) before
// inserting a fresh one, since repairing adjacency around a moved
// point is not something the graph structure supports cheaply.
func (w *Writer) WriteIndex(txn doc.TxnWriter, ix catalog.Index, id val.RecordID, before, after val.Value) error {
	if before.Kind() != val.KindNone {
		if err := w.RemoveIndex(txn, ix, id, before); err != nil {
			return err
		}
	}
	if after.Kind() == val.KindNone {
		return nil
	}
	v, ok := fieldVector(ix, after)
	if !ok {
		return nil
	}
	_, err := w.Insert(txn, ix, id.Collate(), v)
	return err
}

// RemoveIndex implements doc.IndexWriter for catalog.IndexHNSW: drops
// the element's vector, its adjacency entries on every layer, and the
// doc<->element mapping. The entry point is left untouched even if it
// was the removed element — spec §4.7 doesn't name a re-election
// protocol, and the next Insert's greedy descent self-heals the first
// time it lands on a now-isolated node by finding no improving
// neighbour and returning immediately, same as an empty graph would.
func (w *Writer) RemoveIndex(txn doc.TxnWriter, ix catalog.Index, id val.RecordID, before val.Value) error {
	lock := w.lockFor(ix)
	lock.Lock()
	defer lock.Unlock()

	elementID, present, err := w.lookupElement(txn, ix, id.Collate())
	if err != nil || !present {
		return err
	}

	st, err := loadGraphState(txn, ix)
	if err != nil {
		return err
	}
	if st.HasEntry {
		for l := 0; l <= st.MaxLevel; l++ {
			neighbors, err := w.getNeighbors(txn, ix, l, elementID)
			if err != nil {
				return err
			}
			for _, n := range neighbors {
				nn, err := w.getNeighbors(txn, ix, l, n)
				if err != nil {
					return err
				}
				if err := w.setNeighbors(txn, ix, l, n, removeID(nn, elementID)); err != nil {
					return err
				}
			}
			if err := w.deleteNeighbors(txn, ix, l, elementID); err != nil {
				return err
			}
		}
	}

	vecKey, err := keys.HNSWElement{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ElementID: elementID}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Del(vecKey); err != nil {
		return err
	}
	return w.unlinkDoc(txn, ix, elementID, id.Collate())
}

// fieldVector projects an index's (single) field off a record into a
// []float64, expecting the value model's Array-of-Number
// representation (spec §4.7's vector type F32/F64/I16/… all collapse
// to float64 once coerced into this process).
func fieldVector(ix catalog.Index, record val.Value) ([]float64, bool) {
	if len(ix.Fields) == 0 {
		return nil, false
	}
	obj, ok := record.AsObject()
	if !ok {
		return nil, false
	}
	arr, ok := obj[ix.Fields[0]].AsArray()
	if !ok {
		return nil, false
	}
	out := make([]float64, len(arr))
	for i, v := range arr {
		n, ok := v.AsNumber()
		if !ok {
			return nil, false
		}
		if n.Kind == val.NumberFloat {
			out[i] = n.F
		} else {
			out[i] = float64(n.I)
		}
	}
	return out, true
}

func removeID(ids []uint64, target uint64) []uint64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func (w *Writer) getVector(txn doc.TxnWriter, ix catalog.Index, elementID uint64) ([]float64, error) {
	key, err := keys.HNSWElement{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ElementID: elementID}.Encode()
	if err != nil {
		return nil, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return nil, err
	}
	return decodeVector(raw), nil
}

// getNeighbors/setNeighbors read and write one element's adjacency on
// one layer. Each element's list lives in its own `!hl{layer}{chunk}`
// row keyed by chunk = element_id — "chunked for KV serialisation"
// (spec §4.7) in the sense that no single KV value ever holds more
// than one element's bounded-degree neighbour list, rather than one
// unbounded blob per layer.
func (w *Writer) getNeighbors(txn doc.TxnWriter, ix catalog.Index, layer int, elementID uint64) ([]uint64, error) {
	key, err := keys.HNSWLayer{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, Layer: uint32(layer), Chunk: uint32(elementID)}.Encode()
	if err != nil {
		return nil, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return nil, err
	}
	return decodeNeighbors(raw), nil
}

func (w *Writer) setNeighbors(txn doc.TxnWriter, ix catalog.Index, layer int, elementID uint64, ids []uint64) error {
	key, err := keys.HNSWLayer{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, Layer: uint32(layer), Chunk: uint32(elementID)}.Encode()
	if err != nil {
		return err
	}
	return txn.Set(key, encodeNeighbors(ids))
}

func (w *Writer) deleteNeighbors(txn doc.TxnWriter, ix catalog.Index, layer int, elementID uint64) error {
	key, err := keys.HNSWLayer{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, Layer: uint32(layer), Chunk: uint32(elementID)}.Encode()
	if err != nil {
		return err
	}
	return txn.Del(key)
}

func (w *Writer) linkDoc(txn doc.TxnWriter, ix catalog.Index, elementID uint64, recordIDBytes []byte) error {
	fwd, err := keys.HNSWDocByElement{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ElementID: elementID}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Set(fwd, recordIDBytes); err != nil {
		return err
	}
	rev, err := keys.HNSWElementByDoc{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, RecordIDBytes: recordIDBytes}.Encode()
	if err != nil {
		return err
	}
	return txn.Set(rev, encodeU64(elementID))
}

func (w *Writer) unlinkDoc(txn doc.TxnWriter, ix catalog.Index, elementID uint64, recordIDBytes []byte) error {
	fwd, err := keys.HNSWDocByElement{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ElementID: elementID}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Del(fwd); err != nil {
		return err
	}
	rev, err := keys.HNSWElementByDoc{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, RecordIDBytes: recordIDBytes}.Encode()
	if err != nil {
		return err
	}
	return txn.Del(rev)
}

func (w *Writer) lookupElement(txn doc.TxnWriter, ix catalog.Index, recordIDBytes []byte) (uint64, bool, error) {
	key, err := keys.HNSWElementByDoc{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, RecordIDBytes: recordIDBytes}.Encode()
	if err != nil {
		return 0, false, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return 0, present, err
	}
	return decodeU64(raw), true, nil
}

func (w *Writer) lookupRecord(txn doc.TxnWriter, ix catalog.Index, elementID uint64) ([]byte, bool, error) {
	key, err := keys.HNSWDocByElement{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ElementID: elementID}.Encode()
	if err != nil {
		return nil, false, err
	}
	return txn.Get(key)
}
