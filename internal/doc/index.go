package doc

import (
	"bytes"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// IndexWriter maintains the non-btree index kinds (spec §4.6 full-text,
// §4.7 HNSW) as part of stage 9. internal/search and internal/vector
// each implement one method's worth of behaviour; internal/exec
// composes them into a single IndexWriter dispatching on ix.Method.
type IndexWriter interface {
	WriteIndex(txn TxnWriter, ix catalog.Index, id val.RecordID, before, after val.Value) error
	RemoveIndex(txn TxnWriter, ix catalog.Index, id val.RecordID, before val.Value) error
}

// applyIndexes runs stage 9 for every index on the table: btree
// indexes are maintained directly (stale posting removed, new posting
// inserted, UNIQUE conflict detected by scanning the value's posting
// range for a different id); full-text and HNSW indexes delegate to w.
func applyIndexes(txn TxnWriter, indexes []catalog.Index, id val.RecordID, before, after val.Value, w IndexWriter) error {
	for _, ix := range indexes {
		switch ix.Method {
		case catalog.IndexBTree:
			if err := applyBTreeIndex(txn, ix, id, before, after); err != nil {
				return err
			}
		default:
			if w == nil {
				continue
			}
			if err := w.WriteIndex(txn, ix, id, before, after); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeIndexes(txn TxnWriter, indexes []catalog.Index, id val.RecordID, before val.Value, w IndexWriter) error {
	for _, ix := range indexes {
		switch ix.Method {
		case catalog.IndexBTree:
			if err := removeBTreePosting(txn, ix, id, before); err != nil {
				return err
			}
		default:
			if w == nil {
				continue
			}
			if err := w.RemoveIndex(txn, ix, id, before); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyBTreeIndex(txn TxnWriter, ix catalog.Index, id val.RecordID, before, after val.Value) error {
	oldVal := indexedTuple(ix, before)
	newVal := indexedTuple(ix, after)
	if before.Kind() != val.KindNone && val.Compare(oldVal, newVal) != 0 {
		if err := removeBTreePosting(txn, ix, id, before); err != nil {
			return err
		}
	}
	if after.Kind() == val.KindNone {
		return nil
	}
	valueBytes := newVal.Collate()
	if ix.Unique {
		lo, hi, err := keys.IndexValueScopeRange(ix.NS, ix.DB, ix.TB, ix.Name, valueBytes)
		if err != nil {
			return err
		}
		rows, err := txn.Scan(lo, hi, false, 0)
		if err != nil {
			return err
		}
		myIDBytes := id.Collate()
		for _, row := range rows {
			// The posting key is {scope}{valueBytes}{idBytes}; the
			// scan range already bounds us to one valueBytes prefix,
			// so whatever trails it in the key is the posting's id.
			if !bytes.HasSuffix(row.Key, myIDBytes) {
				return errs.New(errs.KindIndexExists, "doc.applyBTreeIndex", nil)
			}
		}
	}
	key, err := keys.Index{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ValueBytes: valueBytes, IDBytes: id.Collate()}.Encode()
	if err != nil {
		return err
	}
	return txn.Set(key, []byte{})
}

func removeBTreePosting(txn TxnWriter, ix catalog.Index, id val.RecordID, before val.Value) error {
	if before.Kind() == val.KindNone {
		return nil
	}
	oldVal := indexedTuple(ix, before)
	key, err := keys.Index{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ValueBytes: oldVal.Collate(), IDBytes: id.Collate()}.Encode()
	if err != nil {
		return err
	}
	return txn.Del(key)
}

// indexedTuple projects an index's field list off a record, as a
// single Value (a one-element value if Fields has one entry, else an
// Array) so multi-field composite indexes collate as one sortable
// tuple the same way a single-field index collates its scalar.
func indexedTuple(ix catalog.Index, record val.Value) val.Value {
	if record.Kind() == val.KindNone {
		return val.None()
	}
	obj, _ := record.AsObject()
	if len(ix.Fields) == 1 {
		return obj[ix.Fields[0]]
	}
	parts := make([]val.Value, len(ix.Fields))
	for i, f := range ix.Fields {
		parts[i] = obj[f]
	}
	return val.Array(parts)
}
