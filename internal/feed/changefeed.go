package feed

import (
	"time"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// MutationKind distinguishes the two TableMutation write shapes the
// original repository carries (spec §9 Open Questions, resolved in
// DESIGN.md) plus deletes: Set records only the post-image, SetWithDiff
// also carries the pre-image for clients that want to compute their own
// diff, and Del carries the deleted record's pre-image.
type MutationKind uint8

const (
	MutationSet MutationKind = iota
	MutationSetWithDiff
	MutationDel
)

// TableMutation is one change-feed entry (spec §4.8): a record
// mutation tagged with the commit's versionstamp.
type TableMutation struct {
	TB            string
	Kind          MutationKind
	RecordIDBytes []byte
	Before        val.Value
	After         val.Value
}

func (m TableMutation) toValue() val.Value {
	return val.Object(map[string]val.Value{
		"tb":     val.String(m.TB),
		"kind":   val.Int(int64(m.Kind)),
		"id":     val.Bytes(m.RecordIDBytes),
		"before": m.Before,
		"after":  m.After,
	})
}

func mutationFromValue(v val.Value) TableMutation {
	obj, _ := v.AsObject()
	tb, _ := obj["tb"].AsString()
	kind, _ := obj["kind"].AsNumber()
	id, _ := obj["id"].AsBytes()
	return TableMutation{
		TB: tb, Kind: MutationKind(kind.I), RecordIDBytes: id,
		Before: obj["before"], After: obj["after"],
	}
}

// Append runs stage 13 (spec §4.5 step 13, §4.8): if schema.Table has
// CHANGEFEED configured, allocate the next per-database versionstamp
// and write the TableMutation under it. A fresh CREATE (before is
// val.None()) always writes MutationSet regardless of
// ChangeFeedIncludeOriginal, since SetWithDiff's pre-image would be
// empty and indistinguishable from "diffing not configured" — spec
// §9's open question, decided this way because a consumer checking
// "is Before populated" to detect SetWithDiff would otherwise see a
// false negative on every table's very first row.
func Append(txn doc.TxnWriter, schema catalog.TableSchema, action doc.Action, before, after val.Value, now time.Time) error {
	tb := schema.Table
	if !tb.ChangeFeedEnabled {
		return nil
	}

	var kind MutationKind
	switch {
	case action == doc.ActionDelete:
		kind = MutationDel
	case before.IsNone():
		kind = MutationSet
	case tb.ChangeFeedIncludeOriginal:
		kind = MutationSetWithDiff
	default:
		kind = MutationSet
	}

	recIDBytes := recordIDBytes(after, before)
	mut := TableMutation{TB: tb.Name, Kind: kind, RecordIDBytes: recIDBytes, After: after}
	if kind == MutationSetWithDiff || kind == MutationDel {
		mut.Before = before
	} else {
		mut.Before = val.None()
	}

	vs, err := nextVersionStamp(txn, tb.NS, tb.DB, now)
	if err != nil {
		return err
	}
	key, err := keys.ChangeFeed{NS: tb.NS, DB: tb.DB, VS: vs}.Encode()
	if err != nil {
		return err
	}
	enc, err := val.Encode(mut.toValue())
	if err != nil {
		return err
	}
	return txn.Set(key, enc)
}

func recordIDBytes(after, before val.Value) []byte {
	if obj, ok := after.AsObject(); ok {
		if rid, ok := obj["id"].AsRecordID(); ok {
			return rid.Collate()
		}
	}
	if obj, ok := before.AsObject(); ok {
		if rid, ok := obj["id"].AsRecordID(); ok {
			return rid.Collate()
		}
	}
	return nil
}

// nextVersionStamp allocates a (ns, db)-scoped ordinal via a plain
// read-increment-write counter, not internal/catalog.Allocator's
// batched block reservation: a versionstamp's whole purpose is to
// reflect commit order, and handing out a block of ordinals in memory
// ahead of the commits that will use them (as the batched allocator
// does for opaque ids like doc_id/element_id) would let two
// transactions interleave their change-feed entries out of commit
// order. One extra KV round trip per change-feed append is the
// trade-off, acceptable since a changefeed-enabled table already pays
// one extra write per mutation for the TableMutation row itself.
//
// The ordinal is anchored to now's Unix-nanosecond value (clamped to
// strictly increase over the last-stored ordinal) rather than a pure
// 0,1,2,... sequence, so WatermarkBefore's wall-clock cutoff stays
// comparable to ordinals actually being handed out.
func nextVersionStamp(txn doc.TxnWriter, ns, db string, now time.Time) (keys.VersionStamp, error) {
	key, err := keys.IDGenerator{NS: ns, DB: db, Scope: "changefeed"}.Encode()
	if err != nil {
		return keys.VersionStamp{}, err
	}
	raw, present, err := txn.Get(key)
	if err != nil {
		return keys.VersionStamp{}, err
	}
	ordinal := uint64(now.UnixNano())
	if present {
		if last := decodeOrdinal(raw); last >= ordinal {
			ordinal = last + 1
		}
	}
	if err := txn.Set(key, encodeOrdinal(ordinal)); err != nil {
		return keys.VersionStamp{}, err
	}
	return keys.NewVersionStamp(ordinal, 0), nil
}

func encodeOrdinal(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func decodeOrdinal(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// ReadSince replays every change-feed entry for (ns, db) at or after
// from, the primitive a reconnecting client's catch-up read uses
// (spec §8's round-trip law on TableMutation streams).
func ReadSince(txn doc.TxnWriter, ns, db string, from keys.VersionStamp) ([]TableMutation, error) {
	lo, hi, err := keys.ChangeFeedRangeFrom(ns, db, from)
	if err != nil {
		return nil, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]TableMutation, 0, len(rows))
	for _, row := range rows {
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, mutationFromValue(v))
	}
	return out, nil
}

// GC deletes every change-feed entry for (ns, db) older than watermark
// (spec §4.8 "old entries past the retention window are garbage-
// collected by a leased background task"), grounded directly on the
// original repository's cf::gc::gc_db: a bounded range-delete from the
// zero versionstamp up to the watermark.
func GC(txn doc.TxnWriter, ns, db string, watermark keys.VersionStamp) error {
	lo, _, err := keys.ChangeFeedRangeFrom(ns, db, keys.VersionStamp{})
	if err != nil {
		return err
	}
	// ChangeFeedRangeFrom's own lo return for from=watermark is exactly
	// the key encoding that versionstamp, which is exactly the
	// exclusive upper bound a "delete everything older" range wants.
	hi, _, err := keys.ChangeFeedRangeFrom(ns, db, watermark)
	if err != nil {
		return err
	}
	return txn.DelRange(lo, hi)
}

// WatermarkBefore computes the versionstamp cutoff for a retention
// window measured from now, using now's Unix-nanosecond value as the
// ordinal space's clock reference the way the original repository
// keys changefeed ordinals off a logical/wall clock rather than a
// separate commit counter.
func WatermarkBefore(now time.Time, retention time.Duration) keys.VersionStamp {
	cutoff := now.Add(-retention)
	if cutoff.UnixNano() < 0 {
		return keys.VersionStamp{}
	}
	return keys.NewVersionStamp(uint64(cutoff.UnixNano()), 0)
}
