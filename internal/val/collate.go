package val

import (
	"encoding/binary"
	"math"
)

// Collate encodes a Value into a byte sequence whose lexicographic
// (bytewise) order matches Compare's total order (spec §4.4). It is
// the sole mechanism by which indexed values and record ids become
// key-embeddable bytes (internal/keys' ValueBytes/IDBytes parameters).
//
// The leading byte is always the value's Kind, so values of different
// kinds never interleave regardless of payload encoding.
func (v Value) Collate() []byte {
	out := []byte{byte(v.kind)}
	switch v.kind {
	case KindNone, KindNull:
		// no payload
	case KindBool:
		if v.b {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	case KindNumber:
		out = append(out, collateNumber(v.num)...)
	case KindString:
		out = append(out, collateBytesTerminated([]byte(v.s))...)
	case KindDuration:
		out = append(out, collateInt64(int64(v.dur))...)
	case KindDatetime:
		out = append(out, collateInt64(v.dt.UnixNano())...)
	case KindUUID:
		out = append(out, v.u[:]...)
	case KindBytes:
		out = append(out, collateBytesTerminated(v.by)...)
	case KindArray:
		for _, e := range v.arr {
			out = append(out, collateBytesTerminated(e.Collate())...)
		}
	case KindObject:
		for _, k := range v.SortedObjectKeys() {
			out = append(out, collateBytesTerminated([]byte(k))...)
			out = append(out, collateBytesTerminated(v.obj[k].Collate())...)
		}
	case KindRecordID:
		out = append(out, v.rid.Collate()...)
	case KindGeometry:
		out = append(out, collateBytesTerminated([]byte(v.geo.String()))...)
	case KindRange:
		out = append(out, collateBytesTerminated(v.rng.Begin.Collate())...)
		out = append(out, collateBytesTerminated(v.rng.End.Collate())...)
	}
	return out
}

// Collate encodes a RecordID the same way Value.Collate does, so a
// RecordID embedded as a record key's IDBytes sorts consistently with
// the same id wrapped in a Value (e.g. inside an array or object).
func (r RecordID) Collate() []byte {
	out := []byte{byte(r.Kind)}
	switch r.Kind {
	case RecordIDString:
		out = append(out, collateBytesTerminated([]byte(r.Str))...)
	case RecordIDInt:
		out = append(out, collateInt64(r.Int)...)
	case RecordIDUUID:
		out = append(out, r.UUID[:]...)
	case RecordIDObject:
		out = append(out, Object(r.Obj).Collate()...)
	case RecordIDArray:
		out = append(out, Array(r.Arr).Collate()...)
	case RecordIDRange:
		if r.Rng != nil {
			out = append(out, FromRange(*r.Rng).Collate()...)
		}
	}
	return out
}

// collateInt64 flips the sign bit so two's-complement signed integers
// sort correctly as unsigned big-endian bytes.
func collateInt64(i int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(i)^(1<<63))
	return buf
}

// collateBytesTerminated escapes 0x00 as 0x00 0xFF and terminates with
// 0x00 0x00, the standard technique for making variable-length byte
// strings concatenable inside a larger collated key without losing
// their boundary. internal/keys does not escape its own string
// components this way; it rejects embedded NULs instead.
func collateBytesTerminated(b []byte) []byte {
	out := make([]byte, 0, len(b)+2)
	for _, c := range b {
		if c == 0x00 {
			out = append(out, 0x00, 0xFF)
		} else {
			out = append(out, c)
		}
	}
	return append(out, 0x00, 0x00)
}

// collateNumber orders Int/Float/Decimal so the byte encoding matches
// compareNumber: a one-byte subkind prefix keeps same-subkind runs
// contiguous and bytewise-ordered, since cross-subkind numeric
// ordering by raw bytes alone isn't achievable without normalizing to
// a shared representation (sort order across Int/Float/Decimal on the
// same value is only guaranteed by Compare, not by this key encoding).
func collateNumber(n Number) []byte {
	out := []byte{byte(n.Kind)}
	switch n.Kind {
	case NumberInt:
		out = append(out, collateInt64(n.I)...)
	case NumberFloat:
		out = append(out, collateFloat64(n.F)...)
	default:
		out = append(out, collateBytesTerminated([]byte(n.Dec.String()))...)
	}
	return out
}

// collateFloat64 maps IEEE-754 bit patterns to a bytewise-sortable
// unsigned form: flip the sign bit for positives, flip all bits for
// negatives.
func collateFloat64(f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf
}
