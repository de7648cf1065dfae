package val

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Value is the recursive sum type spec §4.4 defines. It intentionally
// carries one field per variant rather than an interface-per-kind
// union: record values flow through the document pipeline by value
// far more often than they're type-switched, so a flat struct avoids
// an allocation and an interface dispatch on every field access.
type Value struct {
	kind Kind

	b   bool
	num Number
	s   string
	dur time.Duration
	dt  time.Time
	u   uuid.UUID
	by  []byte
	arr []Value
	obj map[string]Value
	rid *RecordID
	geo *Geometry
	rng *Range
}

// Number holds one of the three numeric representations (spec §4.4).
type Number struct {
	Kind NumberKind
	I    int64
	F    float64
	Dec  Decimal
}

func None() Value              { return Value{kind: KindNone} }
func Null() Value              { return Value{kind: KindNull} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Int(i int64) Value        { return Value{kind: KindNumber, num: Number{Kind: NumberInt, I: i}} }
func Float(f float64) Value    { return Value{kind: KindNumber, num: Number{Kind: NumberFloat, F: f}} }
func DecimalV(d Decimal) Value { return Value{kind: KindNumber, num: Number{Kind: NumberDecimal, Dec: d}} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func Dur(d time.Duration) Value { return Value{kind: KindDuration, dur: d} }
func Datetime(t time.Time) Value { return Value{kind: KindDatetime, dt: t.UTC()} }
func UUID(u uuid.UUID) Value   { return Value{kind: KindUUID, u: u} }
func Bytes(b []byte) Value     { return Value{kind: KindBytes, by: append([]byte(nil), b...)} }
func Array(vs []Value) Value   { return Value{kind: KindArray, arr: vs} }
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}
func FromRecordID(r RecordID) Value  { return Value{kind: KindRecordID, rid: &r} }
func FromGeometry(g Geometry) Value  { return Value{kind: KindGeometry, geo: &g} }
func FromRange(r Range) Value        { return Value{kind: KindRange, rng: &r} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsNullish() bool { return v.kind == KindNone || v.kind == KindNull }

func (v Value) AsBool() (bool, bool)         { return v.b, v.kind == KindBool }
func (v Value) AsNumber() (Number, bool)     { return v.num, v.kind == KindNumber }
func (v Value) AsString() (string, bool)     { return v.s, v.kind == KindString }
func (v Value) AsDuration() (time.Duration, bool) { return v.dur, v.kind == KindDuration }
func (v Value) AsDatetime() (time.Time, bool) { return v.dt, v.kind == KindDatetime }
func (v Value) AsUUID() (uuid.UUID, bool)    { return v.u, v.kind == KindUUID }
func (v Value) AsBytes() ([]byte, bool)      { return v.by, v.kind == KindBytes }
func (v Value) AsArray() ([]Value, bool)     { return v.arr, v.kind == KindArray }
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }
func (v Value) AsRecordID() (RecordID, bool) {
	if v.kind != KindRecordID || v.rid == nil {
		return RecordID{}, false
	}
	return *v.rid, true
}
func (v Value) AsGeometry() (Geometry, bool) {
	if v.kind != KindGeometry || v.geo == nil {
		return Geometry{}, false
	}
	return *v.geo, true
}
func (v Value) AsRange() (Range, bool) {
	if v.kind != KindRange || v.rng == nil {
		return Range{}, false
	}
	return *v.rng, true
}

// SortedObjectKeys returns an object value's keys in sort order, the
// basis for both Object comparison and Object collation (spec §4.4:
// "two objects compare key-sorted then element-wise").
func (v Value) SortedObjectKeys() []string {
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "NONE"
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindNumber:
		switch v.num.Kind {
		case NumberInt:
			return fmt.Sprintf("%d", v.num.I)
		case NumberFloat:
			return fmt.Sprintf("%g", v.num.F)
		default:
			return v.num.Dec.String()
		}
	case KindString:
		return v.s
	case KindDuration:
		return v.dur.String()
	case KindDatetime:
		return v.dt.Format(time.RFC3339Nano)
	case KindUUID:
		return v.u.String()
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.by))
	case KindArray:
		return fmt.Sprintf("array(%d)", len(v.arr))
	case KindObject:
		return fmt.Sprintf("object(%d)", len(v.obj))
	case KindRecordID:
		return v.rid.String()
	case KindGeometry:
		return v.geo.String()
	case KindRange:
		return v.rng.String()
	default:
		return "?"
	}
}
