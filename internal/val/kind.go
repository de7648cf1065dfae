// Package val implements spec §4.4: the runtime value tree every
// record, index key, and query result is built from, plus the total
// order across kinds spec §4.4 defines for index collation.
package val

// Kind identifies which variant of the value union a Value holds.
// The numeric order of these constants IS the cross-kind comparison
// order spec §4.4 specifies: None < Null < Bool < Number < String <
// Duration < Datetime < Uuid < Bytes < Array < Object < RecordID <
// Geometry < Range.
type Kind uint8

const (
	KindNone Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindDuration
	KindDatetime
	KindUUID
	KindBytes
	KindArray
	KindObject
	KindRecordID
	KindGeometry
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDuration:
		return "duration"
	case KindDatetime:
		return "datetime"
	case KindUUID:
		return "uuid"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindRecordID:
		return "record"
	case KindGeometry:
		return "geometry"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// NumberKind distinguishes the three numeric representations spec
// §4.4 names: 64-bit signed Int, IEEE-754 Float, and arbitrary
// precision Decimal.
type NumberKind uint8

const (
	NumberInt NumberKind = iota
	NumberFloat
	NumberDecimal
)
