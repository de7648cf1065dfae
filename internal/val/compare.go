package val

import "bytes"

// Compare implements spec §4.4's total order: first by Kind, then
// within a kind by the natural order of its payload. Float NaN
// compares equal to NaN for ordering purposes within this system
// (spec §4.4), unlike IEEE-754 comparison.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNone, KindNull:
		return 0
	case KindBool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case KindNumber:
		return compareNumber(a.num, b.num)
	case KindString:
		return cmpString(a.s, b.s)
	case KindDuration:
		return cmpInt64(int64(a.dur), int64(b.dur))
	case KindDatetime:
		switch {
		case a.dt.Before(b.dt):
			return -1
		case a.dt.After(b.dt):
			return 1
		default:
			return 0
		}
	case KindUUID:
		return bytes.Compare(a.u[:], b.u[:])
	case KindBytes:
		return bytes.Compare(a.by, b.by)
	case KindArray:
		return compareArrays(a.arr, b.arr)
	case KindObject:
		return compareObjects(a, b)
	case KindRecordID:
		return compareRecordID(*a.rid, *b.rid)
	case KindGeometry:
		return cmpString(a.geo.String(), b.geo.String())
	case KindRange:
		c := Compare(a.rng.Begin, b.rng.Begin)
		if c != 0 {
			return c
		}
		return Compare(a.rng.End, b.rng.End)
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareNumber promotes mixed Int/Float/Decimal comparisons to
// Decimal so ordering is exact rather than float-lossy, except when
// both sides are plain floats (where NaN==NaN per spec §4.4).
func compareNumber(a, b Number) int {
	if a.Kind == NumberFloat && b.Kind == NumberFloat {
		af, bf := a.F, b.F
		aNaN, bNaN := af != af, bf != bf
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return numberAsDecimal(a).Cmp(numberAsDecimal(b))
}

func numberAsDecimal(n Number) Decimal {
	switch n.Kind {
	case NumberInt:
		return DecimalFromInt64(n.I)
	case NumberDecimal:
		return n.Dec
	default:
		d, _ := DecimalFromString(floatToPlainString(n.F))
		return d
	}
}

func floatToPlainString(f float64) string {
	return bigFloatString(f)
}

func compareArrays(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

func compareObjects(a, b Value) int {
	ak, bk := a.SortedObjectKeys(), b.SortedObjectKeys()
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := cmpString(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := Compare(a.obj[ak[i]], b.obj[bk[i]]); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(ak)), int64(len(bk)))
}

func compareRecordID(a, b RecordID) int {
	if c := cmpString(a.Table, b.Table); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case RecordIDString:
		return cmpString(a.Str, b.Str)
	case RecordIDInt:
		return cmpInt64(a.Int, b.Int)
	case RecordIDUUID:
		return bytes.Compare(a.UUID[:], b.UUID[:])
	case RecordIDObject:
		return compareObjects(Object(a.Obj), Object(b.Obj))
	case RecordIDArray:
		return compareArrays(a.Arr, b.Arr)
	default:
		if a.Rng == nil || b.Rng == nil {
			return 0
		}
		c := Compare(a.Rng.Begin, b.Rng.Begin)
		if c != 0 {
			return c
		}
		return Compare(a.Rng.End, b.Rng.End)
	}
}
