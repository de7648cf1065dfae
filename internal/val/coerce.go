package val

import (
	"strconv"
	"time"
)

// Coerce converts v to kind k, the operation internal/doc's field()
// stage (spec §4.5 step 4) runs against a field's declared type. None
// and Null pass through unchanged regardless of k — a missing or
// explicitly-null field is a presence question, not a type question.
func Coerce(v Value, k Kind) (Value, bool) {
	if v.kind == KindNone || v.kind == KindNull {
		return v, true
	}
	if v.kind == k {
		return v, true
	}
	switch k {
	case KindString:
		return String(v.String()), true
	case KindBool:
		switch v.kind {
		case KindNumber:
			n, _ := v.AsNumber()
			return Bool(n.I != 0 || n.F != 0), true
		case KindString:
			b, err := strconv.ParseBool(v.s)
			if err != nil {
				return Value{}, false
			}
			return Bool(b), true
		}
	case KindNumber:
		switch v.kind {
		case KindString:
			if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
				return Int(i), true
			}
			if f, err := strconv.ParseFloat(v.s, 64); err == nil {
				return Float(f), true
			}
			return Value{}, false
		case KindBool:
			if v.b {
				return Int(1), true
			}
			return Int(0), true
		}
	case KindDuration:
		if v.kind == KindString {
			d, err := time.ParseDuration(v.s)
			if err != nil {
				return Value{}, false
			}
			return Dur(d), true
		}
	case KindArray:
		if v.kind != KindArray {
			return Array([]Value{v}), true
		}
	}
	return Value{}, false
}
