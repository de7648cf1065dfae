package val

import "fmt"

// Range is a bounded or half-open span over two values, used both as
// a value-kind (spec §4.4) and as a record-id kind (spec §3) for
// range-scan selections like `person:1..100`.
type Range struct {
	Begin         Value
	BeginInclusive bool
	End           Value
	EndInclusive  bool
}

func (r Range) String() string {
	lo := "-"
	hi := "-"
	if !r.Begin.IsNone() {
		lo = r.Begin.String()
	}
	if !r.End.IsNone() {
		hi = r.End.String()
	}
	openLo, openHi := ">", "<"
	if r.BeginInclusive {
		openLo = ">="
	}
	if r.EndInclusive {
		openHi = "<="
	}
	return fmt.Sprintf("%s%s..%s%s", openLo, lo, openHi, hi)
}

// Contains reports whether v falls within the range's bounds.
func Contains(r Range, v Value) bool {
	if !r.Begin.IsNone() {
		c := Compare(v, r.Begin)
		if c < 0 || (c == 0 && !r.BeginInclusive) {
			return false
		}
	}
	if !r.End.IsNone() {
		c := Compare(v, r.End)
		if c > 0 || (c == 0 && !r.EndInclusive) {
			return false
		}
	}
	return true
}
