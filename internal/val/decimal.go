package val

import (
	"fmt"
	"math/big"
)

// Decimal is an arbitrary-precision fixed-point number: unscaled *
// 10^-scale. Division uses banker's rounding (round-half-to-even) per
// spec §4.4.
type Decimal struct {
	unscaled *big.Int
	scale    int32
}

// DefaultDivisionScale is how many fractional digits a Div result is
// rounded to when the quotient doesn't terminate exactly within the
// operands' own scale.
const DefaultDivisionScale = 20

func NewDecimal(unscaled *big.Int, scale int32) Decimal {
	if unscaled == nil {
		unscaled = big.NewInt(0)
	}
	return Decimal{unscaled: new(big.Int).Set(unscaled), scale: scale}
}

func DecimalFromInt64(i int64) Decimal {
	return Decimal{unscaled: big.NewInt(i), scale: 0}
}

// DecimalFromString parses a plain decimal literal like "-12.3400".
func DecimalFromString(s string) (Decimal, error) {
	r := new(big.Rat)
	if _, ok := r.SetString(s); !ok {
		return Decimal{}, fmt.Errorf("invalid decimal literal %q", s)
	}
	// Determine scale from the literal's fractional digit count.
	scale := int32(0)
	dot := -1
	for i, c := range s {
		if c == '.' {
			dot = i
			break
		}
	}
	if dot >= 0 {
		scale = int32(len(s) - dot - 1)
	}
	scaled := new(big.Rat).Mul(r, ratPow10(scale))
	if !scaled.IsInt() {
		// literal had trailing scientific notation or similar; fall
		// back to a higher working scale to avoid losing precision.
		scale = DefaultDivisionScale
		scaled = new(big.Rat).Mul(r, ratPow10(scale))
	}
	num := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	return Decimal{unscaled: num, scale: scale}, nil
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func ratPow10(n int32) *big.Rat {
	if n >= 0 {
		return new(big.Rat).SetInt(pow10(n))
	}
	return new(big.Rat).SetFrac(big.NewInt(1), pow10(-n))
}

func (d Decimal) rat() *big.Rat {
	return new(big.Rat).SetFrac(d.unscaled, pow10(d.scale))
}

func (d Decimal) String() string {
	if d.scale <= 0 {
		return new(big.Int).Mul(d.unscaled, pow10(-d.scale)).String()
	}
	s := new(big.Int).Abs(d.unscaled).String()
	for int32(len(s)) <= d.scale {
		s = "0" + s
	}
	cut := len(s) - int(d.scale)
	out := s[:cut] + "." + s[cut:]
	if d.unscaled.Sign() < 0 {
		out = "-" + out
	}
	return out
}

func alignScale(a, b Decimal) (int32, *big.Int, *big.Int) {
	scale := a.scale
	if b.scale > scale {
		scale = b.scale
	}
	au := new(big.Int).Mul(a.unscaled, pow10(scale-a.scale))
	bu := new(big.Int).Mul(b.unscaled, pow10(scale-b.scale))
	return scale, au, bu
}

func (d Decimal) Add(o Decimal) Decimal {
	scale, au, bu := alignScale(d, o)
	return Decimal{unscaled: new(big.Int).Add(au, bu), scale: scale}
}

func (d Decimal) Sub(o Decimal) Decimal {
	scale, au, bu := alignScale(d, o)
	return Decimal{unscaled: new(big.Int).Sub(au, bu), scale: scale}
}

func (d Decimal) Mul(o Decimal) Decimal {
	return Decimal{unscaled: new(big.Int).Mul(d.unscaled, o.unscaled), scale: d.scale + o.scale}
}

// Div performs division rounded to DefaultDivisionScale fractional
// digits using round-half-to-even (banker's rounding), per spec §4.4.
func (d Decimal) Div(o Decimal) (Decimal, error) {
	if o.unscaled.Sign() == 0 {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	scale := DefaultDivisionScale
	var num *big.Int
	exp := int32(scale) + o.scale - d.scale
	if exp >= 0 {
		num = new(big.Int).Mul(d.unscaled, pow10(exp))
	} else {
		num = new(big.Int).Quo(d.unscaled, pow10(-exp))
	}
	q, rem := new(big.Int).QuoRem(num, o.unscaled, new(big.Int))
	q = roundHalfToEven(q, rem, o.unscaled)
	return Decimal{unscaled: q, scale: int32(scale)}, nil
}

// roundHalfToEven adjusts a truncated quotient q (with remainder rem
// over divisor div) to the nearest integer, breaking ties to even.
func roundHalfToEven(q, rem, div *big.Int) *big.Int {
	if rem.Sign() == 0 {
		return q
	}
	twiceRem := new(big.Int).Mul(new(big.Int).Abs(rem), big.NewInt(2))
	absDiv := new(big.Int).Abs(div)
	cmp := twiceRem.Cmp(absDiv)
	roundAway := func() *big.Int {
		if (rem.Sign() < 0) != (div.Sign() < 0) {
			return new(big.Int).Sub(q, big.NewInt(1))
		}
		return new(big.Int).Add(q, big.NewInt(1))
	}
	switch {
	case cmp < 0:
		return q
	case cmp > 0:
		return roundAway()
	default:
		if q.Bit(0) == 0 {
			return q
		}
		return roundAway()
	}
}

func (d Decimal) Cmp(o Decimal) int {
	return d.rat().Cmp(o.rat())
}

func (d Decimal) Sign() int { return d.unscaled.Sign() }

func (d Decimal) Float64() float64 {
	f, _ := d.rat().Float64()
	return f
}

// bigFloatString renders a float64 as a plain (non-scientific) decimal
// literal so it can be promoted through DecimalFromString for exact
// cross-kind Number comparison (spec §4.4).
func bigFloatString(f float64) string {
	bf := new(big.Float).SetPrec(200).SetFloat64(f)
	return bf.Text('f', DefaultDivisionScale)
}
