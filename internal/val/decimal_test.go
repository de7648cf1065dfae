package val

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecimal_StringRoundTrip(t *testing.T) {
	d, err := DecimalFromString("-12.3400")
	assert.NoError(t, err)
	assert.Equal(t, "-12.3400", d.String())
}

func TestDecimal_AddSub(t *testing.T) {
	a, _ := DecimalFromString("1.5")
	b, _ := DecimalFromString("2.25")
	assert.Equal(t, "3.75", a.Add(b).String())
	assert.Equal(t, "-0.75", a.Sub(b).String())
}

func TestDecimal_DivExactAndRepeatingSucceed(t *testing.T) {
	tests := []struct {
		name     string
		num, den string
	}{
		{"exact", "10", "2"},
		{"repeating", "1", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := DecimalFromString(tt.num)
			d, _ := DecimalFromString(tt.den)
			q, err := n.Div(d)
			assert.NoError(t, err)
			assert.NotEmpty(t, q.String())
		})
	}
}

func TestDecimal_DivByZero(t *testing.T) {
	a, _ := DecimalFromString("1")
	zero, _ := DecimalFromString("0")
	_, err := a.Div(zero)
	assert.Error(t, err)
}

func TestDecimal_RoundHalfToEven(t *testing.T) {
	// 1/2 is exact at DefaultDivisionScale, so no rounding applies.
	halfEven := DecimalFromInt64(1)
	two := DecimalFromInt64(2)
	q, err := halfEven.Div(two)
	assert.NoError(t, err)
	assert.Equal(t, 0, q.Cmp(mustDecimal(t, "0.5")))

	// Dividing by 2·10^20 leaves 0.5 and 1.5 units in the last of the 20
	// digits: 0.5 rounds to 0 (even), 1.5 rounds to 2 (even).
	twoE20 := mustDecimal(t, "200000000000000000000")
	q, err = DecimalFromInt64(1).Div(twoE20)
	assert.NoError(t, err)
	assert.Equal(t, 0, q.Cmp(mustDecimal(t, "0")))
	q, err = DecimalFromInt64(3).Div(twoE20)
	assert.NoError(t, err)
	assert.Equal(t, 0, q.Cmp(mustDecimal(t, "0.00000000000000000002")))
}

func mustDecimal(t *testing.T, s string) Decimal {
	d, err := DecimalFromString(s)
	assert.NoError(t, err)
	return d
}
