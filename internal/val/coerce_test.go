package val

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce_Scalars(t *testing.T) {
	v, ok := Coerce(String("3"), KindNumber)
	assert.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, int64(3), n.I)

	v, ok = Coerce(String("x"), KindNumber)
	assert.False(t, ok)
	_ = v

	v, ok = Coerce(Int(42), KindString)
	assert.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "42", s)

	v, ok = Coerce(String("5s"), KindDuration)
	assert.True(t, ok)
	d, _ := v.AsDuration()
	assert.Equal(t, int64(5e9), int64(d))
}

func TestCoerce_NoneNullPassThrough(t *testing.T) {
	v, ok := Coerce(None(), KindNumber)
	assert.True(t, ok)
	assert.True(t, v.IsNone())

	v, ok = Coerce(Null(), KindString)
	assert.True(t, ok)
	assert.True(t, v.IsNull())
}

func TestCoerce_ArrayWrapsScalar(t *testing.T) {
	v, ok := Coerce(Int(1), KindArray)
	assert.True(t, ok)
	arr, _ := v.AsArray()
	assert.Len(t, arr, 1)
}
