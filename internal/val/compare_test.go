package val

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCompare_CrossKindOrder(t *testing.T) {
	ordered := []Value{
		None(),
		Null(),
		Bool(false),
		Int(1),
		String("a"),
		Dur(time.Second),
		Datetime(time.Unix(0, 0)),
		UUID(uuid.Nil),
		Bytes([]byte{1}),
		Array([]Value{Int(1)}),
		Object(map[string]Value{"a": Int(1)}),
	}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Negative(t, Compare(ordered[i], ordered[i+1]), "index %d should sort before %d", i, i+1)
		assert.Positive(t, Compare(ordered[i+1], ordered[i]))
	}
}

func TestCompare_Numbers(t *testing.T) {
	assert.Zero(t, Compare(Int(5), Int(5)))
	assert.Negative(t, Compare(Int(5), Int(6)))
	assert.Zero(t, Compare(Int(5), Float(5.0)))
	d, err := DecimalFromString("5.00")
	assert.NoError(t, err)
	assert.Zero(t, Compare(Int(5), DecimalV(d)))
	assert.Negative(t, Compare(Float(1.5), Int(2)))
}

func TestCompare_FloatNaN(t *testing.T) {
	nan := Float(nan())
	assert.Zero(t, Compare(nan, nan), "NaN compares equal to NaN within this system")
	assert.Positive(t, Compare(nan, Float(1.0)))
	assert.Negative(t, Compare(Float(1.0), nan))
}

func nan() float64 {
	var f float64
	return f / f
}

func TestCompare_Arrays(t *testing.T) {
	a := Array([]Value{Int(1), Int(2)})
	b := Array([]Value{Int(1), Int(3)})
	assert.Negative(t, Compare(a, b))

	short := Array([]Value{Int(1)})
	assert.Negative(t, Compare(short, a), "shorter array with equal prefix sorts first")
}

func TestCompare_ObjectsKeySortedThenElementwise(t *testing.T) {
	a := Object(map[string]Value{"b": Int(1), "a": Int(2)})
	b := Object(map[string]Value{"a": Int(2), "b": Int(1)})
	assert.Zero(t, Compare(a, b), "key order in the literal must not affect comparison")

	c := Object(map[string]Value{"a": Int(3), "b": Int(1)})
	assert.Negative(t, Compare(a, c))
}

func TestCompare_RecordID(t *testing.T) {
	a := FromRecordID(NewStringID("person", "alice"))
	b := FromRecordID(NewStringID("person", "bob"))
	assert.Negative(t, Compare(a, b))

	c := FromRecordID(NewStringID("zzz", "aaa"))
	assert.Negative(t, Compare(a, c), "table name compares before the id")
}
