package val

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollate_OrderMatchesCompare_SameKind(t *testing.T) {
	vals := []Value{Int(-5), Int(-1), Int(0), Int(1), Int(1000)}
	rand.Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })

	sort.Slice(vals, func(i, j int) bool {
		return bytes.Compare(vals[i].Collate(), vals[j].Collate()) < 0
	})
	for i := 0; i < len(vals)-1; i++ {
		assert.True(t, Compare(vals[i], vals[i+1]) <= 0)
	}
}

func TestCollate_StringOrder(t *testing.T) {
	a, b := String("apple"), String("banana")
	assert.Negative(t, bytes.Compare(a.Collate(), b.Collate()))
}

func TestCollate_FloatOrder(t *testing.T) {
	vals := []float64{-100.5, -1, 0, 1, 100.5}
	var encoded [][]byte
	for _, f := range vals {
		encoded = append(encoded, Float(f).Collate())
	}
	for i := 0; i < len(encoded)-1; i++ {
		assert.Negative(t, bytes.Compare(encoded[i], encoded[i+1]))
	}
}

func TestCollate_DifferentKindsNeverCollide(t *testing.T) {
	a := Null().Collate()
	b := Bool(false).Collate()
	assert.NotEqual(t, a[0], b[0])
}

func TestCollate_RecordIDRoundTripOrdering(t *testing.T) {
	a := NewStringID("person", "alice")
	b := NewStringID("person", "bob")
	assert.Negative(t, bytes.Compare(a.Collate(), b.Collate()))
}
