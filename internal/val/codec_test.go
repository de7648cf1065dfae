package val

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip_Scalars(t *testing.T) {
	d, _ := DecimalFromString("12.50")
	vals := []Value{
		None(),
		Null(),
		Bool(true),
		Bool(false),
		Int(-42),
		Float(3.25),
		DecimalV(d),
		String("hello\x00world"),
		Dur(90 * time.Second),
		Datetime(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)),
		UUID(uuid.New()),
		Bytes([]byte{0x00, 0xFF, 0x01}),
	}
	for _, v := range vals {
		enc, err := Encode(v)
		require.NoError(t, err)
		got, err := Decode(enc)
		require.NoError(t, err)
		assert.Zero(t, Compare(v, got), "round-trip mismatch for kind %v", v.Kind())
	}
}

func TestCodec_RoundTrip_Nested(t *testing.T) {
	v := Object(map[string]Value{
		"name": String("alice"),
		"tags": Array([]Value{String("a"), String("b")}),
		"addr": Object(map[string]Value{"city": String("nyc"), "zip": Int(10001)}),
	})
	enc, err := Encode(v)
	require.NoError(t, err)
	got, err := Decode(enc)
	require.NoError(t, err)
	assert.Zero(t, Compare(v, got))
}

func TestCodec_RoundTrip_RecordID(t *testing.T) {
	rid := NewStringID("person", "alice")
	v := FromRecordID(rid)
	enc, err := Encode(v)
	require.NoError(t, err)
	got, err := Decode(enc)
	require.NoError(t, err)
	gotRid, ok := got.AsRecordID()
	require.True(t, ok)
	assert.True(t, rid.Equal(gotRid))
}

func TestCodec_RoundTrip_Range(t *testing.T) {
	r := Range{Begin: Int(1), BeginInclusive: true, End: Int(10), EndInclusive: false}
	v := FromRange(r)
	enc, err := Encode(v)
	require.NoError(t, err)
	got, err := Decode(enc)
	require.NoError(t, err)
	gotR, ok := got.AsRange()
	require.True(t, ok)
	assert.Equal(t, 0, Compare(r.Begin, gotR.Begin))
	assert.Equal(t, r.BeginInclusive, gotR.BeginInclusive)
}

func TestCodec_RoundTrip_Geometry(t *testing.T) {
	g := Geometry{Kind: GeometryPolygon, Polygon: [][]Point{
		{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 0}},
	}}
	v := FromGeometry(g)
	enc, err := Encode(v)
	require.NoError(t, err)
	got, err := Decode(enc)
	require.NoError(t, err)
	gotG, ok := got.AsGeometry()
	require.True(t, ok)
	assert.Equal(t, g.Polygon, gotG.Polygon)
}

func TestCodec_TrailingBytesRejected(t *testing.T) {
	enc, err := Encode(Int(1))
	require.NoError(t, err)
	_, err = Decode(append(enc, 0xFF))
	assert.Error(t, err)
}
