package vector

import (
	"encoding/binary"
	"math"
)

// encodeVector/decodeVector store an element's vector (`!he`) as a
// flat run of 8-byte big-endian IEEE-754 floats, the same binary
// encode/decode shape internal/val/codec.go uses for a single float.
func encodeVector(v []float64) []byte {
	b := make([]byte, len(v)*8)
	for i, f := range v {
		binary.BigEndian.PutUint64(b[i*8:i*8+8], math.Float64bits(f))
	}
	return b
}

func decodeVector(b []byte) []float64 {
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(b[i*8 : i*8+8]))
	}
	return out
}

// encodeNeighbors/decodeNeighbors store one adjacency-chunk's element
// ids (spec §4.7 "adjacency lists chunked for KV serialisation") as a
// flat run of 8-byte big-endian ids.
func encodeNeighbors(ids []uint64) []byte {
	b := make([]byte, len(ids)*8)
	for i, id := range ids {
		binary.BigEndian.PutUint64(b[i*8:i*8+8], id)
	}
	return b
}

func decodeNeighbors(b []byte) []uint64 {
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.BigEndian.Uint64(b[i*8 : i*8+8])
	}
	return out
}

func encodeU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeU64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
