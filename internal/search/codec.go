package search

import "encoding/binary"

// encodeU64/decodeU64 store a single counter value (term frequency,
// doc_id, term_id) as a fixed 8-byte big-endian integer.
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

// encodeTermIDs/decodeTermIDs store `!bk{doc_id}`'s term-id manifest
// (spec §4.6 "compact list of term_ids present in doc_id") as a flat
// run of 8-byte big-endian integers.
func encodeTermIDs(ids []uint64) []byte {
	b := make([]byte, len(ids)*8)
	for i, id := range ids {
		binary.BigEndian.PutUint64(b[i*8:i*8+8], id)
	}
	return b
}

func decodeTermIDs(b []byte) []uint64 {
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.BigEndian.Uint64(b[i*8 : i*8+8])
	}
	return out
}

// encodePositions stores `!bo{doc_id}{term_id}`'s offset list (spec
// §4.6 "offset records for highlight/snippet") as a flat run of
// 4-byte big-endian token positions.
func encodePositions(positions []int) []byte {
	b := make([]byte, len(positions)*4)
	for i, p := range positions {
		binary.BigEndian.PutUint32(b[i*4:i*4+4], uint32(p))
	}
	return b
}

func decodePositions(b []byte) []int {
	out := make([]int, len(b)/4)
	for i := range out {
		out[i] = int(binary.BigEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out
}
