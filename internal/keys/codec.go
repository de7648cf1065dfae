// Package keys implements spec §4.1: the binary key schema and the
// encode/decode/prefix/suffix contract every key family in spec §3
// must satisfy. All keys live in one ordered byte-keyed map, so the
// encoding here is the single source of truth for how records,
// indexes, cluster state, and change-feed entries collate.
//
// Design rules (spec §4.1):
//   - fixed-width integers are big-endian so numeric collation matches
//     byte collation;
//   - optional components are discriminator-prefixed (0x00 = absent,
//     0x01 = present) so Some/None sort before/after consistently;
//   - strings are NUL-terminated; embedded NULs are rejected at encode
//     time so the terminator is unambiguous and two strings collate by
//     plain byte content, not by length-then-content.
package keys

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/warrendb/warrendb/internal/errs"
)

// Family is a one-byte sub-discriminator used only where several key
// families share one outer scope and need a cheap tag (the full-text
// and HNSW posting families, both nested under an index's '+' scope).
// Every other family in spec §3 is tagged with its literal multi-byte
// ASCII discriminator directly (e.g. "!ns", "!tb", "!bf") so the
// on-disk bytes read the way spec §3's table shows them; see root.go,
// catalog.go, and record.go for those.
type Family byte

const (
	// Full-text posting families, all scoped under an index.
	FamFTTermText  Family = 0x30 // !bu{term_id} -> term text
	FamFTPosting   Family = 0x31 // !bf{term_id}{doc_id} -> frequency
	FamFTDocTerms  Family = 0x32 // !bk{doc_id} -> term id manifest
	FamFTOffsets   Family = 0x33 // !bo{doc_id}{term_id} -> offsets
	FamFTBitmap    Family = 0x34 // !bc{term_id} -> roaring bitmap
	FamFTState     Family = 0x35 // !bs -> aggregate BM25 state
	FamFTDocID     Family = 0x36 // !bi{record_id} -> doc_id
	FamFTDocRecord Family = 0x37 // !bd{doc_id} -> record_id
	FamFTTermID    Family = 0x38 // !bt{term} -> term_id, the forward lookup FTTermText's id->text mapping doesn't give us

	// HNSW families, all scoped under an index.
	FamHNSWElement Family = 0x40 // !he{element_id} -> vector
	FamHNSWLayer   Family = 0x41 // !hl{layer}{chunk} -> adjacency chunk
	FamHNSWDocByEl Family = 0x42 // !hi{element_id} -> record_id
	FamHNSWElByDoc Family = 0x43 // !hd{record_id} -> element_id
	FamHNSWState   Family = 0x44 // !hs -> entry point + max level
)

// prefixByte starts every encoded key so the whole keyspace forms one
// ordered namespace regardless of which storage engine sits underneath.
const prefixByte = '/'

// Builder accumulates bytes for a structured key in the order its
// components must collate.
type Builder struct {
	buf []byte
	err error
}

// NewBuilder starts a key with the shared '/' root prefix.
func NewBuilder() *Builder {
	b := &Builder{buf: make([]byte, 0, 64)}
	b.buf = append(b.buf, prefixByte)
	return b
}

func (b *Builder) Family(f Family) *Builder {
	b.buf = append(b.buf, byte(f))
	return b
}

// Bytes appends a raw, already-length-known byte blob (e.g. record id
// bytes produced by the value-model's own collating encoder).
func (b *Builder) Bytes(v []byte) *Builder {
	b.buf = append(b.buf, v...)
	return b
}

// Str appends a NUL-terminated string (spec §4.1). An embedded NUL
// would make the terminator ambiguous, so it's an encode error rather
// than something this layer escapes around.
func (b *Builder) Str(s string) *Builder {
	if strings.IndexByte(s, 0x00) >= 0 {
		b.err = errs.New(errs.KindMalformedKey, "keys.Str", fmt.Errorf("embedded NUL in key string %q", s))
		return b
	}
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0x00)
	return b
}

// U32 appends a big-endian uint32 so numeric order equals byte order.
func (b *Builder) U32(v uint32) *Builder {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.buf = append(b.buf, buf[:]...)
	return b
}

// U64 appends a big-endian uint64.
func (b *Builder) U64(v uint64) *Builder {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.buf = append(b.buf, buf[:]...)
	return b
}

// Bool appends a single discriminator byte.
func (b *Builder) Bool(v bool) *Builder {
	if v {
		b.buf = append(b.buf, 0x01)
	} else {
		b.buf = append(b.buf, 0x00)
	}
	return b
}

// Done returns the accumulated key bytes and any encode error.
func (b *Builder) Done() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf, nil
}

// MustDone is Done() but panics on error; only safe for callers that
// already validated their inputs (e.g. fixed internal constants).
func (b *Builder) MustDone() []byte {
	out, err := b.Done()
	if err != nil {
		panic(err)
	}
	return out
}
