package keys

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/warrendb/warrendb/internal/errs"
)

// Reader decodes a structured key in the same field order Builder
// wrote it. Every Decode function in this package constructs one,
// consumes fields left-to-right, and calls Done to check for leftover
// bytes (a sign the key belongs to a different, shorter family).
type Reader struct {
	buf []byte
	pos int
	err error
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

func (r *Reader) fail(op string, err error) {
	if r.err == nil {
		r.err = errs.New(errs.KindMalformedKey, op, err)
	}
}

// Byte reads the root prefix byte or a family tag.
func (r *Reader) Byte() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.buf) {
		r.fail("keys.Reader.Byte", fmt.Errorf("unexpected end of key"))
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) Family() Family { return Family(r.Byte()) }

// Str reads a NUL-terminated string written by Builder.Str.
func (r *Reader) Str() string {
	if r.err != nil {
		return ""
	}
	i := bytes.IndexByte(r.buf[r.pos:], 0x00)
	if i < 0 {
		r.fail("keys.Reader.Str", fmt.Errorf("missing string terminator"))
		return ""
	}
	s := string(r.buf[r.pos : r.pos+i])
	r.pos += i + 1
	return s
}

func (r *Reader) U32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.buf) {
		r.fail("keys.Reader.U32", fmt.Errorf("truncated uint32"))
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v
}

func (r *Reader) U64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.pos+8 > len(r.buf) {
		r.fail("keys.Reader.U64", fmt.Errorf("truncated uint64"))
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *Reader) Bool() bool {
	return r.Byte() == 0x01
}

// Bytes reads the remainder of the key, useful for a trailing
// variable-length record id encoded by the value model.
func (r *Reader) Bytes() []byte {
	if r.err != nil {
		return nil
	}
	out := r.buf[r.pos:]
	r.pos = len(r.buf)
	return out
}

// Rest reports the unread tail length; callers that need to peek
// before consuming (e.g. to dispatch on the next family byte) use
// this with Reader.buf[r.pos].
func (r *Reader) Rest() int { return len(r.buf) - r.pos }

func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.buf) {
		return errs.New(errs.KindMalformedKey, "keys.Reader.Done", fmt.Errorf("%d trailing bytes", len(r.buf)-r.pos))
	}
	return nil
}
