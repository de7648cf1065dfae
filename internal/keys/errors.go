package keys

import (
	"bytes"
	"fmt"

	"github.com/warrendb/warrendb/internal/errs"
)

func errWrongFamily(entity string, want, got Family) error {
	return errs.New(errs.KindMalformedKey, "keys.Decode"+entity,
		fmt.Errorf("expected family %#x, got %#x", byte(want), byte(got)))
}

func errWrongTag(entity string, want []byte) error {
	return errs.New(errs.KindMalformedKey, "keys.Decode"+entity,
		fmt.Errorf("expected tag %q", want))
}

// expectTag consumes len(tag) bytes from r and fails if they don't
// match tag exactly, the literal multi-byte family discriminator
// convention spec §3 uses ("!ns", "!tb", "!bf", ...).
func expectTag(r *Reader, tag []byte) error {
	if r.err != nil {
		return r.err
	}
	if r.pos+len(tag) > len(r.buf) {
		r.fail("keys.expectTag", fmt.Errorf("truncated tag"))
		return r.err
	}
	got := r.buf[r.pos : r.pos+len(tag)]
	if !bytes.Equal(got, tag) {
		return errWrongTag("", tag)
	}
	r.pos += len(tag)
	return nil
}
