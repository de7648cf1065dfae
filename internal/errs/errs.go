// Package errs defines the error taxonomy shared by every subsystem of
// warrendb: the kinds are named, not the messages, so callers can
// errors.Is/errors.As against a stable sentinel while each call site
// still wraps with its own %w context.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way spec §7's taxonomy does: schema,
// permission, transactional, or storage.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindAlreadyExists        Kind = "already_exists"
	KindIndexExists          Kind = "index_exists"
	KindFieldCheck           Kind = "field_check"
	KindTransactionConflict  Kind = "transaction_conflict"
	KindStorageUnavailable   Kind = "storage_unavailable"
	KindMalformedKey         Kind = "malformed_key"
	KindNumericOverflow      Kind = "numeric_overflow"
	KindInvalidLimit         Kind = "invalid_limit"
	KindNsNotFound           Kind = "ns_not_found"
	KindDbNotFound           Kind = "db_not_found"
	KindTbNotFound           Kind = "tb_not_found"
	KindPermissionDenied     Kind = "permission_denied"
	KindThrown               Kind = "thrown"
	KindRecordIDMismatch     Kind = "record_id_mismatch"
	KindNotNullViolation     Kind = "not_null_violation"
	KindTimeout              Kind = "timeout"
	KindCancelled            Kind = "cancelled"
	KindCorruption           Kind = "corruption"
)

// Error is the concrete error type every subsystem returns for a
// classified failure. It wraps an underlying cause the same way the
// teacher wraps bbolt/raft errors with fmt.Errorf("...: %w", err).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, errs.New(KindNotFound, "", nil)) match any
// Error sharing the same Kind, regardless of Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs a classified error. Op names the failing operation,
// e.g. "kvs.Commit" or "catalog.DefineTable".
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err (or anything it wraps) is classified as kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinel returns a comparison-only *Error for use with errors.Is,
// e.g. errors.Is(err, errs.Sentinel(errs.KindNotFound)).
func Sentinel(kind Kind) *Error { return &Error{Kind: kind} }
