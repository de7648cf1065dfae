// Package catalog implements spec §4.3: DEFINE/REMOVE/read operations
// for every schema entity (namespace, database, table, field, index,
// event, user, access method, live query, analyzer), each persisted
// under its own key family from internal/keys and round-tripped
// through internal/val's binary codec, the way the teacher's
// pkg/storage/boltdb.go round-trips typed structs through
// json.Marshal/Unmarshal into bbolt buckets — generalized here from
// per-kind buckets to per-kind key families inside one ordered
// keyspace, and driven through an internal/kvs.Transaction instead of
// a raw bolt.Tx so catalog writes share the same commit as record/
// index writes spec §4.5 requires.
package catalog

import (
	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/val"
)

// txnReader/txnWriter narrow internal/kvs.Transaction down to what
// catalog needs, so unit tests can fake a transaction without a real
// engine underneath.
type txnReader interface {
	Get(key []byte) ([]byte, bool, error)
	Scan(lo, hi []byte, reverse bool, limit int) ([]kvs.KV, error)
}

type txnWriter interface {
	txnReader
	Set(key, value []byte) error
	PutIfAbsent(key, value []byte) error
	Del(key []byte) error
	DelRange(lo, hi []byte) error
}

// defineEntity writes v's object encoding under key, failing with
// errs.KindAlreadyExists if overwrite is false and the key is already
// defined (spec §4.3 "a DEFINE path that writes the encoded
// definition").
func defineEntity(txn txnWriter, op string, key []byte, v val.Value, overwrite bool) error {
	enc, err := val.Encode(v)
	if err != nil {
		return errs.New(errs.KindMalformedKey, op, err)
	}
	if overwrite {
		return txn.Set(key, enc)
	}
	return txn.PutIfAbsent(key, enc)
}

// readEntity fetches and decodes the object at key, or returns
// errs.KindNotFound (spec §4.3 "a typed reader that returns either the
// stored value or NotFound").
func readEntity(txn txnReader, op string, key []byte) (val.Value, error) {
	b, ok, err := txn.Get(key)
	if err != nil {
		return val.Value{}, err
	}
	if !ok {
		return val.Value{}, errs.New(errs.KindNotFound, op, nil)
	}
	v, err := val.Decode(b)
	if err != nil {
		return val.Value{}, errs.New(errs.KindMalformedKey, op, err)
	}
	return v, nil
}

// removeEntity deletes the single definition row at key, tolerating a
// missing row so REMOVE stays idempotent the way the teacher's
// BoltStore.DeleteNode does (bolt's Delete is a no-op on a missing
// key; we surface the same behavior across engines).
func removeEntity(txn txnWriter, key []byte) error {
	return txn.Del(key)
}

// newVersion mints a fresh catalog cache version uuid, spec §4.2's
// "bumping the version-uuid stored alongside" on any write to a
// table's catalog row.
func newVersion() uuid.UUID { return uuid.New() }

// errIndexExists reclassifies a PutIfAbsent collision as
// errs.KindIndexExists, the dedicated taxonomy member spec §7 names
// for this case instead of the generic AlreadyExists.
func errIndexExists(err error) error {
	if errs.Is(err, errs.KindAlreadyExists) {
		return errs.New(errs.KindIndexExists, "catalog.DefineIndex", nil)
	}
	return err
}
