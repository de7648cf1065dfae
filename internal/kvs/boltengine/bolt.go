// Package boltengine is the default kvs.Engine, a single flat ordered
// keyspace backed by go.etcd.io/bbolt (spec §4.1). It is grounded on
// the teacher's pkg/storage/boltdb.go, generalized from one bucket per
// entity kind to one bucket holding every binary-schema key warrendb
// defines, since spec §4.1's keyspace is a single ordered byte range
// rather than a set of independently-typed tables.
package boltengine

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/kvs"
)

var rootBucket = []byte("warrendb")

// Engine is the bbolt-backed kvs.Engine.
type Engine struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a bbolt database file under
// dataDir named "warrendb.db".
func Open(dataDir string) (*Engine, error) {
	path := filepath.Join(dataDir, "warrendb.db")
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errs.New(errs.KindStorageUnavailable, "boltengine.Open", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errs.New(errs.KindStorageUnavailable, "boltengine.Open", err)
	}
	return &Engine{db: db}, nil
}

func (e *Engine) Close() error { return e.db.Close() }

// NewSnapshot opens a bbolt read-only transaction and wraps it as a
// kvs.Snapshot; bbolt's MVCC guarantees the view stays fixed for the
// transaction's lifetime even while writers commit concurrently.
func (e *Engine) NewSnapshot(_ context.Context) (kvs.Snapshot, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, errs.New(errs.KindStorageUnavailable, "boltengine.NewSnapshot", err)
	}
	return &snapshot{tx: tx, bucket: tx.Bucket(rootBucket)}, nil
}

// Apply commits a kvs.WriteBatch atomically. If checkConflict is
// non-nil it runs against the latest committed state inside the same
// bbolt write transaction, so validation and application are
// indivisible: no writer can sneak a change in between the check and
// the write.
func (e *Engine) Apply(_ context.Context, batch kvs.Batch, checkConflict func(kvs.Snapshot) error) error {
	wb, ok := batch.(*kvs.WriteBatch)
	if !ok {
		return errs.New(errs.KindStorageUnavailable, "boltengine.Apply", fmt.Errorf("unsupported batch type %T", batch))
	}
	err := e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket)
		if checkConflict != nil {
			if err := checkConflict(&snapshot{tx: tx, bucket: b}); err != nil {
				return err
			}
		}
		for _, op := range wb.Ops() {
			switch {
			case op.DelRange:
				if err := deleteRange(b, op.Key, op.Hi); err != nil {
					return err
				}
			case op.Del:
				if err := b.Delete(op.Key); err != nil {
					return err
				}
			default:
				if err := b.Put(op.Key, op.Value); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errs.Is(err, errs.KindTransactionConflict) {
			return err
		}
		return errs.New(errs.KindStorageUnavailable, "boltengine.Apply", err)
	}
	return nil
}

func deleteRange(b *bolt.Bucket, lo, hi []byte) error {
	c := b.Cursor()
	var toDelete [][]byte
	for k, _ := c.Seek(lo); k != nil && (hi == nil || bytes.Compare(k, hi) < 0); k, _ = c.Next() {
		toDelete = append(toDelete, append([]byte(nil), k...))
	}
	for _, k := range toDelete {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// snapshot adapts a bbolt transaction (read-only or the write
// transaction mid-Apply) to kvs.Snapshot.
type snapshot struct {
	tx     *bolt.Tx
	bucket *bolt.Bucket
}

func (s *snapshot) Get(key []byte) ([]byte, bool, error) {
	v := s.bucket.Get(key)
	if v == nil {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *snapshot) Scan(lo, hi []byte, reverse bool, limit int) ([]kvs.KV, error) {
	c := s.bucket.Cursor()
	var out []kvs.KV
	if !reverse {
		for k, v := c.Seek(lo); k != nil && (hi == nil || bytes.Compare(k, hi) < 0); k, v = c.Next() {
			out = append(out, kvs.KV{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return out, nil
	}

	var k, v []byte
	if hi == nil {
		k, v = c.Last()
	} else {
		k, v = c.Seek(hi)
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
	}
	for ; k != nil && bytes.Compare(k, lo) >= 0; k, v = c.Prev() {
		out = append(out, kvs.KV{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *snapshot) Close() error {
	if s.tx.Writable() {
		return nil
	}
	return s.tx.Rollback()
}
