package kvs

import (
	"bytes"
	"sort"
)

func sortKVs(kvs []KV) {
	sort.Slice(kvs, func(i, j int) bool {
		return bytes.Compare(kvs[i].Key, kvs[j].Key) < 0
	})
}

func reverseKVs(kvs []KV) {
	for i, j := 0, len(kvs)-1; i < j; i, j = i+1, j-1 {
		kvs[i], kvs[j] = kvs[j], kvs[i]
	}
}

// BatchOp is one write the WriteBatch accumulated, in commit order.
// Exactly one of the three shapes applies: Set (DelRange==false,
// Del==false), Del (Del==true), or DeleteRange (DelRange==true, Hi
// set).
type BatchOp struct {
	Key, Hi  []byte
	Value    []byte
	Del      bool
	DelRange bool
}

// WriteBatch is the in-memory Batch a Transaction accumulates before
// handing it to Engine.Apply at commit time. Engine implementations
// type-assert the Batch they receive back to *WriteBatch to read Ops.
type WriteBatch struct {
	ops []BatchOp
}

func (b *WriteBatch) Set(key, value []byte) {
	b.ops = append(b.ops, BatchOp{Key: key, Value: value})
}

func (b *WriteBatch) Delete(key []byte) {
	b.ops = append(b.ops, BatchOp{Key: key, Del: true})
}

func (b *WriteBatch) DeleteRange(lo, hi []byte) {
	b.ops = append(b.ops, BatchOp{Key: lo, Hi: hi, DelRange: true})
}

// Ops exposes the accumulated operations in commit order.
func (b *WriteBatch) Ops() []BatchOp { return b.ops }
