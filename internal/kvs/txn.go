package kvs

import (
	"bytes"
	"context"
	"math"
	"sync"
	"time"

	"github.com/warrendb/warrendb/internal/errs"
)

// Mode selects whether a transaction may write (spec §4.2: "begin(mode,
// lock)").
type Mode uint8

const (
	ModeRead Mode = iota
	ModeWrite
)

// Lock selects the conflict-detection strategy a write transaction
// uses at commit time.
type Lock uint8

const (
	// LockOptimistic validates the transaction's read set against the
	// latest committed state at commit time and fails with
	// KindTransactionConflict if anything it read has changed.
	LockOptimistic Lock = iota
	// LockPessimistic serializes all pessimistic write transactions
	// through a single mutex, so a transaction never needs to
	// retry — it simply waits its turn.
	LockPessimistic
)

// Manager owns the Engine and pessimistic-write serialization lock; it
// is the entry point every caller begins a Transaction from.
type Manager struct {
	engine Engine
	pessMu sync.Mutex
	clock  func() time.Time
}

func NewManager(engine Engine) *Manager {
	return &Manager{engine: engine, clock: time.Now}
}

// Begin opens a new transaction per spec §4.2. A pessimistic write
// transaction blocks until any other pessimistic writer commits or
// cancels.
func (m *Manager) Begin(ctx context.Context, mode Mode, lock Lock) (*Transaction, error) {
	snap, err := m.engine.NewSnapshot(ctx)
	if err != nil {
		return nil, errs.New(errs.KindStorageUnavailable, "kvs.Begin", err)
	}
	txn := &Transaction{
		mgr:      m,
		mode:     mode,
		lock:     lock,
		snapshot: snap,
		startTS:  m.clock(),
		writes:   map[string]*writeOp{},
		reads:    map[string][]byte{},
	}
	if mode == ModeWrite && lock == LockPessimistic {
		m.pessMu.Lock()
		txn.heldPess = true
	}
	return txn, nil
}

// Now returns the manager's notion of the current time, spec §4.2's
// clock() operation. Tests may override Manager.clock for determinism.
func (m *Manager) Now() time.Time { return m.clock() }

type writeOp struct {
	delete      bool
	deleteRange bool
	rangeHi     []byte
	value       []byte
	ifAbsent    bool
}

// Transaction is a single begin/commit-or-cancel unit of work, spec
// §4.2's "get/set/put_if_absent/del/del_range/scan/keys" surface.
type Transaction struct {
	mgr      *Manager
	mode     Mode
	lock     Lock
	snapshot Snapshot
	startTS  time.Time

	mu       sync.Mutex
	writes   map[string]*writeOp
	reads    map[string][]byte // key -> value observed at read time (nil sentinel tracked via readAbsent)
	readAbsent map[string]bool
	done     bool
	heldPess bool
}

func (t *Transaction) requireOpen(op string) error {
	if t.done {
		return errs.New(errs.KindCancelled, op, nil)
	}
	return nil
}

func (t *Transaction) requireWritable(op string) error {
	if err := t.requireOpen(op); err != nil {
		return err
	}
	if t.mode != ModeWrite {
		return errs.New(errs.KindPermissionDenied, op, nil)
	}
	return nil
}

// Get reads a key, first checking this transaction's own uncommitted
// writes, then the snapshot. Reads are recorded for optimistic commit
// validation.
func (t *Transaction) Get(key []byte) ([]byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireOpen("kvs.Get"); err != nil {
		return nil, false, err
	}
	if w, ok := t.writes[string(key)]; ok {
		if w.delete {
			return nil, false, nil
		}
		return w.value, true, nil
	}
	v, ok, err := t.snapshot.Get(key)
	if err != nil {
		return nil, false, errs.New(errs.KindStorageUnavailable, "kvs.Get", err)
	}
	t.recordRead(key, v, ok)
	return v, ok, nil
}

func (t *Transaction) recordRead(key, value []byte, present bool) {
	if t.lock != LockOptimistic {
		return
	}
	if t.readAbsent == nil {
		t.readAbsent = map[string]bool{}
	}
	if present {
		t.reads[string(key)] = append([]byte(nil), value...)
	} else {
		t.readAbsent[string(key)] = true
	}
}

// Set writes key=value, visible to later reads in this transaction
// but not to other transactions until Commit succeeds.
func (t *Transaction) Set(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireWritable("kvs.Set"); err != nil {
		return err
	}
	t.writes[string(key)] = &writeOp{value: append([]byte(nil), value...)}
	return nil
}

// PutIfAbsent writes key=value only if key does not already exist
// (checked against this transaction's own view), returning
// KindAlreadyExists otherwise.
func (t *Transaction) PutIfAbsent(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireWritable("kvs.PutIfAbsent"); err != nil {
		return err
	}
	if w, ok := t.writes[string(key)]; ok && !w.delete {
		return errs.New(errs.KindAlreadyExists, "kvs.PutIfAbsent", nil)
	}
	if _, ok := t.writes[string(key)]; !ok {
		v, present, err := t.snapshot.Get(key)
		if err != nil {
			return errs.New(errs.KindStorageUnavailable, "kvs.PutIfAbsent", err)
		}
		t.recordRead(key, v, present)
		if present {
			return errs.New(errs.KindAlreadyExists, "kvs.PutIfAbsent", nil)
		}
	}
	t.writes[string(key)] = &writeOp{value: append([]byte(nil), value...), ifAbsent: true}
	return nil
}

// Del deletes a single key.
func (t *Transaction) Del(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireWritable("kvs.Del"); err != nil {
		return err
	}
	t.writes[string(key)] = &writeOp{delete: true}
	return nil
}

// DelRange deletes every key in [lo, hi).
func (t *Transaction) DelRange(lo, hi []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireWritable("kvs.DelRange"); err != nil {
		return err
	}
	t.writes[string(lo)] = &writeOp{deleteRange: true, rangeHi: append([]byte(nil), hi...)}
	return nil
}

// Scan returns the key/value pairs in [lo, hi), merging this
// transaction's uncommitted writes over the snapshot.
func (t *Transaction) Scan(lo, hi []byte, reverse bool, limit int) ([]KV, error) {
	if limit < 0 || limit > math.MaxUint32 {
		return nil, errs.New(errs.KindInvalidLimit, "kvs.Scan", nil)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireOpen("kvs.Scan"); err != nil {
		return nil, err
	}
	base, err := t.snapshot.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, errs.New(errs.KindStorageUnavailable, "kvs.Scan", err)
	}
	merged := map[string][]byte{}
	for _, kv := range base {
		merged[string(kv.Key)] = kv.Value
	}
	for k, w := range t.writes {
		kb := []byte(k)
		if w.deleteRange {
			rhi := w.rangeHi
			for mk := range merged {
				mkb := []byte(mk)
				if bytes.Compare(mkb, kb) >= 0 && bytes.Compare(mkb, rhi) < 0 {
					delete(merged, mk)
				}
			}
			continue
		}
		if bytes.Compare(kb, lo) < 0 || (hi != nil && bytes.Compare(kb, hi) >= 0) {
			continue
		}
		if w.delete {
			delete(merged, k)
			continue
		}
		merged[k] = w.value
	}
	out := make([]KV, 0, len(merged))
	for k, v := range merged {
		out = append(out, KV{Key: []byte(k), Value: v})
	}
	sortKVs(out)
	if reverse {
		reverseKVs(out)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for _, kv := range base {
		t.recordRead(kv.Key, kv.Value, true)
	}
	return out, nil
}

// Keys is Scan without values, for callers that only need presence.
func (t *Transaction) Keys(lo, hi []byte, reverse bool, limit int) ([][]byte, error) {
	kvs, err := t.Scan(lo, hi, reverse, limit)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(kvs))
	for i, kv := range kvs {
		out[i] = kv.Key
	}
	return out, nil
}

// Commit applies the transaction's writes atomically. An optimistic
// write transaction's read set is validated against the latest
// committed state immediately before the write, inside the engine's
// write lock; a changed key fails commit with KindTransactionConflict
// and the transaction must be retried by the caller.
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireOpen("kvs.Commit"); err != nil {
		return err
	}
	defer t.finish()

	if t.mode != ModeWrite {
		return nil
	}
	batch := &WriteBatch{}
	for k, w := range t.writes {
		switch {
		case w.deleteRange:
			batch.DeleteRange([]byte(k), w.rangeHi)
		case w.delete:
			batch.Delete([]byte(k))
		default:
			batch.Set([]byte(k), w.value)
		}
	}
	var check func(Snapshot) error
	if t.lock == LockOptimistic {
		check = t.validateReadSet
	}
	if err := t.mgr.engine.Apply(ctx, batch, check); err != nil {
		if errs.Is(err, errs.KindTransactionConflict) {
			return err
		}
		return errs.New(errs.KindStorageUnavailable, "kvs.Commit", err)
	}
	return nil
}

func (t *Transaction) validateReadSet(latest Snapshot) error {
	for k, want := range t.reads {
		got, ok, err := latest.Get([]byte(k))
		if err != nil {
			return errs.New(errs.KindStorageUnavailable, "kvs.Commit", err)
		}
		if !ok || !bytes.Equal(got, want) {
			return errs.New(errs.KindTransactionConflict, "kvs.Commit", nil)
		}
	}
	for k := range t.readAbsent {
		if _, ok, err := latest.Get([]byte(k)); err != nil {
			return errs.New(errs.KindStorageUnavailable, "kvs.Commit", err)
		} else if ok {
			return errs.New(errs.KindTransactionConflict, "kvs.Commit", nil)
		}
	}
	return nil
}

// Cancel discards the transaction's writes without applying them.
func (t *Transaction) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Transaction) finish() {
	t.done = true
	_ = t.snapshot.Close()
	if t.heldPess {
		t.mgr.pessMu.Unlock()
		t.heldPess = false
	}
}

// Clock returns the manager's notion of the current time, spec §4.2's
// clock() operation scoped to this transaction's manager.
func (t *Transaction) Clock() time.Time { return t.mgr.Now() }
