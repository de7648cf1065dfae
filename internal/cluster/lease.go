package cluster

import (
	"time"

	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Lease is the (owner_uuid, expires_at) pair stored under one
// TaskLease key (spec §4.10 "A task lease is a single key per named
// background task storing (owner_uuid, expires_at)").
type Lease struct {
	Owner     uuid.UUID
	ExpiresAt time.Time
}

func (l Lease) toValue() val.Value {
	return val.Object(map[string]val.Value{
		"owner":      val.UUID(l.Owner),
		"expires_at": val.Datetime(l.ExpiresAt),
	})
}

func leaseFromValue(v val.Value) Lease {
	obj, _ := v.AsObject()
	owner, _ := obj["owner"].AsUUID()
	expiresAt, _ := obj["expires_at"].AsDatetime()
	return Lease{Owner: owner, ExpiresAt: expiresAt}
}

// AcquireLease attempts to take ownership of task for ttl starting at
// now (spec §4.10 "A node acquires a lease via compare-and-set if
// either no owner or the lease is expired"). Returns false, nil (not
// an error) if another node currently holds an unexpired lease. The
// compare-and-set itself is the caller's transaction: run under
// kvs.LockOptimistic, the Get below enters this key in the read set,
// so Commit fails with KindTransactionConflict if another node wrote
// the same lease key first, and the caller simply retries.
func (c *Cluster) AcquireLease(txn doc.TxnWriter, task string, now time.Time, ttl time.Duration) (bool, error) {
	key, err := keys.TaskLease{Task: task}.Encode()
	if err != nil {
		return false, err
	}
	raw, present, err := txn.Get(key)
	if err != nil {
		return false, err
	}
	if present {
		v, err := val.Decode(raw)
		if err != nil {
			return false, err
		}
		cur := leaseFromValue(v)
		if cur.Owner == c.Self {
			// already ours: treat as a renewal.
			return true, c.writeLease(txn, key, task, now, ttl)
		}
		if cur.ExpiresAt.After(now) {
			return false, nil
		}
	}
	return true, c.writeLease(txn, key, task, now, ttl)
}

// RenewLease extends a lease this node already holds. It fails with
// errs.KindPermissionDenied if another node currently owns it, the
// same failure mode a stale worker hits if it tries to keep running a
// task another node has since reclaimed.
func (c *Cluster) RenewLease(txn doc.TxnWriter, task string, now time.Time, ttl time.Duration) error {
	key, err := keys.TaskLease{Task: task}.Encode()
	if err != nil {
		return err
	}
	raw, present, err := txn.Get(key)
	if err != nil {
		return err
	}
	if present {
		v, err := val.Decode(raw)
		if err != nil {
			return err
		}
		if cur := leaseFromValue(v); cur.Owner != c.Self {
			return errs.New(errs.KindPermissionDenied, "cluster.RenewLease", nil)
		}
	}
	return c.writeLease(txn, key, task, now, ttl)
}

func (c *Cluster) writeLease(txn doc.TxnWriter, key []byte, task string, now time.Time, ttl time.Duration) error {
	lease := Lease{Owner: c.Self, ExpiresAt: now.Add(ttl)}
	enc, err := val.Encode(lease.toValue())
	if err != nil {
		return err
	}
	return txn.Set(key, enc)
}

// GetLease reads task's current lease, if any.
func GetLease(txn doc.TxnWriter, task string) (Lease, bool, error) {
	key, err := keys.TaskLease{Task: task}.Encode()
	if err != nil {
		return Lease{}, false, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return Lease{}, present, err
	}
	v, err := val.Decode(raw)
	if err != nil {
		return Lease{}, false, err
	}
	return leaseFromValue(v), true, nil
}
