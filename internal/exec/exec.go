package exec

import (
	"context"
	"time"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/val"
)

// Executor is the entry point spec §4.5 names: `execute(statements,
// options, session) -> Vec<Response>`. It owns the transaction manager
// and catalog cache every statement reads through, and the id
// allocator DEFINE statements use.
type Executor struct {
	mgr   *kvs.Manager
	cache *kvs.CatalogCache
	alloc *catalog.Allocator
}

func NewExecutor(mgr *kvs.Manager, cache *kvs.CatalogCache) *Executor {
	return &Executor{mgr: mgr, cache: cache, alloc: catalog.NewAllocator()}
}

// Status is a Response's outcome discriminant (spec §6).
type Status uint8

const (
	StatusOK Status = iota
	StatusErr
)

// Response is spec §6's per-statement result: `{time, status, value |
// error}`. A live-query statement's Value is its registration uuid
// encoded as a val.Value; subsequent notifications are delivered
// out-of-band (spec §4.8), not through Response.
type Response struct {
	Time   time.Duration
	Status Status
	Value  val.Value
	Err    error
}

// Txn wraps a *kvs.Transaction with the session/options context a
// statement's Begin/Commit/Cancel operates against (spec §4.5
// "transactions (BEGIN/COMMIT/CANCEL)").
type Txn struct {
	kv      *kvs.Transaction
	session *Session
	opts    Options
}

// Begin opens an explicit client transaction. lock selects the
// conflict-detection strategy spec §4.2's begin(mode, lock) exposes.
func (e *Executor) Begin(ctx context.Context, session *Session, opts Options, lock kvs.Lock) (*Txn, error) {
	kv, err := e.mgr.Begin(ctx, kvs.ModeWrite, lock)
	if err != nil {
		return nil, err
	}
	return &Txn{kv: kv, session: session, opts: opts}, nil
}

// Commit runs spec §4.5's COMMIT: applies the transaction's writes.
// Per spec §7 "a transaction explicitly begun by the client rolls back
// if any statement inside it fails (unless the error is explicitly
// caught)" — callers are expected to call Cancel instead of Commit the
// moment a statement inside the transaction fails.
func (t *Txn) Commit(ctx context.Context) error {
	return t.kv.Commit(ctx)
}

// Cancel runs spec §4.5's CANCEL: discards the transaction's writes.
func (t *Txn) Cancel() error {
	return t.kv.Cancel()
}

// RunStatement executes one Statement within this transaction's
// session scope and wraps the outcome as a Response, unwrapping a
// returnSignal into the response's value the way a top-level RETURN
// is meant to surface (spec §4.5 step 15's pluck happens above this,
// against Response.Value, since it's a pure projection with no KV
// side effect of its own). ctx's deadline (spec §7's "every execution
// carries a context with a deadline") is checked before stmt runs at
// all, so a TIMEOUT that has already expired (including an explicit
// `TIMEOUT 0ms`) never executes a single statement.
func RunStatement(ctx context.Context, stmt Statement, session *Session, clock func() time.Time) Response {
	start := clock()
	if err := checkCtx(ctx); err != nil {
		return Response{Time: clock().Sub(start), Status: StatusErr, Err: err}
	}
	v, err := stmt(ctx, session)
	if rv, ok := ExtractReturn(err); ok {
		return Response{Time: clock().Sub(start), Status: StatusOK, Value: rv}
	}
	if err != nil {
		return Response{Time: clock().Sub(start), Status: StatusErr, Err: err}
	}
	return Response{Time: clock().Sub(start), Status: StatusOK, Value: v}
}

// Execute runs each statement independently (spec §6 "a failing
// statement never masks the prior statements' results in the same
// batch"): one Response per Statement, regardless of earlier
// failures, unless stmts was itself produced from inside an explicit
// BEGIN/COMMIT block the caller manages itself via Begin/Commit/Cancel.
// opts.Timeout (spec §7/§8) bounds the whole batch: every statement
// shares the one deadline derived from opts.Deadline, not a fresh one
// per statement, so TIMEOUT governs the batch's wall-clock time.
func (e *Executor) Execute(ctx context.Context, session *Session, opts Options, stmts []Statement) []Response {
	now := time.Now()
	ctx, cancel := opts.Deadline(ctx, now)
	defer cancel()

	out := make([]Response, 0, len(stmts))
	for _, stmt := range stmts {
		out = append(out, RunStatement(ctx, stmt, session, time.Now))
	}
	return out
}

// LoadSchema is the catalog lookup every record-affecting Statement
// needs before handing a record to doc.Run.
func (e *Executor) LoadSchema(txn *kvs.Transaction, ns, db, tb string) (catalog.TableSchema, error) {
	return catalog.LoadTableSchema(txn, e.cache, ns, db, tb)
}

// StrictGuard enforces Options.Strict (spec §8 "Strict mode: CREATE
// ns:unknown:… without a prior DEFINE NAMESPACE fails NsNotFound") by
// requiring the namespace/database/table to already exist; non-strict
// callers are expected to auto-DEFINE before calling this (exec itself
// doesn't auto-define — that's the statement layer built on top of
// doc/catalog, out of scope for the control-flow primitives here).
func StrictGuard(opts Options, exists bool, kind errs.Kind) error {
	if opts.Strict && !exists {
		return errs.New(kind, "exec.StrictGuard", nil)
	}
	return nil
}

// ExecuteRecord loads tb's schema and drives one record through
// internal/doc's per-record pipeline within txn, the glue between the
// statement layer (CREATE/UPDATE/DELETE/RELATE) and the document
// pipeline that spec §4.5 splits into "executor" and "per-record
// pipeline" halves. ctx's deadline is checked immediately before
// doc.Run: doc.Run itself carries no cancellation seam (it's a single
// in-process pipeline over one record, not something that blocks), so
// this is the last point before the pipeline runs that a batch-wide
// TIMEOUT can still take effect for this record.
func (e *Executor) ExecuteRecord(ctx context.Context, txn *kvs.Transaction, ns, db, tb string, id val.RecordID, action doc.Action, before val.Value, mut doc.Mutation, hooks doc.Hooks) (doc.Result, error) {
	schema, err := e.LoadSchema(txn, ns, db, tb)
	if err != nil {
		return doc.Result{}, err
	}
	if err := checkCtx(ctx); err != nil {
		return doc.Result{}, err
	}
	return doc.Run(txn, schema, id, action, before, mut, hooks)
}
