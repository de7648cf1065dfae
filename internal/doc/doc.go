// Package doc implements spec §4.5's per-record document pipeline: the
// fifteen ordered stages (check/allow/alter/field/reset/clean/allow/
// store/index/edges/table/lives/changefeeds/event/pluck) that every
// CREATE/UPDATE/RELATE/DELETE record passes through. Stages whose
// semantics require the statement AST, session, or expression
// evaluator (predicate checks, computed `VALUE` expressions, live
// query pattern matching, table propagation) are exposed as Hooks that
// internal/exec wires up; doc itself owns everything that's pure KV
// mechanics — mutation application, schema coercion, index postings,
// edge keys, and the record's own storage.
package doc

import (
	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/val"
)

// Action identifies which statement kind is driving a record through
// the pipeline; delete and select run a strict subset of stages (spec
// §4.5 "delete and select skip unaffected stages").
type Action uint8

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
	ActionRelate
	ActionSelect
)

// TxnWriter is the slice of *kvs.Transaction the pipeline needs.
// Declared locally (rather than imported from internal/catalog, whose
// equivalent interface is unexported) so this package only depends on
// the method set it actually calls; exported because IndexWriter
// implementations (internal/search, internal/vector) live in other
// packages and need to spell this type in their own method signatures.
type TxnWriter interface {
	Get(key []byte) ([]byte, bool, error)
	Scan(lo, hi []byte, reverse bool, limit int) ([]kvs.KV, error)
	Set(key, value []byte) error
	PutIfAbsent(key, value []byte) error
	Del(key []byte) error
	DelRange(lo, hi []byte) error
}

// Hooks are the stages whose behaviour internal/exec owns. A nil hook
// is a no-op that never blocks or contributes additional work, so a
// caller driving only plain CRUD (no permissions, no live queries, no
// events) can pass a zero Hooks.
type Hooks struct {
	// Check evaluates stage 1's WHERE predicate. Returning false skips
	// the record without error.
	Check func(before, working val.Value) (bool, error)
	// Allow evaluates stages 2 and 7's permission clause. stage is
	// "pre" or "post". Returning false aborts the record silently.
	Allow func(stage string, action Action, before, working val.Value) (bool, error)
	// Eval evaluates a field's computed VALUE expression (stage 4).
	Eval func(expr string, before, working val.Value) (val.Value, error)
	// Index maintains non-btree (full-text, HNSW) index kinds as part
	// of stage 9; btree postings are maintained by this package
	// directly since they need no subsystem beyond internal/keys.
	Index IndexWriter
	// Table runs stage 11's propagation to computed/aggregated tables.
	Table func(schema catalog.TableSchema, action Action, before, after val.Value) error
	// Lives runs stage 12: evaluate every live query registered on
	// this table against (before, after) and enqueue notifications
	// for matches.
	Lives func(schema catalog.TableSchema, action Action, before, after val.Value) error
	// ChangeFeed runs stage 13: append a TableMutation if the table
	// has CHANGEFEED configured.
	ChangeFeed func(schema catalog.TableSchema, action Action, before, after val.Value) error
	// Event runs stage 14 for each EVENT whose WHEN clause matches.
	Event func(schema catalog.TableSchema, action Action, before, after val.Value) error
}

// ErrSkip is returned by Run when the record was skipped by stage 1
// (check) or aborted silently by stage 2/7 (allow) — not a failure,
// just "this record produces no result".
var ErrSkip = errs.New(errs.KindThrown, "doc.Run", nil)

// Result is the pipeline's output: the stored (or deleted) record, and
// whatever RETURN clause projection the caller applies afterward
// (pluck, stage 15, is intentionally left to the caller — it's a pure
// function of Result.After and has no KV side effect to own here).
type Result struct {
	Before val.Value
	After  val.Value
}

// Run drives one record through the pipeline (spec §4.5). mut is
// ignored for ActionDelete/ActionSelect. before is val.None() for a
// record that doesn't yet exist (a fresh CREATE).
func Run(txn TxnWriter, schema catalog.TableSchema, id val.RecordID, action Action, before val.Value, mut Mutation, hooks Hooks) (Result, error) {
	if action == ActionSelect {
		return Result{Before: before, After: before}, nil
	}
	if action == ActionDelete {
		return runDelete(txn, schema, id, before, hooks)
	}

	working := before

	// 1. check
	if hooks.Check != nil {
		ok, err := hooks.Check(before, working)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrSkip
		}
	}

	// 2. allow (pre)
	if hooks.Allow != nil {
		ok, err := hooks.Allow("pre", action, before, working)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrSkip
		}
	}

	// 3. alter
	working, err := alter(working, mut)
	if err != nil {
		return Result{}, err
	}

	// 4. field
	working, err = applyFieldSchema(working, schema.Fields, hooks.Eval, before)
	if err != nil {
		return Result{}, err
	}

	// 5. reset
	working = resetReservedFields(working, before, id)

	// 6. clean
	if schema.Table.Schemafull {
		working = cleanToSchema(working, schema.Fields)
	}

	// 7. allow (post)
	if hooks.Allow != nil {
		ok, err := hooks.Allow("post", action, before, working)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrSkip
		}
	}

	// 8. store
	if err := storeRecord(txn, schema.Table.NS, schema.Table.DB, schema.Table.Name, id, working); err != nil {
		return Result{}, err
	}

	// 9. index
	if err := applyIndexes(txn, schema.Indexes, id, before, working, hooks.Index); err != nil {
		return Result{}, err
	}

	// 10. edges (relate only)
	if action == ActionRelate {
		if err := writeEdges(txn, schema.Table.NS, schema.Table.DB, schema.Table.Name, id, working); err != nil {
			return Result{}, err
		}
	}

	// 11. table
	if hooks.Table != nil {
		if err := hooks.Table(schema, action, before, working); err != nil {
			return Result{}, err
		}
	}

	// 12. lives
	if hooks.Lives != nil {
		if err := hooks.Lives(schema, action, before, working); err != nil {
			return Result{}, err
		}
	}

	// 13. changefeeds
	if hooks.ChangeFeed != nil {
		if err := hooks.ChangeFeed(schema, action, before, working); err != nil {
			return Result{}, err
		}
	}

	// 14. event
	if hooks.Event != nil {
		if err := hooks.Event(schema, action, before, working); err != nil {
			return Result{}, err
		}
	}

	return Result{Before: before, After: working}, nil
}

func runDelete(txn TxnWriter, schema catalog.TableSchema, id val.RecordID, before val.Value, hooks Hooks) (Result, error) {
	if hooks.Check != nil {
		ok, err := hooks.Check(before, before)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrSkip
		}
	}
	if hooks.Allow != nil {
		ok, err := hooks.Allow("pre", ActionDelete, before, before)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrSkip
		}
	}

	key, err := keys.Record{NS: schema.Table.NS, DB: schema.Table.DB, TB: schema.Table.Name, IDBytes: id.Collate()}.Encode()
	if err != nil {
		return Result{}, err
	}
	if err := txn.Del(key); err != nil {
		return Result{}, err
	}

	if err := removeIndexes(txn, schema.Indexes, id, before, hooks.Index); err != nil {
		return Result{}, err
	}
	if err := removeEdges(txn, schema.Table.NS, schema.Table.DB, schema.Table.Name, id, before); err != nil {
		return Result{}, err
	}

	if hooks.Lives != nil {
		if err := hooks.Lives(schema, ActionDelete, before, val.None()); err != nil {
			return Result{}, err
		}
	}
	if hooks.ChangeFeed != nil {
		if err := hooks.ChangeFeed(schema, ActionDelete, before, val.None()); err != nil {
			return Result{}, err
		}
	}
	if hooks.Event != nil {
		if err := hooks.Event(schema, ActionDelete, before, val.None()); err != nil {
			return Result{}, err
		}
	}

	return Result{Before: before, After: val.None()}, nil
}

func storeRecord(txn TxnWriter, ns, db, tb string, id val.RecordID, v val.Value) error {
	key, err := keys.Record{NS: ns, DB: db, TB: tb, IDBytes: id.Collate()}.Encode()
	if err != nil {
		return err
	}
	enc, err := val.Encode(v)
	if err != nil {
		return err
	}
	return txn.Set(key, enc)
}
