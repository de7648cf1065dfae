package exec

import (
	"time"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/feed"
	"github.com/warrendb/warrendb/internal/policy"
	"github.com/warrendb/warrendb/internal/val"
)

// HookDeps bundles the subsystems doc.Hooks delegates to, so building
// a Hooks value for one transaction is one call instead of threading
// five constructor arguments through every ExecuteRecord call site.
type HookDeps struct {
	Index   doc.IndexWriter
	Feed    *feed.Feed
	Lives   *LiveQueryMatcher
	Actor   policy.Actor
	Enforce bool // Options.PermissionsEnforced
	Clock   func() time.Time
}

// NewHooks wires doc.Hooks.Allow/Index/Lives/ChangeFeed to this
// transaction, per spec §4.5's stage list: stages 2/7 (Allow) consult
// internal/policy, stage 9 (Index) delegates non-btree index kinds to
// IndexWriters, stage 12 (Lives) delegates to LiveQueryMatcher, and
// stage 13 (ChangeFeed) delegates to internal/feed.Append.
//
// Stages 4 (Eval, computed field VALUE expressions), 11 (Table,
// computed/aggregated-table propagation) and 14 (Event, WHEN-clause
// matching) all require evaluating an already-parsed expression tree
// against a record — the "typed AST... produced by an external
// collaborator" spec §6 explicitly keeps out of this system's scope,
// the same reason Statement itself is a pre-compiled closure rather
// than something this package parses. Those three hooks are left nil
// (a no-op per doc.Hooks' own doc comment) until a caller supplies an
// AST evaluator of its own; Check (stage 1) is left nil for the same
// reason.
func NewHooks(txn doc.TxnWriter, deps HookDeps) doc.Hooks {
	return doc.Hooks{
		Allow: func(stage string, action doc.Action, before, working val.Value) (bool, error) {
			if !deps.Enforce {
				return true, nil
			}
			return policy.IsAllowed(deps.Actor, policyAction(action), resourceFor(deps.Actor)) == policy.Allowed, nil
		},
		Index: deps.Index,
		Lives: func(schema catalog.TableSchema, action doc.Action, before, after val.Value) error {
			if deps.Lives == nil {
				return nil
			}
			return deps.Lives.Hook(txn)(schema, action, before, after)
		},
		ChangeFeed: func(schema catalog.TableSchema, action doc.Action, before, after val.Value) error {
			now := time.Now
			if deps.Clock != nil {
				now = deps.Clock
			}
			return feed.Append(txn, schema, action, before, after, now())
		},
	}
}

// policyAction maps a document-pipeline action onto internal/policy's
// coarser View/Edit split (spec §4.9 only distinguishes the two).
func policyAction(a doc.Action) policy.Action {
	if a == doc.ActionSelect {
		return policy.ActionView
	}
	return policy.ActionEdit
}

// resourceFor treats the actor's own scope as the resource being
// acted on — the common case of "can this actor write in its own
// namespace/database" that ExecuteRecord's caller already resolved by
// the time it built Actor. A caller checking a different resource's
// scope (e.g. an IAM entity, or a grant at a different NS/DB) builds
// its own policy.Resource and calls policy.IsAllowed directly instead
// of going through NewHooks.
func resourceFor(actor policy.Actor) policy.Resource {
	return policy.Resource{Scope: actor.Scope, NS: actor.NS, DB: actor.DB}
}
