package exec

import (
	"context"
	"errors"

	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/val"
)

// Statement is the compiled form of one executable node: a parser
// (out of scope here) reduces SELECT/CREATE/IF/FOR/etc syntax down to
// a tree of these closures. A Statement is pure data in the sense spec
// §6 requires of the AST it's compiled from — it carries no mutable
// state of its own, only a reference to *Session, so running the same
// Statement value twice is always safe. ctx carries the deadline spec
// §6/§7 derives from TIMEOUT clauses and session/global defaults
// (Options.Deadline); every multi-step construct below (Block, For)
// checks it between steps so a cancelled or expired execution stops
// instead of running to completion.
type Statement func(ctx context.Context, s *Session) (val.Value, error)

// checkCtx turns a cancelled/expired ctx into the matching errs.Kind,
// or returns nil if ctx still has time left.
func checkCtx(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return errs.New(errs.KindTimeout, "exec.Statement", ctx.Err())
	default:
		return errs.New(errs.KindCancelled, "exec.Statement", ctx.Err())
	}
}

// Block runs statements in sequence (spec §4.5 "blocks (`{ … }`)"). A
// returnSignal/breakSignal/continueSignal from any statement stops the
// block immediately and propagates unchanged to the caller (the
// enclosing For or the top-level Execute loop decides what to do with
// it); an ordinary error aborts the block the same way. ctx is checked
// before each statement so a block stops mid-sequence the moment its
// deadline passes, rather than after the whole block runs.
func Block(stmts ...Statement) Statement {
	return func(ctx context.Context, s *Session) (val.Value, error) {
		var last val.Value = val.None()
		for _, stmt := range stmts {
			if err := checkCtx(ctx); err != nil {
				return last, err
			}
			v, err := stmt(ctx, s)
			if err != nil {
				return v, err
			}
			last = v
		}
		return last, nil
	}
}

// If runs then if cond evaluates true, else els (which may be nil).
func If(cond func(context.Context, *Session) (bool, error), then, els Statement) Statement {
	return func(ctx context.Context, s *Session) (val.Value, error) {
		ok, err := cond(ctx, s)
		if err != nil {
			return val.None(), err
		}
		if ok {
			return then(ctx, s)
		}
		if els == nil {
			return val.None(), nil
		}
		return els(ctx, s)
	}
}

// For runs body once per element iter produces, binding varName in
// the session to the current element for the duration of each
// iteration (spec §4.5 "FOR"). A breakSignal stops the loop and
// For returns normally; a continueSignal stops the current iteration
// only; a returnSignal or ordinary error propagates out of the loop
// entirely, leaving the caller to handle it the same as it would a
// bare Return/error from any other statement. ctx is checked once per
// iteration, so a long FOR stops at its deadline instead of running
// every element first.
func For(iter func(context.Context, *Session) ([]val.Value, error), varName string, body Statement) Statement {
	return func(ctx context.Context, s *Session) (val.Value, error) {
		items, err := iter(ctx, s)
		if err != nil {
			return val.None(), err
		}
		for _, item := range items {
			if err := checkCtx(ctx); err != nil {
				return val.None(), err
			}
			s.SetVar(varName, item)
			_, err := body(ctx, s)
			if err == nil {
				continue
			}
			switch err.(type) {
			case continueSignal:
				continue
			case breakSignal:
				return val.None(), nil
			default:
				return val.None(), err
			}
		}
		return val.None(), nil
	}
}

// Throw produces the THROW statement: a Thrown error (spec §7
// "User-thrown") propagated up the call stack until a catch block
// (not modeled here — no try/catch exists yet in this executor) or the
// statement boundary turns it into the statement's error result.
func Throw(msg string) Statement {
	return func(context.Context, *Session) (val.Value, error) {
		return val.None(), errs.New(errs.KindThrown, "exec.Throw", errors.New(msg))
	}
}

// Let binds name to the value expr produces, spec §4.5's control-flow
// list implies LET even though it isn't named explicitly alongside
// RETURN/BREAK/CONTINUE/THROW — a FOR/IF condition routinely needs a
// local binding to evaluate against.
func Let(name string, expr func(context.Context, *Session) (val.Value, error)) Statement {
	return func(ctx context.Context, s *Session) (val.Value, error) {
		v, err := expr(ctx, s)
		if err != nil {
			return val.None(), err
		}
		s.SetVar(name, v)
		return v, nil
	}
}

// ExtractReturn unwraps a returnSignal into its carried value, the
// form the top-level Execute loop needs: a RETURN inside a block is
// not a failure, it's that statement's successful result.
func ExtractReturn(err error) (val.Value, bool) {
	if rs, ok := err.(returnSignal); ok {
		return rs.Value, true
	}
	return val.None(), false
}
