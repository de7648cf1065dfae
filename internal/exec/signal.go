package exec

import (
	"context"

	"github.com/warrendb/warrendb/internal/val"
)

// Control-flow signals (spec §9 "model the three non-error signals...
// as a separate variant from ordinary errors so that a try-style
// evaluator cannot accidentally catch them"). Each implements error so
// it can travel the same return channel a Statement uses: Block passes
// every error, these three included, up unchanged; For checks for
// breakSignal and continueSignal and passes anything else up; and
// RunStatement unwraps a returnSignal into its Response. A THROW
// produces an *errs.Error with KindThrown instead, which no statement
// in this package intercepts.
type (
	returnSignal struct{ Value val.Value }
	breakSignal  struct{}
	continueSignal struct{}
)

func (returnSignal) Error() string   { return "return" }
func (breakSignal) Error() string    { return "break" }
func (continueSignal) Error() string { return "continue" }

// Return produces the RETURN statement: propagates Value up through
// any enclosing Block/For until the statement boundary catches it.
func Return(v val.Value) Statement {
	return func(context.Context, *Session) (val.Value, error) {
		return val.None(), returnSignal{Value: v}
	}
}

// Break produces the BREAK statement, caught only by an enclosing For.
func Break() Statement {
	return func(context.Context, *Session) (val.Value, error) { return val.None(), breakSignal{} }
}

// Continue produces the CONTINUE statement, caught only by an
// enclosing For.
func Continue() Statement {
	return func(context.Context, *Session) (val.Value, error) { return val.None(), continueSignal{} }
}
