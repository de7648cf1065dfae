// Package exec implements spec §4.5's statement executor and the
// control-flow constructs statements compose from: transactions
// (BEGIN/COMMIT/CANCEL), blocks, IF/ELSE, FOR, RETURN/BREAK/CONTINUE/
// THROW, and the session/options surface spec §6 describes. The
// statement AST itself is out of scope (spec §6: "the executor accepts
// an already-parsed statement AST... every node is pure data, not
// code"); a Statement here is the compiled form a parser would produce
// — a pure function of (ctx, *Session) closing over already-resolved
// operands, so the same Statement value may be executed repeatedly.
package exec

import (
	"context"
	"sync"
	"time"

	"github.com/warrendb/warrendb/internal/val"
)

// AuthLevel orders the three scopes a session authenticates at (spec
// §4.9, §13): root, namespace, database, matching internal/catalog's
// Scope but named independently since a session's level and a catalog
// entity's definition scope are conceptually distinct even though they
// share a domain.
type AuthLevel uint8

const (
	AuthRoot AuthLevel = iota
	AuthNamespace
	AuthDatabase
	AuthNone
)

// Session is the mutable per-connection state spec §6 describes:
// `{namespace?, database?, authentication-level, variables}`. A
// session's NS/DB selection (`USE NS/DB`) is scoped to that session
// alone and must never leak to a concurrent session sharing the same
// Executor — callers get their own *Session per connection, never a
// shared one.
type Session struct {
	mu sync.RWMutex

	NS, DB string
	Auth   AuthLevel
	Actor  string
	Vars   map[string]val.Value
}

func NewSession() *Session {
	return &Session{Vars: map[string]val.Value{}}
}

func (s *Session) UseNamespace(ns string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NS = ns
}

func (s *Session) UseDatabase(db string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DB = db
}

func (s *Session) Scope() (ns, db string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NS, s.DB
}

func (s *Session) SetVar(name string, v val.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Vars[name] = v
}

func (s *Session) GetVar(name string) (val.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Vars[name]
	return v, ok
}

// Options is spec §6's per-execution option set: futures-enabled,
// strict-mode (fails a CREATE/RELATE that would implicitly define a
// namespace/database/table), permissions-enforced, timeout, the
// authenticated principal, and a capability set.
//
// Timeout is a *time.Duration, not a plain Duration, because spec §8
// distinguishes "no TIMEOUT clause" (nil: no deadline at all) from an
// explicit `TIMEOUT 0ms` (a non-nil zero duration, which must expire
// immediately) — a plain Duration's zero value can't tell those apart.
type Options struct {
	FuturesEnabled      bool
	Strict              bool
	PermissionsEnforced bool
	Timeout             *time.Duration
	Principal           string
	Capabilities        map[string]bool
}

// Deadline derives the context.Context a statement batch runs under
// from Options.Timeout and start, per spec §7 "every execution carries
// a context with a deadline derived from statement TIMEOUT clauses...".
// A nil Timeout means no deadline; callers still get a cancellable
// context so Cancel/shutdown paths have something to call.
func (o Options) Deadline(ctx context.Context, start time.Time) (context.Context, context.CancelFunc) {
	if o.Timeout == nil {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, start.Add(*o.Timeout))
}
