// Package feed implements spec §4.8: the per-database change feed
// (a versionstamped TableMutation log with bounded retention) and the
// live-query notification fabric that stage 12 of internal/doc's
// pipeline enqueues matches onto. internal/exec owns pattern matching
// (re-evaluating a live query's SELECT against before/after); this
// package owns everything downstream of a match — the channel a
// client drains, and the durable mutation log a replaying client
// catches up from.
package feed

import (
	"github.com/rs/zerolog"

	"github.com/warrendb/warrendb/pkg/log"
)

// Feed bundles the change-feed writer and the live-query registry
// behind one component logger, the way internal/search.Writer and
// internal/vector.Writer each own one concern's state.
type Feed struct {
	Registry *Registry
	log      zerolog.Logger
}

func New() *Feed {
	return &Feed{
		Registry: NewRegistry(),
		log:      log.WithComponent("feed"),
	}
}
