package feed

import (
	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/val"
)

// DefaultSubscriptionBuffer sizes a fresh live query's channel the way
// pkg/events.Broker buffers a subscriber (spec §4.8 leaves channel
// sizing as a transport concern; this is just a sane default for
// Registry.Register callers that don't have a reason to pick another).
const DefaultSubscriptionBuffer = 50

// LiveMatch is the minimal shape internal/exec reports back once it
// has already re-evaluated a live query's pattern and confirmed it
// matched: which live query, and whether it wants diff-style results
// (catalog.LiveQuery.Diff) instead of the plain after-image. Exported
// (rather than kept private like catalog's own txnReader/txnWriter)
// because callers outside this package build slices of it directly.
type LiveMatch struct {
	ID   uuid.UUID
	Diff bool
}

// Notify publishes a Notification for every live query in matched.
func (f *Feed) Notify(matched []LiveMatch, action doc.Action, before, after val.Value) {
	na := notifyActionFor(action)
	for _, m := range matched {
		result := after
		if m.Diff {
			result = val.Object(map[string]val.Value{"before": before, "after": after})
		}
		f.Registry.Publish(Notification{LiveQueryID: m.ID, Action: na, Result: result})
	}
}
