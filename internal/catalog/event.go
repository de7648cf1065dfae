package catalog

import (
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Event is a table-scoped trigger (spec §3, §4.5 step 14 event()):
// When is an opaque predicate expression and Then a list of opaque
// statement expressions, both interpreted by internal/exec, not by
// catalog.
type Event struct {
	NS, DB, TB, Name string
	When             string
	Then             []string
}

func (e Event) toValue() val.Value {
	then := make([]val.Value, len(e.Then))
	for i, s := range e.Then {
		then[i] = val.String(s)
	}
	return val.Object(map[string]val.Value{
		"ns":   val.String(e.NS),
		"db":   val.String(e.DB),
		"tb":   val.String(e.TB),
		"name": val.String(e.Name),
		"when": val.String(e.When),
		"then": val.Array(then),
	})
}

func eventFromValue(v val.Value) Event {
	obj, _ := v.AsObject()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	tb, _ := obj["tb"].AsString()
	name, _ := obj["name"].AsString()
	when, _ := obj["when"].AsString()
	thenArr, _ := obj["then"].AsArray()
	then := make([]string, len(thenArr))
	for i, t := range thenArr {
		then[i], _ = t.AsString()
	}
	return Event{NS: ns, DB: db, TB: tb, Name: name, When: when, Then: then}
}

func DefineEvent(txn txnWriter, e Event) (Event, error) {
	if _, err := GetTable(txn, e.NS, e.DB, e.TB); err != nil {
		return Event{}, err
	}
	key, err := keys.Event{NS: e.NS, DB: e.DB, TB: e.TB, Name: e.Name}.Encode()
	if err != nil {
		return Event{}, err
	}
	if err := defineEntity(txn, "catalog.DefineEvent", key, e.toValue(), true); err != nil {
		return Event{}, err
	}
	if _, err := BumpTableVersion(txn, e.NS, e.DB, e.TB); err != nil {
		return Event{}, err
	}
	return e, nil
}

func GetEvent(txn txnReader, ns, db, tb, name string) (Event, error) {
	key, err := keys.Event{NS: ns, DB: db, TB: tb, Name: name}.Encode()
	if err != nil {
		return Event{}, err
	}
	v, err := readEntity(txn, "catalog.GetEvent", key)
	if err != nil {
		return Event{}, err
	}
	return eventFromValue(v), nil
}

func RemoveEvent(txn txnWriter, ns, db, tb, name string) error {
	key, err := keys.Event{NS: ns, DB: db, TB: tb, Name: name}.Encode()
	if err != nil {
		return err
	}
	if err := removeEntity(txn, key); err != nil {
		return err
	}
	_, err = BumpTableVersion(txn, ns, db, tb)
	return err
}

// ListEvents enumerates every event defined on (ns, db, tb), the
// order internal/doc's event() pipeline stage (spec §4.5 step 14)
// fires them in.
func ListEvents(txn txnReader, ns, db, tb string) ([]Event, error) {
	lo, hi, err := keys.AllEventsRange(ns, db, tb)
	if err != nil {
		return nil, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, eventFromValue(v))
	}
	return out, nil
}
