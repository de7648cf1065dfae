package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Table is a database-scoped entity. Schemafull tables reject unknown
// fields on write (spec §3 "Records"); Version is the cache-bust uuid
// spec §4.2's scoped catalog cache keys on, bumped every time the
// table's own row (or, by convention, any child field/index/event row)
// is redefined. ChangeFeed* fields mirror `CHANGEFEED <duration>
// [INCLUDE ORIGINAL]` (spec §4.8): ChangeFeedEnabled gates stage 13
// entirely, ChangeFeedRetention bounds the GC task's cutoff, and
// ChangeFeedIncludeOriginal selects SetWithDiff over Set (spec §9 Open
// Question, decided in DESIGN.md).
type Table struct {
	NS, DB, Name              string
	Schemafull                bool
	Version                   uuid.UUID
	ChangeFeedEnabled         bool
	ChangeFeedRetention       time.Duration
	ChangeFeedIncludeOriginal bool
}

func (t Table) toValue() val.Value {
	return val.Object(map[string]val.Value{
		"ns":                  val.String(t.NS),
		"db":                  val.String(t.DB),
		"name":                val.String(t.Name),
		"schemafull":          val.Bool(t.Schemafull),
		"version":             val.UUID(t.Version),
		"cf_enabled":          val.Bool(t.ChangeFeedEnabled),
		"cf_retention":        val.Dur(t.ChangeFeedRetention),
		"cf_include_original": val.Bool(t.ChangeFeedIncludeOriginal),
	})
}

func tableFromValue(v val.Value) Table {
	obj, _ := v.AsObject()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	name, _ := obj["name"].AsString()
	schemafull, _ := obj["schemafull"].AsBool()
	version, _ := obj["version"].AsUUID()
	cfEnabled, _ := obj["cf_enabled"].AsBool()
	cfRetention, _ := obj["cf_retention"].AsDuration()
	cfIncludeOriginal, _ := obj["cf_include_original"].AsBool()
	return Table{
		NS: ns, DB: db, Name: name, Schemafull: schemafull, Version: version,
		ChangeFeedEnabled: cfEnabled, ChangeFeedRetention: cfRetention,
		ChangeFeedIncludeOriginal: cfIncludeOriginal,
	}
}

// DefineTable requires the parent database to exist and always mints
// a fresh Version, so any cached reader keyed on the previous version
// observes a miss (spec §4.2 scoped catalog cache).
func DefineTable(txn txnWriter, ns, db, name string, schemafull bool) (Table, error) {
	if _, err := GetDatabase(txn, ns, db); err != nil {
		return Table{}, err
	}
	key, err := keys.Table{NS: ns, DB: db, Name: name}.Encode()
	if err != nil {
		return Table{}, err
	}
	tb := Table{NS: ns, DB: db, Name: name, Schemafull: schemafull, Version: newVersion()}
	if err := defineEntity(txn, "catalog.DefineTable", key, tb.toValue(), true); err != nil {
		return Table{}, err
	}
	return tb, nil
}

// SetChangeFeed configures (or disables, when retention is zero)
// CHANGEFEED on an existing table and bumps its Version.
func SetChangeFeed(txn txnWriter, ns, db, name string, retention time.Duration, includeOriginal bool) (Table, error) {
	tb, err := GetTable(txn, ns, db, name)
	if err != nil {
		return Table{}, err
	}
	tb.ChangeFeedEnabled = retention > 0
	tb.ChangeFeedRetention = retention
	tb.ChangeFeedIncludeOriginal = includeOriginal
	tb.Version = newVersion()
	key, err := keys.Table{NS: ns, DB: db, Name: name}.Encode()
	if err != nil {
		return Table{}, err
	}
	if err := defineEntity(txn, "catalog.SetChangeFeed", key, tb.toValue(), true); err != nil {
		return Table{}, err
	}
	return tb, nil
}

func GetTable(txn txnReader, ns, db, name string) (Table, error) {
	key, err := keys.Table{NS: ns, DB: db, Name: name}.Encode()
	if err != nil {
		return Table{}, err
	}
	v, err := readEntity(txn, "catalog.GetTable", key)
	if err != nil {
		return Table{}, err
	}
	return tableFromValue(v), nil
}

// BumpTableVersion mints and persists a fresh Version without
// otherwise changing the table, used by DefineField/DefineIndex/
// DefineEvent so a change to a table's children also invalidates
// readers caching the table's field/index/event lists.
func BumpTableVersion(txn txnWriter, ns, db, name string) (Table, error) {
	tb, err := GetTable(txn, ns, db, name)
	if err != nil {
		return Table{}, err
	}
	tb.Version = newVersion()
	key, err := keys.Table{NS: ns, DB: db, Name: name}.Encode()
	if err != nil {
		return Table{}, err
	}
	if err := defineEntity(txn, "catalog.BumpTableVersion", key, tb.toValue(), true); err != nil {
		return Table{}, err
	}
	return tb, nil
}

// RemoveTable deletes the table's own row and range-deletes every
// field, event, index (definition and postings/elements), live
// query, record, and graph edge scoped to it (spec §4.3).
func RemoveTable(txn txnWriter, ns, db, name string) error {
	key, err := keys.Table{NS: ns, DB: db, Name: name}.Encode()
	if err != nil {
		return err
	}
	if err := removeEntity(txn, key); err != nil {
		return err
	}
	lo, hi, err := keys.TableScopeRange(ns, db, name)
	if err != nil {
		return err
	}
	return txn.DelRange(lo, hi)
}

// ListTables enumerates every table defined in (ns, db).
func ListTables(txn txnReader, ns, db string) ([]Table, error) {
	lo, hi, err := keys.AllTablesRange(ns, db)
	if err != nil {
		return nil, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Table, 0, len(rows))
	for _, row := range rows {
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, tableFromValue(v))
	}
	return out, nil
}
