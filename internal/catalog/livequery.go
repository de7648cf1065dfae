package catalog

import (
	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// LiveQuery is a registered subscription over a table (spec §4.8):
// Query is an opaque statement expression internal/exec re-evaluates
// per mutation, Diff selects CHANGEFEED-style diff notifications
// instead of full-record ones, and OwnerNode is the cluster node
// currently responsible for delivering its notifications (spec §4.10
// "reassigns any live queries owned by [a] stale node").
type LiveQuery struct {
	NS, DB, TB string
	UUID       uuid.UUID
	Query      string
	Diff       bool
	OwnerNode  uuid.UUID
}

func (lq LiveQuery) toValue() val.Value {
	return val.Object(map[string]val.Value{
		"ns":    val.String(lq.NS),
		"db":    val.String(lq.DB),
		"tb":    val.String(lq.TB),
		"uuid":  val.UUID(lq.UUID),
		"query": val.String(lq.Query),
		"diff":  val.Bool(lq.Diff),
		"owner": val.UUID(lq.OwnerNode),
	})
}

func liveQueryFromValue(v val.Value) LiveQuery {
	obj, _ := v.AsObject()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	tb, _ := obj["tb"].AsString()
	id, _ := obj["uuid"].AsUUID()
	query, _ := obj["query"].AsString()
	diff, _ := obj["diff"].AsBool()
	owner, _ := obj["owner"].AsUUID()
	return LiveQuery{NS: ns, DB: db, TB: tb, UUID: id, Query: query, Diff: diff, OwnerNode: owner}
}

func DefineLiveQuery(txn txnWriter, lq LiveQuery) (LiveQuery, error) {
	if _, err := GetTable(txn, lq.NS, lq.DB, lq.TB); err != nil {
		return LiveQuery{}, err
	}
	if lq.UUID == uuid.Nil {
		lq.UUID = uuid.New()
	}
	key, err := keys.LiveQueryDef{NS: lq.NS, DB: lq.DB, TB: lq.TB, UUID: [16]byte(lq.UUID)}.Encode()
	if err != nil {
		return LiveQuery{}, err
	}
	if err := defineEntity(txn, "catalog.DefineLiveQuery", key, lq.toValue(), true); err != nil {
		return LiveQuery{}, err
	}
	return lq, nil
}

func GetLiveQuery(txn txnReader, ns, db, tb string, id uuid.UUID) (LiveQuery, error) {
	key, err := keys.LiveQueryDef{NS: ns, DB: db, TB: tb, UUID: [16]byte(id)}.Encode()
	if err != nil {
		return LiveQuery{}, err
	}
	v, err := readEntity(txn, "catalog.GetLiveQuery", key)
	if err != nil {
		return LiveQuery{}, err
	}
	return liveQueryFromValue(v), nil
}

func RemoveLiveQuery(txn txnWriter, ns, db, tb string, id uuid.UUID) error {
	key, err := keys.LiveQueryDef{NS: ns, DB: db, TB: tb, UUID: [16]byte(id)}.Encode()
	if err != nil {
		return err
	}
	return removeEntity(txn, key)
}

// ListLiveQueries enumerates every live query registered on (ns, db, tb).
func ListLiveQueries(txn txnReader, ns, db, tb string) ([]LiveQuery, error) {
	lo, hi, err := keys.AllLiveQueriesRange(ns, db, tb)
	if err != nil {
		return nil, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]LiveQuery, 0, len(rows))
	for _, row := range rows {
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, liveQueryFromValue(v))
	}
	return out, nil
}

// UpdateLiveQueryOwner reassigns lq to a new owning node, used by
// internal/cluster's stale-node GC (spec §4.10).
func UpdateLiveQueryOwner(txn txnWriter, lq LiveQuery, newOwner uuid.UUID) (LiveQuery, error) {
	lq.OwnerNode = newOwner
	key, err := keys.LiveQueryDef{NS: lq.NS, DB: lq.DB, TB: lq.TB, UUID: [16]byte(lq.UUID)}.Encode()
	if err != nil {
		return LiveQuery{}, err
	}
	if err := defineEntity(txn, "catalog.UpdateLiveQueryOwner", key, lq.toValue(), true); err != nil {
		return LiveQuery{}, err
	}
	return lq, nil
}
