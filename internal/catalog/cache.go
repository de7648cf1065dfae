package catalog

import (
	"github.com/warrendb/warrendb/internal/kvs"
)

// TableSchema bundles a table's definition with its fields, indexes,
// and events, the unit internal/doc's document pipeline needs for a
// single record write (spec §4.2 "decoded catalog entry (fields list,
// index list, events, live queries)").
type TableSchema struct {
	Table   Table
	Fields  []Field
	Indexes []Index
	Events  []Event
}

// LoadTableSchema fetches tb's definition, then serves its fields/
// indexes/events from cache if the table's current Version is still
// the one the cache entry was built under, falling back to a full
// scan-and-cache on a miss. Any DEFINE/REMOVE under the table bumps
// its Version (BumpTableVersion), so a stale cache entry is never
// served past the write that invalidated it (spec §4.2).
func LoadTableSchema(txn txnReader, cache *kvs.CatalogCache, ns, db, tb string) (TableSchema, error) {
	table, err := GetTable(txn, ns, db, tb)
	if err != nil {
		return TableSchema{}, err
	}
	key := kvs.CatalogCacheKey{NS: ns, DB: db, Table: tb, Subkind: "schema", Version: table.Version}
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			if schema, ok := cached.(TableSchema); ok {
				return schema, nil
			}
		}
	}

	fields, err := ListFields(txn, ns, db, tb)
	if err != nil {
		return TableSchema{}, err
	}
	indexes, err := ListIndexes(txn, ns, db, tb)
	if err != nil {
		return TableSchema{}, err
	}
	events, err := ListEvents(txn, ns, db, tb)
	if err != nil {
		return TableSchema{}, err
	}
	schema := TableSchema{Table: table, Fields: fields, Indexes: indexes, Events: events}
	if cache != nil {
		cache.Put(key, schema)
	}
	return schema, nil
}
