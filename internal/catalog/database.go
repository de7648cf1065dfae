package catalog

import (
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Database is a namespace-scoped entity (spec §3 addressing
// hierarchy). Its definition row doubles as the database's root
// marker key (keys.DatabaseRoot), the same key every table/record/
// index/change-feed entry in the database sorts after.
type Database struct {
	NS, Name string
	ID       uint64
}

func (d Database) toValue() val.Value {
	return val.Object(map[string]val.Value{
		"ns":   val.String(d.NS),
		"name": val.String(d.Name),
		"id":   val.Int(int64(d.ID)),
	})
}

func databaseFromValue(v val.Value) Database {
	obj, _ := v.AsObject()
	ns, _ := obj["ns"].AsString()
	name, _ := obj["name"].AsString()
	id, _ := obj["id"].AsNumber()
	return Database{NS: ns, Name: name, ID: uint64(id.I)}
}

// DefineDatabase requires the parent namespace to already exist
// (spec §3 hierarchy), allocates a database-scoped numeric id on
// first DEFINE, and is idempotent on redefine.
func DefineDatabase(txn txnWriter, alloc *Allocator, ns, name string) (Database, error) {
	if _, err := GetNamespace(txn, ns); err != nil {
		return Database{}, err
	}
	key, err := keys.DatabaseRoot{NS: ns, DB: name}.Encode()
	if err != nil {
		return Database{}, err
	}
	existing, err := readEntity(txn, "catalog.DefineDatabase", key)
	if err == nil {
		return databaseFromValue(existing), nil
	}
	id, err := alloc.NextID(txn, ns, "", "database")
	if err != nil {
		return Database{}, err
	}
	db := Database{NS: ns, Name: name, ID: id}
	if err := defineEntity(txn, "catalog.DefineDatabase", key, db.toValue(), true); err != nil {
		return Database{}, err
	}
	return db, nil
}

func GetDatabase(txn txnReader, ns, name string) (Database, error) {
	key, err := keys.DatabaseRoot{NS: ns, DB: name}.Encode()
	if err != nil {
		return Database{}, err
	}
	v, err := readEntity(txn, "catalog.GetDatabase", key)
	if err != nil {
		return Database{}, err
	}
	return databaseFromValue(v), nil
}

// RemoveDatabase deletes the database's own row and range-deletes
// every table, field, index, event, live query, record, and
// change-feed entry under it.
func RemoveDatabase(txn txnWriter, ns, name string) error {
	key, err := keys.DatabaseRoot{NS: ns, DB: name}.Encode()
	if err != nil {
		return err
	}
	if err := removeEntity(txn, key); err != nil {
		return err
	}
	lo, hi, err := keys.DatabaseScopeRange(ns, name)
	if err != nil {
		return err
	}
	return txn.DelRange(lo, hi)
}

// ListDatabases enumerates every database defined directly under ns.
// A database's own definition row (keys.DatabaseRoot) is a bare
// /*{ns}*{db} key with nothing following the database name, whereas
// every child entry (table, record, index, ...) continues with its
// own family tag; isDatabaseRootKey tells the two apart by shape
// rather than by sniffing the decoded value, since the shared
// keyspace holds heterogeneous row shapes at this scan range.
func ListDatabases(txn txnReader, ns string) ([]Database, error) {
	lo, hi, err := keys.NamespaceScopeAllRange(ns)
	if err != nil {
		return nil, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Database, 0)
	for _, row := range rows {
		if !isDatabaseRootKey(row.Key, ns) {
			continue
		}
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, databaseFromValue(v))
	}
	return out, nil
}

func isDatabaseRootKey(key []byte, ns string) bool {
	r := keys.NewReader(key)
	r.Byte() // '/'
	r.Byte() // '*'
	if r.Str() != ns {
		return false
	}
	r.Byte() // '*'
	r.Str() // db name
	return r.Done() == nil
}
