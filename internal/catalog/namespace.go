package catalog

import (
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Namespace is the top-level scoping entity (spec §3 addressing
// hierarchy: Root -> Namespace -> Database -> Table -> Record). ID is
// the batched-allocator numeric id assigned at DEFINE time; it is not
// used in key encoding (internal/keys addresses namespaces by name so
// DEFINE NAMESPACE never needs a round trip through the allocator
// before the name itself can be used), it exists so callers that want
// a compact foreign-key-style reference to a namespace have one.
type Namespace struct {
	Name string
	ID   uint64
}

func (n Namespace) toValue() val.Value {
	return val.Object(map[string]val.Value{
		"name": val.String(n.Name),
		"id":   val.Int(int64(n.ID)),
	})
}

func namespaceFromValue(v val.Value) Namespace {
	obj, _ := v.AsObject()
	name, _ := obj["name"].AsString()
	id, _ := obj["id"].AsNumber()
	return Namespace{Name: name, ID: uint64(id.I)}
}

// DefineNamespace writes the namespace definition, allocating a fresh
// numeric id the first time it's defined (spec §4.3 DEFINE path).
// Redefining an existing namespace is allowed (idempotent DEFINE,
// matching DEFINE NAMESPACE semantics) and keeps the existing id.
func DefineNamespace(txn txnWriter, alloc *Allocator, name string) (Namespace, error) {
	key, err := keys.Namespace{Name: name}.Encode()
	if err != nil {
		return Namespace{}, err
	}
	existing, err := readEntity(txn, "catalog.DefineNamespace", key)
	if err == nil {
		return namespaceFromValue(existing), nil
	}
	id, err := alloc.NextID(txn, "", "", "namespace")
	if err != nil {
		return Namespace{}, err
	}
	ns := Namespace{Name: name, ID: id}
	if err := defineEntity(txn, "catalog.DefineNamespace", key, ns.toValue(), true); err != nil {
		return Namespace{}, err
	}
	return ns, nil
}

// GetNamespace returns errs.KindNotFound if name is not defined.
func GetNamespace(txn txnReader, name string) (Namespace, error) {
	key, err := keys.Namespace{Name: name}.Encode()
	if err != nil {
		return Namespace{}, err
	}
	v, err := readEntity(txn, "catalog.GetNamespace", key)
	if err != nil {
		return Namespace{}, err
	}
	return namespaceFromValue(v), nil
}

// RemoveNamespace deletes the namespace definition and cascades:
// every database, table, field, index, event, live query, record,
// and change-feed entry under the namespace is range-deleted (spec
// §4.3 "on removal of a parent ... delete ... all child definitions").
func RemoveNamespace(txn txnWriter, name string) error {
	key, err := keys.Namespace{Name: name}.Encode()
	if err != nil {
		return err
	}
	if err := removeEntity(txn, key); err != nil {
		return err
	}
	lo, hi, err := keys.NamespaceScopeAllRange(name)
	if err != nil {
		return err
	}
	return txn.DelRange(lo, hi)
}

// ListNamespaces enumerates every defined namespace.
func ListNamespaces(txn txnReader) ([]Namespace, error) {
	lo, hi := keys.NamespaceScopeRange()
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Namespace, 0, len(rows))
	for _, row := range rows {
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, namespaceFromValue(v))
	}
	return out, nil
}
