package catalog

import (
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Field is a dotted-path schema entry on a table (spec §3 "Field
// schema"). Default and Computed are val.None() when absent.
// Permissions maps an action name ("create", "select", "update",
// "delete") to an opaque predicate expression string that
// internal/exec evaluates against the document pipeline's session
// context; catalog itself never interprets the expression.
type Field struct {
	NS, DB, TB, Name string
	Kind             val.Kind
	Optional         bool
	Flex             bool
	ReadOnly         bool
	Default          val.Value
	Computed         string
	Permissions      map[string]string
}

func (f Field) toValue() val.Value {
	perms := make(map[string]val.Value, len(f.Permissions))
	for k, v := range f.Permissions {
		perms[k] = val.String(v)
	}
	return val.Object(map[string]val.Value{
		"ns":          val.String(f.NS),
		"db":          val.String(f.DB),
		"tb":          val.String(f.TB),
		"name":        val.String(f.Name),
		"kind":        val.Int(int64(f.Kind)),
		"optional":    val.Bool(f.Optional),
		"flex":        val.Bool(f.Flex),
		"readonly":    val.Bool(f.ReadOnly),
		"default":     f.Default,
		"computed":    val.String(f.Computed),
		"permissions": val.Object(perms),
	})
}

func fieldFromValue(v val.Value) Field {
	obj, _ := v.AsObject()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	tb, _ := obj["tb"].AsString()
	name, _ := obj["name"].AsString()
	kindNum, _ := obj["kind"].AsNumber()
	optional, _ := obj["optional"].AsBool()
	flex, _ := obj["flex"].AsBool()
	readonly, _ := obj["readonly"].AsBool()
	computed, _ := obj["computed"].AsString()
	permsObj, _ := obj["permissions"].AsObject()
	perms := make(map[string]string, len(permsObj))
	for k, pv := range permsObj {
		s, _ := pv.AsString()
		perms[k] = s
	}
	return Field{
		NS: ns, DB: db, TB: tb, Name: name,
		Kind: val.Kind(kindNum.I), Optional: optional, Flex: flex, ReadOnly: readonly,
		Default: obj["default"], Computed: computed, Permissions: perms,
	}
}

// DefineField requires the owning table to exist, writes the field
// definition, and bumps the table's cache version (spec §4.2).
func DefineField(txn txnWriter, f Field) (Field, error) {
	if _, err := GetTable(txn, f.NS, f.DB, f.TB); err != nil {
		return Field{}, err
	}
	key, err := keys.Field{NS: f.NS, DB: f.DB, TB: f.TB, Name: f.Name}.Encode()
	if err != nil {
		return Field{}, err
	}
	if err := defineEntity(txn, "catalog.DefineField", key, f.toValue(), true); err != nil {
		return Field{}, err
	}
	if _, err := BumpTableVersion(txn, f.NS, f.DB, f.TB); err != nil {
		return Field{}, err
	}
	return f, nil
}

func GetField(txn txnReader, ns, db, tb, name string) (Field, error) {
	key, err := keys.Field{NS: ns, DB: db, TB: tb, Name: name}.Encode()
	if err != nil {
		return Field{}, err
	}
	v, err := readEntity(txn, "catalog.GetField", key)
	if err != nil {
		return Field{}, err
	}
	return fieldFromValue(v), nil
}

// RemoveField deletes one field definition and bumps the table's
// cache version.
func RemoveField(txn txnWriter, ns, db, tb, name string) error {
	key, err := keys.Field{NS: ns, DB: db, TB: tb, Name: name}.Encode()
	if err != nil {
		return err
	}
	if err := removeEntity(txn, key); err != nil {
		return err
	}
	_, err = BumpTableVersion(txn, ns, db, tb)
	return err
}

// ListFields enumerates every field defined on (ns, db, tb).
func ListFields(txn txnReader, ns, db, tb string) ([]Field, error) {
	lo, hi, err := keys.AllFieldsRange(ns, db, tb)
	if err != nil {
		return nil, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Field, 0, len(rows))
	for _, row := range rows {
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, fieldFromValue(v))
	}
	return out, nil
}
