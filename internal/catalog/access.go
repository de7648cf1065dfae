package catalog

import (
	"time"

	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// AccessMethod names a way a session can authenticate (spec §3, §13
// supplement): Kind is e.g. "record", "bearer"; Roles are the policy
// roles a session authenticated through this method is granted.
// Token *issuance* is out of scope (spec §1) — only this catalog row
// and the policy check (§4.9) live here.
type AccessMethod struct {
	Scope    Scope
	NS, DB   string
	Name     string
	Kind     string
	Roles    []string
	Duration time.Duration
}

func (a AccessMethod) toValue() val.Value {
	roles := make([]val.Value, len(a.Roles))
	for i, r := range a.Roles {
		roles[i] = val.String(r)
	}
	return val.Object(map[string]val.Value{
		"scope":    val.Int(int64(a.Scope)),
		"ns":       val.String(a.NS),
		"db":       val.String(a.DB),
		"name":     val.String(a.Name),
		"kind":     val.String(a.Kind),
		"roles":    val.Array(roles),
		"duration": val.Dur(a.Duration),
	})
}

func accessFromValue(v val.Value) AccessMethod {
	obj, _ := v.AsObject()
	scope, _ := obj["scope"].AsNumber()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	name, _ := obj["name"].AsString()
	kind, _ := obj["kind"].AsString()
	rolesArr, _ := obj["roles"].AsArray()
	roles := make([]string, len(rolesArr))
	for i, r := range rolesArr {
		roles[i], _ = r.AsString()
	}
	dur, _ := obj["duration"].AsDuration()
	return AccessMethod{Scope: Scope(scope.I), NS: ns, DB: db, Name: name, Kind: kind, Roles: roles, Duration: dur}
}

func accessKey(a AccessMethod) ([]byte, error) {
	switch a.Scope {
	case ScopeRoot:
		return keys.RootAccess{Name: a.Name}.Encode()
	case ScopeNamespace:
		return keys.NsAccess{NS: a.NS, Name: a.Name}.Encode()
	case ScopeDatabase:
		return keys.DbAccess{NS: a.NS, DB: a.DB, Name: a.Name}.Encode()
	default:
		return nil, errs.New(errs.KindMalformedKey, "catalog.accessKey", nil)
	}
}

func DefineAccessMethod(txn txnWriter, a AccessMethod) (AccessMethod, error) {
	key, err := accessKey(a)
	if err != nil {
		return AccessMethod{}, err
	}
	if err := defineEntity(txn, "catalog.DefineAccessMethod", key, a.toValue(), true); err != nil {
		return AccessMethod{}, err
	}
	return a, nil
}

func GetAccessMethod(txn txnReader, scope Scope, ns, db, name string) (AccessMethod, error) {
	key, err := accessKey(AccessMethod{Scope: scope, NS: ns, DB: db, Name: name})
	if err != nil {
		return AccessMethod{}, err
	}
	v, err := readEntity(txn, "catalog.GetAccessMethod", key)
	if err != nil {
		return AccessMethod{}, err
	}
	return accessFromValue(v), nil
}

func RemoveAccessMethod(txn txnWriter, scope Scope, ns, db, name string) error {
	key, err := accessKey(AccessMethod{Scope: scope, NS: ns, DB: db, Name: name})
	if err != nil {
		return err
	}
	return removeEntity(txn, key)
}
